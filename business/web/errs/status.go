package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/state"
)

// StatusOf maps the errors returned by the blockchain packages to the http
// status the control surface responds with. Block validation failures are
// checked first since they can wrap a transaction error.
func StatusOf(err error) (int, bool) {
	if _, ok := database.ReasonOf(err); ok {
		return http.StatusNotAcceptable, true
	}

	switch {
	case errors.Is(err, state.ErrChainBehind):
		return http.StatusNotAcceptable, true

	case errors.Is(err, state.ErrBlockDiscarded), errors.Is(err, state.ErrForkBlock):
		return http.StatusConflict, true

	case errors.Is(err, database.ErrInsufficientFunds):
		return http.StatusPaymentRequired, true

	case errors.Is(err, database.ErrUnknownUTXO), errors.Is(err, state.ErrNotFound):
		return http.StatusNotFound, true

	case errors.Is(err, database.ErrDoubleSpend):
		return http.StatusConflict, true

	case errors.Is(err, database.ErrInvalidSignature),
		errors.Is(err, database.ErrInvalidAmount),
		errors.Is(err, database.ErrInvalidTxID),
		errors.Is(err, database.ErrInvalidCoinbase),
		errors.Is(err, database.ErrKeyMismatch):
		return http.StatusBadRequest, true
	}

	return 0, false
}
