package validate_test

import (
	"testing"

	"github.com/ardanlabs/utxochain/business/sys/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type send struct {
	To     string `json:"to" validate:"required,address"`
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

func Test_Check(t *testing.T) {
	const kennedy = "04412ffaffb78f2931e193f1add952fcb84ceaa55c8491b3a71f25f89fbb482aaf9b74f0fc0d3b6a71da07425d3ef94ac0a1b1d7972f10c2c38bd77257b346fbf8"

	tests := []struct {
		name   string
		val    send
		fields []string
	}{
		{"valid", send{To: kennedy, Amount: 10}, nil},
		{"badaddress", send{To: "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", Amount: 10}, []string{"to"}},
		{"noamount", send{To: kennedy}, []string{"amount"}},
		{"empty", send{}, []string{"to", "amount"}},
	}

	t.Log("Given the need to validate request models.")
	{
		for testID, tt := range tests {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %s.", testID, tt.name)
				{
					err := validate.Check(tt.val)

					if tt.fields == nil {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
						return
					}

					if !validate.IsFieldErrors(err) {
						t.Fatalf("\t%s\tTest %d:\tShould return field errors, got %v.", failed, testID, err)
					}

					fields := validate.GetFieldErrors(err).Fields()
					if len(fields) != len(tt.fields) {
						t.Fatalf("\t%s\tTest %d:\tShould fail %d fields, got %v.", failed, testID, len(tt.fields), fields)
					}
					for _, field := range tt.fields {
						if _, exists := fields[field]; !exists {
							t.Fatalf("\t%s\tTest %d:\tShould fail field %q, got %v.", failed, testID, field, fields)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould fail the expected fields.", success, testID)
				}
			}

			t.Run(tt.name, f)
		}
	}
}
