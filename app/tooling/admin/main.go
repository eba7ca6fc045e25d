// This program performs administrative tasks against the blocks a node
// has written to disk.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/utxochain/app/tooling/admin/commands"
	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/blockchain/genesis"
	"github.com/ardanlabs/utxochain/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/utxochain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args        conf.Args
		DBPath      string `conf:"default:zblock/blocks.db"`
		GenesisPath string `conf:"default:zblock/genesis.json"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "inspect the blocks written by a node",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	gen, err := genesis.Load(cfg.GenesisPath)
	if err != nil {
		return err
	}

	strg, err := disk.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer strg.Close()

	ledger, err := database.Replay(gen, strg.ForEach(), time.Now())
	if err != nil {
		return fmt.Errorf("replaying blocks: %w", err)
	}

	log.Infow("admin", "status", "ledger loaded", "blocks", len(ledger.Chain()), "latest", ledger.LatestBlock().Hash)

	return processCommands(cfg.Args, ledger)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, ledger database.Ledger) error {
	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(args, ledger); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "blocks":
		if err := commands.Blocks(args, ledger); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}
	default:
		fmt.Println("commands: bals [address] | blocks [from]")
	}

	return nil
}
