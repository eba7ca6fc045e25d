package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
	"github.com/ardanlabs/utxochain/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_NameService(t *testing.T) {
	root := t.TempDir()

	key, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatal(err)
	}
	if err := crypto.SaveECDSA(filepath.Join(root, "kennedy.ecdsa"), key); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Log("Given the need to look up names for addresses.")
	{
		ns, err := nameservice.New(root)
		if err != nil {
			t.Fatalf("\t%s\tShould load the key files: %v", failed, err)
		}
		t.Logf("\t%s\tShould load the key files.", success)

		kennedy := database.PublicKeyToAddress(key.PublicKey)
		if name := ns.Lookup(kennedy); name != "kennedy" {
			t.Fatalf("\t%s\tShould find the name for a known address, got %q.", failed, name)
		}
		if len(ns.Copy()) != 1 {
			t.Fatalf("\t%s\tShould only load .ecdsa files.", failed)
		}
		t.Logf("\t%s\tShould find the name for a known address.", success)

		const unknown database.Address = "04aa"
		if name := ns.Lookup(unknown); name != string(unknown) {
			t.Fatalf("\t%s\tShould return an unknown address as is, got %q.", failed, name)
		}
		t.Logf("\t%s\tShould return an unknown address as is.", success)
	}
}
