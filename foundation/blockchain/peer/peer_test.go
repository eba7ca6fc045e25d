package peer_test

import (
	"math/big"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host3"}, {Host: "host1"}, {Host: "host2"}},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, peer := range tst.peers {
				if !ps.Add(peer) {
					t.Fatalf("Test %s:\tShould be able to add peer %s.", tst.name, peer.Host)
				}
			}

			if ps.Add(tst.peers[0]) {
				t.Fatalf("Test %s:\tShould not add a known peer twice.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			if peers[0].Host != "host1" || peers[2].Host != "host3" {
				t.Fatalf("Test %s:\tShould get back the peers sorted by host: %v", tst.name, peers)
			}

			peers = ps.Copy("host2")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			ps.Remove(peer.New("host1"))
			if peers := ps.Copy(""); len(peers) != len(tst.peers)-1 {
				t.Fatalf("Test %s:\tShould be able to remove a peer.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_StatusWork(t *testing.T) {
	work := new(big.Int).Lsh(big.NewInt(1), 100)

	status := peer.NewPeerStatus("0x00", 7, work, nil)
	if status.Work().Cmp(work) != 0 {
		t.Fatalf("Should get back the work, got %s.", status.Work())
	}

	for _, bad := range []string{"", "abc", "-5"} {
		status.AccumulatedWork = bad
		if status.Work().Sign() != 0 {
			t.Fatalf("Should treat %q as zero work.", bad)
		}
	}
}
