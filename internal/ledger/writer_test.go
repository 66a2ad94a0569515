package ledger

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/koperasichain/backend/internal/blockchain"
)

type fakeSendClient struct {
	lastFrom string
	lastTo   string
	lastData string
	lastGas  uint64
}

func (c *fakeSendClient) SendTransaction(_ context.Context, from, to, data string, gasLimit uint64) (string, error) {
	c.lastFrom = from
	c.lastTo = to
	c.lastData = data
	c.lastGas = gasLimit
	return "0xpending", nil
}

func TestApproveTargetsTokenWithCooperativeSpender(t *testing.T) {
	rpc := &fakeSendClient{}
	w, err := NewRPCWriter(rpc, testCoop, testToken, 0)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	txHash, err := w.Approve(context.Background(), testAddr, big.NewInt(500))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if txHash != "0xpending" {
		t.Fatalf("unexpected hash: %s", txHash)
	}
	if rpc.lastTo != testToken {
		t.Fatalf("expected token contract, got %s", rpc.lastTo)
	}
	if !strings.Contains(rpc.lastData, blockchain.PadAddress(testCoop)) {
		t.Fatalf("expected cooperative as spender in calldata")
	}
	if rpc.lastGas != 300000 {
		t.Fatalf("expected default gas limit, got %d", rpc.lastGas)
	}
}

func TestDepositTargetsCooperative(t *testing.T) {
	rpc := &fakeSendClient{}
	w, _ := NewRPCWriter(rpc, testCoop, testToken, 0)

	if _, err := w.Deposit(context.Background(), testAddr, big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if rpc.lastTo != testCoop {
		t.Fatalf("expected cooperative contract, got %s", rpc.lastTo)
	}
	if !strings.HasSuffix(rpc.lastData, blockchain.PadBig(big.NewInt(100))) {
		t.Fatalf("expected amount word in calldata")
	}
}

func TestRegisterMemberRequiresName(t *testing.T) {
	w, _ := NewRPCWriter(&fakeSendClient{}, testCoop, testToken, 0)

	if _, err := w.RegisterMember(context.Background(), testAddr, "  "); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestSendRejectsInvalidFromAddress(t *testing.T) {
	w, _ := NewRPCWriter(&fakeSendClient{}, testCoop, testToken, 0)

	if _, err := w.Withdraw(context.Background(), "bukan-alamat", big.NewInt(1)); err == nil {
		t.Fatalf("expected error for invalid from address")
	}
}

func TestStubWriterHashesAreStubPrefixed(t *testing.T) {
	w := NewStubWriter()

	txHash, err := w.Deposit(context.Background(), testAddr, big.NewInt(1))
	if err != nil {
		t.Fatalf("stub deposit: %v", err)
	}
	if !strings.HasPrefix(txHash, "0xstub") {
		t.Fatalf("expected stub prefix, got %s", txHash)
	}
}
