package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/koperasichain/backend/internal/blockchain"
)

type fakeReceiptClient struct {
	pendingFor int
	status     uint64
	calls      int
}

func (c *fakeReceiptClient) TransactionReceipt(_ context.Context, txHash string) (*blockchain.Receipt, error) {
	c.calls++
	if c.calls <= c.pendingFor {
		return nil, nil
	}
	return &blockchain.Receipt{TransactionHash: txHash, Status: c.status}, nil
}

func TestWaitForConfirmationPollsUntilReceipt(t *testing.T) {
	rpc := &fakeReceiptClient{pendingFor: 2, status: 1}
	c := NewConfirmer(rpc, time.Second, time.Millisecond)

	receipt, err := c.WaitForConfirmation(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if receipt.Status != 1 {
		t.Fatalf("unexpected status: %d", receipt.Status)
	}
	if rpc.calls != 3 {
		t.Fatalf("expected 3 polls, got %d", rpc.calls)
	}
}

func TestWaitForConfirmationTimesOut(t *testing.T) {
	rpc := &fakeReceiptClient{pendingFor: 1 << 30}
	c := NewConfirmer(rpc, 10*time.Millisecond, time.Millisecond)

	_, err := c.WaitForConfirmation(context.Background(), "0xabc")
	if !errors.Is(err, ErrConfirmationTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestWaitForConfirmationShortCircuitsStubHashes(t *testing.T) {
	rpc := &fakeReceiptClient{}
	c := NewConfirmer(rpc, time.Second, time.Millisecond)

	receipt, err := c.WaitForConfirmation(context.Background(), "0xstubdeposit1")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if receipt.Status != 1 {
		t.Fatalf("expected success receipt, got %d", receipt.Status)
	}
	if rpc.calls != 0 {
		t.Fatalf("expected no node polls for stub hash, got %d", rpc.calls)
	}
}

func TestWaitForConfirmationHonorsContextCancel(t *testing.T) {
	rpc := &fakeReceiptClient{pendingFor: 1 << 30}
	c := NewConfirmer(rpc, time.Minute, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	_, err := c.WaitForConfirmation(ctx, "0xabc")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}
