package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/koperasichain/backend/internal/blockchain"
)

// ErrConfirmationTimeout means no receipt arrived within the patience
// window. The transaction may still land later.
var ErrConfirmationTimeout = errors.New("confirmation_timeout")

type ReceiptClient interface {
	TransactionReceipt(ctx context.Context, txHash string) (*blockchain.Receipt, error)
}

// Confirmer polls for a transaction receipt until one arrives or the
// patience window elapses.
type Confirmer struct {
	rpc      ReceiptClient
	patience time.Duration
	poll     time.Duration
}

func NewConfirmer(rpc ReceiptClient, patience, poll time.Duration) *Confirmer {
	if patience <= 0 {
		patience = 90 * time.Second
	}
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Confirmer{rpc: rpc, patience: patience, poll: poll}
}

func (c *Confirmer) WaitForConfirmation(ctx context.Context, txHash string) (*blockchain.Receipt, error) {
	// Stub writes never get a receipt from the node.
	if strings.HasPrefix(txHash, "0xstub") {
		return &blockchain.Receipt{TransactionHash: txHash, Status: 1}, nil
	}

	deadline := time.NewTimer(c.patience)
	defer deadline.Stop()
	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		receipt, err := c.rpc.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrConfirmationTimeout
		case <-ticker.C:
		}
	}
}
