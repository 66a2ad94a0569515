package tx

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"

	"github.com/koperasichain/backend/internal/blockchain"
	"github.com/koperasichain/backend/internal/fault"
	"github.com/koperasichain/backend/internal/ledger"
)

// Status tracks a single orchestrated action through its lifecycle.
type Status string

const (
	StatusIdle              Status = "idle"
	StatusValidating        Status = "validating"
	StatusAwaitingAllowance Status = "awaiting_allowance"
	StatusSubmitted         Status = "submitted"
	StatusConfirmed         Status = "confirmed"
)

type AllowanceReader interface {
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)
}

type Approver interface {
	Approve(ctx context.Context, from string, amount *big.Int) (string, error)
}

type Confirmer interface {
	WaitForConfirmation(ctx context.Context, txHash string) (*blockchain.Receipt, error)
}

// Refresher rebuilds the acting member's snapshot after a confirmed write.
type Refresher interface {
	Refresh(ctx context.Context, account string) error
}

// Action submits one domain write and returns its pending transaction hash.
type Action func(ctx context.Context) (string, error)

// Orchestrator sequences ledger writes: local validation, conditional
// allowance grant, submission, confirmation wait, then one full account
// refresh. One action per caller may be in flight at a time; the allowance
// gate is read-then-act and must not run twice concurrently for the same
// owner.
type Orchestrator struct {
	gate      AllowanceReader
	approver  Approver
	confirmer Confirmer
	refresher Refresher
	spender   string
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]Status
}

func NewOrchestrator(gate AllowanceReader, approver Approver, confirmer Confirmer, refresher Refresher, spender string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gate:      gate,
		approver:  approver,
		confirmer: confirmer,
		refresher: refresher,
		spender:   ledger.NormalizeAddress(spender),
		logger:    logger,
		inFlight:  map[string]Status{},
	}
}

// StatusOf reports the caller's current action status.
func (o *Orchestrator) StatusOf(owner string) Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.inFlight[ledger.NormalizeAddress(owner)]; ok {
		return st
	}
	return StatusIdle
}

// EnsureAllowance re-reads the current allowance and grants more only when
// it is strictly below amount. A sufficient allowance returns immediately
// without submitting anything.
func (o *Orchestrator) EnsureAllowance(ctx context.Context, owner string, amount *big.Int) error {
	current, err := o.gate.Allowance(ctx, owner, o.spender)
	if err != nil {
		return &fault.AllowanceError{Reason: reasonOf(err)}
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}

	txHash, err := o.approver.Approve(ctx, owner, amount)
	if err != nil {
		return &fault.AllowanceError{Reason: reasonOf(err)}
	}
	receipt, err := o.confirmer.WaitForConfirmation(ctx, txHash)
	if err != nil {
		if errors.Is(err, ledger.ErrConfirmationTimeout) {
			return &fault.ConfirmationTimeout{TxHash: txHash}
		}
		return &fault.AllowanceError{Reason: reasonOf(err)}
	}
	if receipt.Status == 0 {
		return &fault.AllowanceError{Reason: "allowance grant reverted"}
	}
	return nil
}

// ExecuteGuarded runs the two-phase pattern for value-transferring writes:
// validate, ensure allowance, submit, confirm, refresh.
func (o *Orchestrator) ExecuteGuarded(ctx context.Context, owner string, amount *big.Int, action Action) error {
	owner = ledger.NormalizeAddress(owner)
	if err := o.begin(owner); err != nil {
		return err
	}
	defer o.end(owner)

	o.setStatus(owner, StatusValidating)
	if amount == nil || amount.Sign() <= 0 {
		return &fault.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	o.setStatus(owner, StatusAwaitingAllowance)
	if err := o.EnsureAllowance(ctx, owner, amount); err != nil {
		return err
	}

	return o.submitAndConfirm(ctx, owner, action)
}

// SubmitDirect runs writes that need no allowance. Validate is optional and
// runs before any network call.
func (o *Orchestrator) SubmitDirect(ctx context.Context, owner string, validate func() error, action Action) error {
	owner = ledger.NormalizeAddress(owner)
	if err := o.begin(owner); err != nil {
		return err
	}
	defer o.end(owner)

	o.setStatus(owner, StatusValidating)
	if validate != nil {
		if err := validate(); err != nil {
			return err
		}
	}

	return o.submitAndConfirm(ctx, owner, action)
}

func (o *Orchestrator) submitAndConfirm(ctx context.Context, owner string, action Action) error {
	o.setStatus(owner, StatusSubmitted)
	txHash, err := action(ctx)
	if err != nil {
		return &fault.SubmissionError{Reason: reasonOf(err)}
	}

	receipt, err := o.confirmer.WaitForConfirmation(ctx, txHash)
	if err != nil {
		if errors.Is(err, ledger.ErrConfirmationTimeout) {
			return &fault.ConfirmationTimeout{TxHash: txHash}
		}
		return &fault.SubmissionError{Reason: reasonOf(err)}
	}
	if receipt.Status == 0 {
		return &fault.SubmissionError{Reason: "transaction reverted"}
	}

	o.setStatus(owner, StatusConfirmed)
	o.logger.Info("write confirmed", "owner", owner, "tx_hash", txHash)

	// The write landed; a failed refresh must not make it look failed.
	if err := o.refresher.Refresh(ctx, owner); err != nil {
		o.logger.Warn("post-write refresh failed", "owner", owner, "err", err)
	}
	return nil
}

func (o *Orchestrator) begin(owner string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[owner]; busy {
		return fault.ErrBusy
	}
	o.inFlight[owner] = StatusValidating
	return nil
}

func (o *Orchestrator) setStatus(owner string, st Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight[owner] = st
}

func (o *Orchestrator) end(owner string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, owner)
}

// reasonOf passes the node's revert or rejection message through verbatim
// when one exists.
func reasonOf(err error) string {
	var rpcErr *blockchain.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Message
	}
	return err.Error()
}
