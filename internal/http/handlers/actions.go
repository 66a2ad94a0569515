package handlers

import (
	"context"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/koperasichain/backend/internal/fault"
	"github.com/koperasichain/backend/internal/ledger"
	"github.com/koperasichain/backend/internal/money"
	"github.com/koperasichain/backend/internal/session"
	"github.com/koperasichain/backend/internal/tx"
)

const defaultFaucetAmount = "1000000"

type WriteOrchestrator interface {
	ExecuteGuarded(ctx context.Context, owner string, amount *big.Int, action tx.Action) error
	SubmitDirect(ctx context.Context, owner string, validate func() error, action tx.Action) error
}

type FeeReader interface {
	RegistrationFee(ctx context.Context) (*big.Int, error)
	IsOfficer(ctx context.Context, addr string) (bool, error)
}

type ActionsHandler struct {
	registry     *session.Registry
	orchestrator WriteOrchestrator
	writer       ledger.Writer
	reader       FeeReader
	decimals     int32
	devFaucet    bool

	// faucetFrom is the token operator account that signs mints; empty
	// means mint from the requesting identity.
	faucetFrom string
}

func NewActionsHandler(registry *session.Registry, orchestrator WriteOrchestrator, writer ledger.Writer, reader FeeReader, decimals int32, devFaucet bool, faucetFrom string) *ActionsHandler {
	return &ActionsHandler{
		registry:     registry,
		orchestrator: orchestrator,
		writer:       writer,
		reader:       reader,
		decimals:     decimals,
		devFaucet:    devFaucet,
		faucetFrom:   faucetFrom,
	}
}

// Register pays the registration fee through the allowance gate and joins
// the cooperative.
func (h *ActionsHandler) Register(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeFault(c, &fault.ValidationError{Field: "name", Reason: "required"})
		return
	}

	fee, err := h.reader.RegistrationFee(c.Request.Context())
	if err != nil {
		writeFault(c, &fault.QueryError{Op: "registration_fee", Err: err})
		return
	}

	err = h.orchestrator.ExecuteGuarded(c.Request.Context(), s.Address, fee, func(ctx context.Context) (string, error) {
		return h.writer.RegisterMember(ctx, s.Address, name)
	})
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

func (h *ActionsHandler) Deposit(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	err := h.orchestrator.ExecuteGuarded(c.Request.Context(), s.Address, amount, func(ctx context.Context) (string, error) {
		return h.writer.Deposit(ctx, s.Address, amount)
	})
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

func (h *ActionsHandler) Withdraw(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	err := h.orchestrator.SubmitDirect(c.Request.Context(), s.Address, positiveAmount(amount), func(ctx context.Context) (string, error) {
		return h.writer.Withdraw(ctx, s.Address, amount)
	})
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

func (h *ActionsHandler) RequestLoan(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	err := h.orchestrator.SubmitDirect(c.Request.Context(), s.Address, positiveAmount(amount), func(ctx context.Context) (string, error) {
		return h.writer.RequestLoan(ctx, s.Address, amount)
	})
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

func (h *ActionsHandler) PayInstallment(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	loanID, ok := loanIDParam(c)
	if !ok {
		return
	}
	amount, ok := h.bindAmount(c)
	if !ok {
		return
	}

	err := h.orchestrator.ExecuteGuarded(c.Request.Context(), s.Address, amount, func(ctx context.Context) (string, error) {
		return h.writer.PayInstallment(ctx, s.Address, loanID, amount)
	})
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

// ApproveLoan is officer-only; the role comes from the ledger on every
// call.
func (h *ActionsHandler) ApproveLoan(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	loanID, ok := loanIDParam(c)
	if !ok {
		return
	}

	officer, err := h.reader.IsOfficer(c.Request.Context(), s.Address)
	if err != nil {
		writeFault(c, &fault.QueryError{Op: "is_officer", Err: err})
		return
	}
	if !officer {
		c.JSON(http.StatusForbidden, gin.H{"error": "officer_only"})
		return
	}

	err = h.orchestrator.SubmitDirect(c.Request.Context(), s.Address,
		func() error {
			if loanID == 0 {
				return &fault.ValidationError{Field: "loan_id", Reason: "must be positive"}
			}
			return nil
		},
		func(ctx context.Context) (string, error) {
			return h.writer.ApproveLoan(ctx, s.Address, loanID)
		})
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

// Faucet mints test tokens to the session identity. Disabled outside dev
// environments.
func (h *ActionsHandler) Faucet(c *gin.Context) {
	if !h.devFaucet {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	amount, err := money.Parse(defaultFaucetAmount, h.decimals)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	from := h.faucetFrom
	if from == "" {
		from = s.Address
	}
	err = h.orchestrator.SubmitDirect(c.Request.Context(), s.Address, positiveAmount(amount), func(ctx context.Context) (string, error) {
		return h.writer.Mint(ctx, from, s.Address, amount)
	})
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "confirmed"})
}

func (h *ActionsHandler) bindAmount(c *gin.Context) (*big.Int, bool) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return nil, false
	}
	amount, err := money.Parse(req.Amount, h.decimals)
	if err != nil {
		writeFault(c, &fault.ValidationError{Field: "amount", Reason: err.Error()})
		return nil, false
	}
	return amount, true
}

func positiveAmount(amount *big.Int) func() error {
	return func() error {
		if amount == nil || amount.Sign() <= 0 {
			return &fault.ValidationError{Field: "amount", Reason: "must be positive"}
		}
		return nil
	}
}

func loanIDParam(c *gin.Context) (uint64, bool) {
	loanID, err := strconv.ParseUint(strings.TrimSpace(c.Param("loanId")), 10, 64)
	if err != nil || loanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_loan_id"})
		return 0, false
	}
	return loanID, true
}
