package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/koperasichain/backend/internal/domain/member"
	"github.com/koperasichain/backend/internal/events"
	"github.com/koperasichain/backend/internal/session"
)

type SessionRefresher interface {
	RefreshSession(ctx context.Context, s *session.Session) (*member.Snapshot, error)
}

type PendingLoanFetcher interface {
	FetchPendingLoans(ctx context.Context) ([]events.PendingLoan, error)
}

type OfficerReader interface {
	IsOfficer(ctx context.Context, addr string) (bool, error)
}

type SessionHandler struct {
	registry  *session.Registry
	refresher SessionRefresher
	pending   PendingLoanFetcher
	officers  OfficerReader
	decimals  int32
}

func NewSessionHandler(registry *session.Registry, refresher SessionRefresher, pending PendingLoanFetcher, officers OfficerReader, decimals int32) *SessionHandler {
	return &SessionHandler{
		registry:  registry,
		refresher: refresher,
		pending:   pending,
		officers:  officers,
		decimals:  decimals,
	}
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req struct {
		Address           string `json:"address"`
		PreviousSessionID string `json:"previous_session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	previous := uuid.Nil
	if strings.TrimSpace(req.PreviousSessionID) != "" {
		parsed, err := uuid.Parse(strings.TrimSpace(req.PreviousSessionID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_previous_session_id"})
			return
		}
		previous = parsed
	}

	s, err := h.registry.Connect(req.Address, previous)
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": s.ID.String(), "address": s.Address})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	h.registry.Drop(s.ID)
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

// Refresh rebuilds the snapshot from the ledger. A refresh superseded by a
// newer one returns 409 without touching the stored snapshot.
func (h *SessionHandler) Refresh(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	snap, err := h.refresher.RefreshSession(c.Request.Context(), s)
	if err != nil {
		writeFault(c, err)
		return
	}
	if snap == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "refresh_superseded"})
		return
	}
	c.JSON(http.StatusOK, presentAccount(snap, h.decimals))
}

func (h *SessionHandler) GetAccount(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	snap := s.Snapshot()
	if snap == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no_snapshot"})
		return
	}
	c.JSON(http.StatusOK, presentAccount(snap, h.decimals))
}

// GetPendingLoans rebuilds the approval queue fresh; officer role is read
// from the ledger, not trusted from the session.
func (h *SessionHandler) GetPendingLoans(c *gin.Context) {
	s, ok := lookupSession(c, h.registry)
	if !ok {
		return
	}
	officer, err := h.officers.IsOfficer(c.Request.Context(), s.Address)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "query_failed"})
		return
	}
	if !officer {
		c.JSON(http.StatusForbidden, gin.H{"error": "officer_only"})
		return
	}

	items, err := h.pending.FetchPendingLoans(c.Request.Context())
	if err != nil {
		writeFault(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": presentPendingLoans(items, h.decimals)})
}

func lookupSession(c *gin.Context, registry *session.Registry) (*session.Session, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("sessionId")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_session_id"})
		return nil, false
	}
	s, ok := registry.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
		return nil, false
	}
	return s, true
}
