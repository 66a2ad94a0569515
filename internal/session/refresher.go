package session

import (
	"context"
	"log/slog"

	"github.com/koperasichain/backend/internal/domain/member"
)

type AccountLoader interface {
	LoadAccount(ctx context.Context, account string) (*member.Snapshot, error)
}

type ChangeNotifier interface {
	AccountRefreshed(address string)
	PendingLoansChanged()
}

// Refresher runs one full account load and commits it to every live session
// for the identity, last-call-wins.
type Refresher struct {
	registry *Registry
	loader   AccountLoader
	notifier ChangeNotifier
	logger   *slog.Logger
}

func NewRefresher(registry *Registry, loader AccountLoader, notifier ChangeNotifier, logger *slog.Logger) *Refresher {
	return &Refresher{registry: registry, loader: loader, notifier: notifier, logger: logger}
}

func (r *Refresher) Refresh(ctx context.Context, address string) error {
	sessions := r.registry.ByAddress(address)
	tokens := make([]uint64, len(sessions))
	for i, s := range sessions {
		tokens[i] = s.Begin()
	}

	snap, err := r.loader.LoadAccount(ctx, address)
	if err != nil {
		return err
	}

	committed := false
	for i, s := range sessions {
		if s.Commit(tokens[i], snap) {
			committed = true
		}
	}
	if committed && r.notifier != nil {
		r.notifier.AccountRefreshed(snap.Address)
		if snap.Officer {
			r.notifier.PendingLoansChanged()
		}
	}
	if !committed && len(sessions) > 0 {
		r.logger.Debug("refresh superseded, result discarded", "address", address)
	}
	return nil
}

// RefreshSession refreshes a single session and returns the fresh snapshot,
// or nil when a newer refresh superseded this one.
func (r *Refresher) RefreshSession(ctx context.Context, s *Session) (*member.Snapshot, error) {
	token := s.Begin()
	snap, err := r.loader.LoadAccount(ctx, s.Address)
	if err != nil {
		return nil, err
	}
	if !s.Commit(token, snap) {
		return nil, nil
	}
	if r.notifier != nil {
		r.notifier.AccountRefreshed(snap.Address)
		if snap.Officer {
			r.notifier.PendingLoansChanged()
		}
	}
	return snap, nil
}
