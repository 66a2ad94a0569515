package session

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/koperasichain/backend/internal/domain/member"
	"github.com/koperasichain/backend/internal/fault"
)

const testAddr = "0x1111111111111111111111111111111111111111"

func TestConnectRejectsMalformedAddress(t *testing.T) {
	r := NewRegistry()

	_, err := r.Connect("bukan-alamat", uuid.Nil)
	var validationErr *fault.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConnectInvalidatesPreviousSession(t *testing.T) {
	r := NewRegistry()
	first, err := r.Connect(testAddr, uuid.Nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	second, err := r.Connect("0x2222222222222222222222222222222222222222", first.ID)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if _, ok := r.Get(first.ID); ok {
		t.Fatalf("expected previous session to be dropped")
	}
	if _, ok := r.Get(second.ID); !ok {
		t.Fatalf("expected new session to exist")
	}
}

func TestSupersededCommitIsDiscarded(t *testing.T) {
	r := NewRegistry()
	s, err := r.Connect(testAddr, uuid.Nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	stale := s.Begin()
	fresh := s.Begin()

	newest := &member.Snapshot{Address: testAddr, Name: "newest"}
	if !s.Commit(fresh, newest) {
		t.Fatalf("expected newest refresh to commit")
	}
	if s.Commit(stale, &member.Snapshot{Address: testAddr, Name: "stale"}) {
		t.Fatalf("expected stale refresh to be discarded")
	}
	if got := s.Snapshot(); got == nil || got.Name != "newest" {
		t.Fatalf("expected newest snapshot to survive, got %+v", got)
	}
}

type fakeLoader struct {
	snap  *member.Snapshot
	err   error
	calls int
}

func (l *fakeLoader) LoadAccount(_ context.Context, account string) (*member.Snapshot, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	snap := *l.snap
	snap.Address = account
	return &snap, nil
}

type fakeNotifier struct {
	accounts int
	pending  int
}

func (n *fakeNotifier) AccountRefreshed(_ string) { n.accounts++ }
func (n *fakeNotifier) PendingLoansChanged()      { n.pending++ }

func TestRefreshCommitsToEverySessionForIdentity(t *testing.T) {
	r := NewRegistry()
	a, _ := r.Connect(testAddr, uuid.Nil)
	b, _ := r.Connect(testAddr, uuid.Nil)

	notifier := &fakeNotifier{}
	refresher := NewRefresher(r, &fakeLoader{snap: &member.Snapshot{Registered: true}}, notifier, slog.Default())

	if err := refresher.Refresh(context.Background(), testAddr); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if a.Snapshot() == nil || b.Snapshot() == nil {
		t.Fatalf("expected both sessions to receive the snapshot")
	}
	if notifier.accounts != 1 {
		t.Fatalf("expected one account notification, got %d", notifier.accounts)
	}
	if notifier.pending != 0 {
		t.Fatalf("expected no pending notification for non-officer, got %d", notifier.pending)
	}
}

func TestRefreshNotifiesPendingQueueForOfficer(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Connect(testAddr, uuid.Nil)

	notifier := &fakeNotifier{}
	refresher := NewRefresher(r, &fakeLoader{snap: &member.Snapshot{Registered: true, Officer: true}}, notifier, slog.Default())

	if err := refresher.Refresh(context.Background(), testAddr); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if notifier.pending != 1 {
		t.Fatalf("expected pending notification for officer, got %d", notifier.pending)
	}
}

func TestRefreshSessionReportsSuperseded(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Connect(testAddr, uuid.Nil)

	loader := &fakeLoader{snap: &member.Snapshot{Registered: true}}
	refresher := NewRefresher(r, &supersedingLoader{inner: loader, session: s}, &fakeNotifier{}, slog.Default())

	snap, err := refresher.RefreshSession(context.Background(), s)
	if err != nil {
		t.Fatalf("refresh session: %v", err)
	}
	if snap != nil {
		t.Fatalf("expected superseded refresh to return nil snapshot")
	}
}

// supersedingLoader starts a newer refresh while a load is in flight.
type supersedingLoader struct {
	inner   *fakeLoader
	session *Session
}

func (l *supersedingLoader) LoadAccount(ctx context.Context, account string) (*member.Snapshot, error) {
	l.session.Begin()
	return l.inner.LoadAccount(ctx, account)
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	r := NewRegistry()
	s, _ := r.Connect(testAddr, uuid.Nil)

	good := NewRefresher(r, &fakeLoader{snap: &member.Snapshot{Name: "first"}}, nil, slog.Default())
	if _, err := good.RefreshSession(context.Background(), s); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	bad := NewRefresher(r, &fakeLoader{err: errors.New("node unavailable")}, nil, slog.Default())
	if _, err := bad.RefreshSession(context.Background(), s); err == nil {
		t.Fatalf("expected refresh failure")
	}
	if got := s.Snapshot(); got == nil || got.Name != "first" {
		t.Fatalf("expected previous snapshot to survive, got %+v", got)
	}
}
