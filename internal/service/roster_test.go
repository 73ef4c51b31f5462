package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cricket-roster/internal/api"
	"cricket-roster/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

type fakeFeed struct {
	mu      sync.Mutex
	records []api.FeedPlayer
	err     error
	calls   int
}

func (f *fakeFeed) FetchPlayers(ctx context.Context) ([]api.FeedPlayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.records, f.err
}

type fakeStore struct {
	mu          sync.Mutex
	players     []domain.Player
	stale       bool
	listErr     error
	replaceErr  error
	freshErr    error
	replaced    int
	refreshedAt time.Time
}

func (s *fakeStore) List(ctx context.Context) ([]domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.players, nil
}

func (s *fakeStore) ReplaceAll(ctx context.Context, players []domain.Player, refreshedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.players = players
	s.stale = false
	s.replaced++
	s.refreshedAt = refreshedAt
	return nil
}

func (s *fakeStore) ShouldRefresh(ctx context.Context, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale, s.freshErr
}

func strPtr(s string) *string { return &s }

func feedRecords() []api.FeedPlayer {
	return []api.FeedPlayer{
		{ID: "1", Name: strPtr("Rohit Sharma"), Type: "batsman", Points: 870, Rank: 3},
		{ID: "2", Name: strPtr("Jasprit Bumrah"), Type: "bowler", Points: 910, Rank: 1},
		{ID: "", Name: strPtr("No Id"), Type: "bowler"},
		{ID: "3", Name: strPtr("Umpire"), Type: "umpire"},
		{ID: "1", Name: strPtr("Duplicate"), Type: "batsman"},
		{ID: "4", Name: strPtr("Rishabh Pant"), Type: "wicketKeeper", Points: 700, Rank: 8},
	}
}

func TestRosterServiceServesFreshCache(t *testing.T) {
	cached := []domain.Player{{ID: "c1", Category: domain.CategoryBowler}}
	feed := &fakeFeed{records: feedRecords()}
	store := &fakeStore{players: cached}
	svc := newRosterService(feed, store, time.Minute, zerolog.Nop())

	got := svc.Load(context.Background())

	if diff := cmp.Diff(cached, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if feed.calls != 0 {
		t.Errorf("feed called %d times, want 0", feed.calls)
	}
}

func TestRosterServiceRefreshesStaleCache(t *testing.T) {
	feed := &fakeFeed{records: feedRecords()}
	store := &fakeStore{stale: true, players: []domain.Player{{ID: "old", Category: domain.CategoryBatsman}}}
	svc := newRosterService(feed, store, time.Minute, zerolog.Nop())

	got := svc.Load(context.Background())

	gotIDs := make([]string, len(got))
	for i, p := range got {
		gotIDs[i] = p.ID
	}
	if diff := cmp.Diff([]string{"1", "2", "4"}, gotIDs); diff != "" {
		t.Errorf("Load() ids mismatch (-want +got):\n%s", diff)
	}
	if got[0].Name != "Rohit Sharma" {
		t.Errorf("duplicate id replaced the first record: %+v", got[0])
	}
	if store.replaced != 1 {
		t.Errorf("store replaced %d times, want 1", store.replaced)
	}
	if diff := cmp.Diff(got, store.players); diff != "" {
		t.Errorf("cache mismatch (-loaded +cached):\n%s", diff)
	}
}

func TestRosterServiceFallsBackToStaleCache(t *testing.T) {
	stale := []domain.Player{{ID: "s1", Category: domain.CategoryAllRounder}}
	feed := &fakeFeed{err: errors.New("feed down")}
	store := &fakeStore{stale: true, players: stale}
	svc := newRosterService(feed, store, time.Minute, zerolog.Nop())

	got := svc.Load(context.Background())

	if diff := cmp.Diff(stale, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestRosterServiceEmptyWhenEverythingFails(t *testing.T) {
	feed := &fakeFeed{err: errors.New("feed down")}
	store := &fakeStore{freshErr: errors.New("db locked"), listErr: errors.New("db locked")}
	svc := newRosterService(feed, store, time.Minute, zerolog.Nop())

	got := svc.Load(context.Background())

	if got == nil || len(got) != 0 {
		t.Errorf("Load() = %v, want empty roster", got)
	}
	if feed.calls != 1 {
		t.Errorf("feed called %d times, want 1", feed.calls)
	}
}

func TestRosterServiceReturnsFeedWhenCacheWriteFails(t *testing.T) {
	feed := &fakeFeed{records: feedRecords()}
	store := &fakeStore{stale: true, replaceErr: errors.New("disk full")}
	svc := newRosterService(feed, store, time.Minute, zerolog.Nop())

	if got := svc.Load(context.Background()); len(got) != 3 {
		t.Errorf("Load() returned %d players, want 3", len(got))
	}
}

func TestRosterServiceCancelledLoad(t *testing.T) {
	feed := &fakeFeed{records: feedRecords()}
	store := &fakeStore{stale: true}
	svc := newRosterService(feed, store, time.Minute, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := svc.Load(ctx); len(got) != 0 {
		t.Errorf("Load() with cancelled context returned %d players, want 0", len(got))
	}
}
