package reaper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/config"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/repository"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/testutil"
)

func newTestReaper(t *testing.T, now time.Time) (*Reaper, *repository.GormParticipantRepository, *repository.GormMessageRepository) {
	t.Helper()

	db := testutil.NewDB(t)
	participants := repository.NewGormParticipantRepository(db)
	messages := repository.NewGormMessageRepository(db)

	r := New(participants, nil, nil, metrics.New(prometheus.NewRegistry()), config.ReaperConfig{
		Interval:    time.Hour,
		StaleAfter:  10 * time.Second,
		Concurrency: 2,
	}, "")
	r.now = func() time.Time { return now }
	return r, participants, messages
}

func TestReaper_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	r, participants, messages := newTestReaper(t, now)

	seed := map[string]time.Duration{
		"alice": 30 * time.Second,
		"bob":   11 * time.Second,
		"carol": 10 * time.Second,
		"dave":  time.Second,
	}
	for name, age := range seed {
		require.NoError(t, participants.Create(ctx, &domain.Participant{Name: name, LastStatus: now.Add(-age).UnixMilli()}, nil))
	}

	evicted, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, evicted)

	remaining, err := participants.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(remaining))
	for i, p := range remaining {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"carol", "dave"}, names, "exactly the window is not stale")

	history, err := messages.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	var from []string
	for _, m := range history {
		assert.Equal(t, domain.MessageTypeStatus, m.Type)
		assert.Equal(t, domain.LeaveText, m.Text)
		assert.Equal(t, domain.BroadcastTarget, m.To)
		assert.Equal(t, "09:00:00", m.Time)
		from = append(from, m.From)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, from)

	t.Run("second sweep finds nothing", func(t *testing.T) {
		evicted, err := r.Sweep(ctx)
		require.NoError(t, err)
		assert.Empty(t, evicted)

		history, err := messages.ListRecent(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}

func TestReaper_HeartbeatAfterScanWins(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	r, participants, messages := newTestReaper(t, now)

	require.NoError(t, participants.Create(ctx, &domain.Participant{Name: "alice", LastStatus: now.Add(-time.Minute).UnixMilli()}, nil))

	// Heartbeat lands between the scan and the delete.
	require.NoError(t, participants.Touch(ctx, "alice", now.UnixMilli()))
	removed, err := r.evict(ctx, "alice", domain.StaleCutoff(now, r.cfg.StaleAfter))
	require.NoError(t, err)
	assert.False(t, removed)

	exists, err := participants.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	history, err := messages.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestReaper_StartStop(t *testing.T) {
	r, _, _ := newTestReaper(t, time.Now())

	r.Start(context.Background())
	r.Stop()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}

func TestReaper_StopsWithContext(t *testing.T) {
	r, _, _ := newTestReaper(t, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop on context cancel")
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(nil, nil, nil, nil, config.ReaperConfig{}, "")
	assert.Equal(t, defaultInterval, r.cfg.Interval)
	assert.Equal(t, defaultStaleAfter, r.cfg.StaleAfter)
	assert.Equal(t, defaultConcurrency, r.cfg.Concurrency)
	assert.NotNil(t, r.cache)
	assert.NotNil(t, r.publisher)
}

// flakyParticipants fails selected calls and delegates the rest to the store.
type flakyParticipants struct {
	*repository.GormParticipantRepository
	listErr  error
	evictErr map[string]error
}

func (f *flakyParticipants) List(ctx context.Context) ([]domain.Participant, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.GormParticipantRepository.List(ctx)
}

func (f *flakyParticipants) EvictStale(ctx context.Context, name string, cutoff int64, farewell *domain.Message) (bool, error) {
	if err := f.evictErr[name]; err != nil {
		return false, err
	}
	return f.GormParticipantRepository.EvictStale(ctx, name, cutoff, farewell)
}

func newFlakyReaper(t *testing.T, now time.Time, store *flakyParticipants) *Reaper {
	t.Helper()
	r := New(store, nil, nil, metrics.New(prometheus.NewRegistry()), config.ReaperConfig{
		Interval:    time.Hour,
		StaleAfter:  10 * time.Second,
		Concurrency: 2,
	}, "")
	r.now = func() time.Time { return now }
	return r
}

func TestReaper_Sweep_OneFailedEvictionDoesNotStopTheOthers(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	db := testutil.NewDB(t)
	messages := repository.NewGormMessageRepository(db)
	lockTimeout := errors.New("lock wait timeout exceeded")
	store := &flakyParticipants{
		GormParticipantRepository: repository.NewGormParticipantRepository(db),
		evictErr:                  map[string]error{"bob": lockTimeout},
	}
	for _, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, store.Create(ctx, &domain.Participant{Name: name, LastStatus: now.Add(-time.Minute).UnixMilli()}, nil))
	}

	r := newFlakyReaper(t, now, store)

	var (
		evicted []string
		err     error
	)
	require.NotPanics(t, func() { evicted, err = r.Sweep(ctx) })
	assert.ErrorIs(t, err, lockTimeout)
	assert.Contains(t, err.Error(), "bob")
	assert.ElementsMatch(t, []string{"alice", "carol"}, evicted)

	exists, err := store.Exists(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, exists, "failed eviction leaves the participant for the next sweep")

	history, err := messages.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2, "one farewell per completed eviction")

	t.Run("next sweep retries", func(t *testing.T) {
		delete(store.evictErr, "bob")
		evicted, err := r.Sweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob"}, evicted)
	})
}

func TestReaper_Sweep_ListFailure(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	db := testutil.NewDB(t)
	unreachable := errors.New("connection refused")
	store := &flakyParticipants{
		GormParticipantRepository: repository.NewGormParticipantRepository(db),
		listErr:                   unreachable,
	}
	require.NoError(t, store.Create(ctx, &domain.Participant{Name: "alice", LastStatus: 0}, nil))

	r := newFlakyReaper(t, now, store)

	var (
		evicted []string
		err     error
	)
	require.NotPanics(t, func() { evicted, err = r.Sweep(ctx) })
	assert.ErrorIs(t, err, unreachable)
	assert.Empty(t, evicted)

	exists, err := store.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}
