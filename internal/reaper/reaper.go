package reaper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/audit"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/cache"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/config"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/repository"
	pkglog "github.com/weiawesome/wes-io-live/chatroom-service/pkg/log"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/pubsub"
)

const (
	defaultInterval    = 15 * time.Second
	defaultStaleAfter  = 10 * time.Second
	defaultConcurrency = 4
)

// Reaper periodically evicts participants whose last heartbeat is older
// than the staleness window and announces their departure.
type Reaper struct {
	participants repository.ParticipantRepository
	cache        cache.ParticipantCache
	publisher    pubsub.Publisher
	metrics      *metrics.Metrics
	cfg          config.ReaperConfig
	channel      string

	now    func() time.Time
	quit   chan struct{}
	doneCh chan struct{}
}

// New creates a new Reaper.
func New(
	participants repository.ParticipantRepository,
	c cache.ParticipantCache,
	pub pubsub.Publisher,
	m *metrics.Metrics,
	cfg config.ReaperConfig,
	channel string,
) *Reaper {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if c == nil {
		c = cache.NopParticipantCache{}
	}
	if pub == nil {
		pub = pubsub.NopPublisher{}
	}
	if channel == "" {
		channel = pubsub.ChannelChatEvents
	}

	return &Reaper{
		participants: participants,
		cache:        c,
		publisher:    pub,
		metrics:      m,
		cfg:          cfg,
		channel:      channel,
		now:          time.Now,
		quit:         make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start launches the reaper in a background goroutine.
func (r *Reaper) Start(ctx context.Context) {
	go r.run(pkglog.WithComponent(ctx, "reaper"))
}

// Stop signals the reaper to stop and returns immediately.
// Call Done() to wait for it to exit.
func (r *Reaper) Stop() {
	close(r.quit)
}

// Done returns a channel that is closed when the reaper has fully stopped.
func (r *Reaper) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reaper) run(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Errors are already logged; the next tick retries.
			_, _ = r.Sweep(ctx)
		}
	}
}

// Sweep runs one scan-evict-announce cycle and returns the names evicted.
// Evictions of different participants are independent and run
// concurrently; one failing does not stop the others.
func (r *Reaper) Sweep(ctx context.Context) ([]string, error) {
	l := pkglog.Ctx(ctx)
	started := time.Now()

	participants, err := r.participants.List(ctx)
	if err != nil {
		l.Error().Err(err).Msg("reaper: failed to list participants")
		r.metrics.RecordSweep(started, 0, -1, err)
		return nil, err
	}

	now := r.now()
	cutoff := domain.StaleCutoff(now, r.cfg.StaleAfter)

	var (
		mu      sync.Mutex
		evicted []string
		errs    []error
		g       errgroup.Group
	)
	g.SetLimit(r.cfg.Concurrency)

	for i := range participants {
		p := participants[i]
		if !p.StaleAt(now, r.cfg.StaleAfter) {
			continue
		}

		g.Go(func() error {
			removed, err := r.evict(ctx, p.Name, cutoff)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("evict %s: %w", p.Name, err))
			} else if removed {
				evicted = append(evicted, p.Name)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(evicted) > 0 {
		if err := r.cache.Invalidate(ctx); err != nil {
			l.Warn().Err(err).Msg("reaper: participant cache invalidation failed")
		}
	}

	err = errors.Join(errs...)
	r.metrics.RecordSweep(started, len(evicted), len(participants)-len(evicted), err)

	if err != nil {
		l.Error().Err(err).Int("evicted", len(evicted)).Msg("reaper: sweep finished with errors")
		return evicted, err
	}
	if len(evicted) > 0 {
		l.Info().Int("evicted", len(evicted)).Int("scanned", len(participants)).Msg("reaper: sweep complete")
	} else {
		l.Debug().Int("scanned", len(participants)).Msg("reaper: sweep complete, nobody evicted")
	}
	return evicted, nil
}

// evict removes one participant if still stale. The farewell is stamped with
// the time of the delete, not of the scan.
func (r *Reaper) evict(ctx context.Context, name string, cutoff int64) (bool, error) {
	farewell := domain.NewStatusMessage(name, domain.LeaveText, r.now())

	removed, err := r.participants.EvictStale(ctx, name, cutoff, farewell)
	if err != nil || !removed {
		return false, err
	}

	audit.Log(ctx, audit.ActionEvict, name, "participant evicted for inactivity")
	pubsub.Emit(ctx, r.publisher, r.channel, pubsub.EventParticipantLeft, name, domain.Participant{Name: name})
	pubsub.Emit(ctx, r.publisher, r.channel, pubsub.EventMessageCreated, farewell.ID, farewell)
	return true, nil
}
