package settings

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"reviewdesk/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// InvalidationChannel is the redis channel settings writers publish on.
const InvalidationChannel = "settings:invalidate"

const reloadTimeout = 10 * time.Second

// Source loads the current reminder configuration from storage.
type Source interface {
	GetReminderConfig(ctx context.Context) (models.ReminderConfig, error)
}

// Provider caches the reminder configuration for a bounded time. It is shared by the
// scanner and the processor and invalidated by the settings write path.
type Provider struct {
	source Source
	ttl    time.Duration
	now    func() time.Time
	redis  *redis.Client
	logger *zap.Logger

	group singleflight.Group

	mu        sync.Mutex
	cached    *models.ReminderConfig
	fetchedAt time.Time
	gen       uint64
}

// NewProvider builds a Provider. redisClient may be nil, in which case invalidation stays
// local to this process.
func NewProvider(source Source, ttl time.Duration, redisClient *redis.Client, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		redis:  redisClient,
		logger: logger,
	}
}

// GetReminderConfig returns the cached configuration, reloading it once the TTL elapsed.
// Concurrent callers share one reload and the lock is never held while storage is read.
func (p *Provider) GetReminderConfig(ctx context.Context) (models.ReminderConfig, error) {
	p.mu.Lock()
	if p.cached != nil && p.now().Sub(p.fetchedAt) < p.ttl {
		cfg := *p.cached
		p.mu.Unlock()
		return cfg, nil
	}
	gen := p.gen
	p.mu.Unlock()

	// A reload keyed by generation is never joined by a caller that arrives after an
	// invalidation.
	ch := p.group.DoChan(strconv.FormatUint(gen, 10), func() (interface{}, error) {
		return p.reload(context.WithoutCancel(ctx), gen)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return models.ReminderConfig{}, res.Err
		}
		return res.Val.(models.ReminderConfig), nil
	case <-ctx.Done():
		return models.ReminderConfig{}, ctx.Err()
	}
}

func (p *Provider) reload(ctx context.Context, gen uint64) (models.ReminderConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()
	cfg, err := p.source.GetReminderConfig(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if p.cached != nil {
			p.logger.Warn("Reminder settings reload failed, serving stale copy", zap.Error(err))
			return *p.cached, nil
		}
		return models.ReminderConfig{}, fmt.Errorf("load reminder config: %w", err)
	}
	// An invalidation while the read was in flight means cfg may predate the write.
	if gen == p.gen {
		p.cached = &cfg
		p.fetchedAt = p.now()
	}
	return cfg, nil
}

// Invalidate drops the cached configuration so the next read goes to storage.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.gen++
	p.mu.Unlock()
}

// PublishInvalidation invalidates locally and tells the other instances to do the same.
func (p *Provider) PublishInvalidation(ctx context.Context) error {
	p.Invalidate()
	if p.redis == nil {
		return nil
	}
	if err := p.redis.Publish(ctx, InvalidationChannel, "review_reminders").Err(); err != nil {
		return fmt.Errorf("publish settings invalidation: %w", err)
	}
	return nil
}

// Watch invalidates the cache whenever another instance publishes an invalidation. It
// blocks until ctx is done.
func (p *Provider) Watch(ctx context.Context) {
	if p.redis == nil {
		return
	}
	sub := p.redis.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			p.logger.Debug("Reminder settings invalidated", zap.String("payload", msg.Payload))
			p.Invalidate()
		}
	}
}
