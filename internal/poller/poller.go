// Package poller periodically re-fetches the catalog and hands the result to
// its sinks.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/logger"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"go.uber.org/zap"
)

const (
	DefaultInterval = 30 * time.Second
	DefaultCount    = 250
)

var ErrRunning = errors.New("poller already running")

// Refresher performs a broad fetch that bypasses cache reuse.
type Refresher interface {
	Refresh(ctx context.Context, count int) ([]model.CatalogProduct, error)
}

// SinkFunc receives the product list of each successful poll.
type SinkFunc func(ctx context.Context, products []model.CatalogProduct) error

type Config struct {
	Interval time.Duration
	Count    int
}

type Poller struct {
	refresher Refresher
	sinks     []SinkFunc
	cfg       Config
	logger    logger.ZapLogger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(refresher Refresher, cfg Config, log logger.ZapLogger, sinks ...SinkFunc) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Count <= 0 {
		cfg.Count = DefaultCount
	}
	return &Poller{
		refresher: refresher,
		sinks:     sinks,
		cfg:       cfg,
		logger:    log,
	}
}

func (p *Poller) Interval() time.Duration { return p.cfg.Interval }

// Start launches the polling loop. The first poll fires one interval after
// Start. The loop ends on Stop or when ctx is done.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return ErrRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		p.logger.Info("catalog poller started", zap.Duration("interval", p.cfg.Interval))
		for {
			select {
			case <-ticker.C:
				if err := p.PollOnce(runCtx); err != nil && runCtx.Err() == nil {
					p.logger.Warn("catalog poll failed", zap.Error(err))
				}
			case <-runCtx.Done():
				p.logger.Info("catalog poller stopped")
				return
			}
		}
	}()
	return nil
}

// Stop cancels the loop and waits for it to exit. A poll in flight is
// abandoned and its result discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

// PollOnce fetches the catalog and applies it to every sink. Nothing is
// applied if ctx ends before the fetch returns.
func (p *Poller) PollOnce(ctx context.Context) error {
	products, err := p.refresher.Refresh(ctx, p.cfg.Count)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var errs []error
	for _, sink := range p.sinks {
		if err := sink(ctx, products); err != nil {
			errs = append(errs, err)
		}
	}
	p.logger.Debug("catalog poll applied", zap.Int("products", len(products)), zap.Int("sinks", len(p.sinks)))
	return errors.Join(errs...)
}
