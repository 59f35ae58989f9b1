// Package autosave drives unattended persistence for a live review
// session: a fixed-interval autosave and an activity-gated keepalive.
package autosave

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds scheduler intervals. ActivityWindow must be strictly
// shorter than KeepaliveInterval; applyDefaults enforces it.
type Config struct {
	AutosaveInterval  time.Duration `yaml:"autosave_interval" mapstructure:"autosave_interval"`
	KeepaliveInterval time.Duration `yaml:"keepalive_interval" mapstructure:"keepalive_interval"`
	ActivityWindow    time.Duration `yaml:"activity_window" mapstructure:"activity_window"`
	ActivityDebounce  time.Duration `yaml:"activity_debounce" mapstructure:"activity_debounce"`
}

// DefaultConfig returns the standard intervals.
func DefaultConfig() Config {
	return Config{
		AutosaveInterval:  30 * time.Second,
		KeepaliveInterval: 60 * time.Second,
		ActivityWindow:    45 * time.Second,
		ActivityDebounce:  5 * time.Second,
	}
}

func applyDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.AutosaveInterval <= 0 {
		cfg.AutosaveInterval = def.AutosaveInterval
	}
	if cfg.KeepaliveInterval <= 0 {
		cfg.KeepaliveInterval = def.KeepaliveInterval
	}
	if cfg.ActivityWindow <= 0 || cfg.ActivityWindow >= cfg.KeepaliveInterval {
		cfg.ActivityWindow = cfg.KeepaliveInterval * 3 / 4
	}
	if cfg.ActivityDebounce <= 0 {
		cfg.ActivityDebounce = def.ActivityDebounce
	}
	return cfg
}

// SaveFunc persists the current session state (assemble + save).
type SaveFunc func(ctx context.Context) error

// PingFunc sends the no-payload liveness ping.
type PingFunc func(ctx context.Context) error

// Scheduler runs the two timers. Failures are logged and retried on the
// next tick; they never interrupt the curator. The scheduler stops with
// its session, not on section navigation.
type Scheduler struct {
	cfg  Config
	save SaveFunc
	ping PingFunc

	mu           sync.Mutex
	lastActivity time.Time
	lastMark     time.Time
	visible      bool

	now    func() time.Time // injectable for testing
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a scheduler. Either func may be nil to disable that timer.
func New(cfg Config, save SaveFunc, ping PingFunc) *Scheduler {
	return &Scheduler{
		cfg:     applyDefaults(cfg),
		save:    save,
		ping:    ping,
		visible: true,
		now:     time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (s *Scheduler) WithNow(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Start launches both timers. Stop or ctx cancellation ends them.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		autosave := time.NewTicker(s.cfg.AutosaveInterval)
		keepalive := time.NewTicker(s.cfg.KeepaliveInterval)
		defer autosave.Stop()
		defer keepalive.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-autosave.C:
				s.autosaveTick(ctx)
			case <-keepalive.C:
				s.keepaliveTick(ctx)
			}
		}
	}()
}

// Stop cancels both timers and waits for the loop to exit.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

// MarkActivity records user interaction (pointer, key, scroll, touch).
// Writes are debounced so high-frequency events do not thrash the lock.
func (s *Scheduler) MarkActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if !s.lastMark.IsZero() && now.Sub(s.lastMark) < s.cfg.ActivityDebounce {
		return
	}
	s.lastMark = now
	s.lastActivity = now
}

// SetVisible records page/tab visibility as reported by the client.
func (s *Scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
}

// autosaveTick saves unconditionally; errors are logged and retried on
// the next tick.
func (s *Scheduler) autosaveTick(ctx context.Context) {
	if s.save == nil {
		return
	}
	if err := s.save(ctx); err != nil {
		zap.L().Warn("autosave: save failed, will retry next tick", zap.Error(err))
	}
}

// keepaliveTick pings only when the tab is visible and interaction
// happened within the trailing activity window; otherwise the tick is a
// no-op.
func (s *Scheduler) keepaliveTick(ctx context.Context) {
	if s.ping == nil || !s.keepaliveDue() {
		return
	}
	if err := s.ping(ctx); err != nil {
		zap.L().Warn("autosave: keepalive failed", zap.Error(err))
	}
}

func (s *Scheduler) keepaliveDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		return false
	}
	if s.lastActivity.IsZero() {
		return false
	}
	return s.now().Sub(s.lastActivity) < s.cfg.ActivityWindow
}
