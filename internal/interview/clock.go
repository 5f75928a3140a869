package interview

import (
	"sync"
	"time"
)

const (
	DefaultTotalDuration  = 45 * time.Minute
	DefaultWarnThreshold  = 5 * time.Minute
	DefaultForceThreshold = 2 * time.Minute
	// fallbackPhaseBudget applies to phases missing from the budget table.
	fallbackPhaseBudget = 5 * time.Minute
)

// PhaseBudget is the maximum time a phase may occupy.
type PhaseBudget struct {
	Phase       Phase
	MaxDuration time.Duration
}

// PhaseBudgets is the static, shared budget table.
type PhaseBudgets map[Phase]time.Duration

// DefaultPhaseBudgets returns the stock 45 minute interview layout.
func DefaultPhaseBudgets() PhaseBudgets {
	return PhaseBudgets{
		PhaseOpening:         3 * time.Minute,
		PhaseTechnicalBasic:  20 * time.Minute,
		PhaseProjectDeepDive: 12 * time.Minute,
		PhaseSystemDesign:    8 * time.Minute,
		PhaseClosing:         2 * time.Minute,
	}
}

// Budget returns the entry for phase as a PhaseBudget.
func (b PhaseBudgets) Budget(phase Phase) PhaseBudget {
	d, ok := b[phase]
	if !ok || d <= 0 {
		d = fallbackPhaseBudget
	}
	return PhaseBudget{Phase: phase, MaxDuration: d}
}

// ClockConfig configures a Clock.
type ClockConfig struct {
	Total          time.Duration
	WarnThreshold  time.Duration
	ForceThreshold time.Duration
	Budgets        PhaseBudgets
	Now            func() time.Time
}

// Clock tracks elapsed and remaining interview time.
type Clock struct {
	mu      sync.Mutex
	started time.Time
	total   time.Duration
	warn    time.Duration
	force   time.Duration
	budgets PhaseBudgets
	now     func() time.Time
}

func NewClock(cfg ClockConfig) *Clock {
	if cfg.Total <= 0 {
		cfg.Total = DefaultTotalDuration
	}
	if cfg.WarnThreshold <= 0 {
		cfg.WarnThreshold = DefaultWarnThreshold
	}
	if cfg.ForceThreshold <= 0 {
		cfg.ForceThreshold = DefaultForceThreshold
	}
	if cfg.Budgets == nil {
		cfg.Budgets = DefaultPhaseBudgets()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Clock{
		total:   cfg.Total,
		warn:    cfg.WarnThreshold,
		force:   cfg.ForceThreshold,
		budgets: cfg.Budgets,
		now:     cfg.Now,
	}
}

// Start records the interview start time. Only the first call has an effect.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.IsZero() {
		c.started = c.now()
	}
}

// StartedAt returns the recorded start time, zero before Start.
func (c *Clock) StartedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Now returns the current time of the clock's time source.
func (c *Clock) Now() time.Time {
	return c.now()
}

func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started.IsZero() {
		return 0
	}
	if d := c.now().Sub(c.started); d > 0 {
		return d
	}
	return 0
}

func (c *Clock) ElapsedMinutes() float64 {
	return c.Elapsed().Minutes()
}

func (c *Clock) Remaining() time.Duration {
	if r := c.total - c.Elapsed(); r > 0 {
		return r
	}
	return 0
}

func (c *Clock) Total() time.Duration {
	return c.total
}

func (c *Clock) PhaseBudget(phase Phase) time.Duration {
	return c.budgets.Budget(phase).MaxDuration
}

// ShouldWarn reports that the interview is close to its end.
func (c *Clock) ShouldWarn() bool {
	return c.Remaining() < c.warn
}

// ShouldForceAdvance reports that the remaining time only fits the closing phase.
func (c *Clock) ShouldForceAdvance() bool {
	return c.Remaining() < c.force
}
