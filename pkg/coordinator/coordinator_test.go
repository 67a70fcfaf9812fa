package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/telemetry"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/breaker"
)

// fakeClock is a controllable external.Clock for tests that never need to
// actually block.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time                         { return f.now }
func (f *fakeClock) After(d time.Duration) <-chan time.Time { return make(chan time.Time) }

func newTestCoordinator(clock *fakeClock) *Coordinator {
	cfg := &config.Config{
		PeerUnavailableBudget:  5 * time.Minute,
		MonitoringCycleLockTTL: 30 * time.Minute,
		PeerURLs:               map[config.Role]string{},
	}
	c := New(cfg, nil, breaker.NewRegistry(nil), clock, telemetry.NewNoopLogger(), telemetry.NewNoopMetrics())
	c.unavailableSince = make(map[config.Role]time.Time)
	return c
}

func TestBudgetExceeded_FalseWhenPeerNeverMarkedUnavailable(t *testing.T) {
	c := newTestCoordinator(&fakeClock{now: time.Now()})
	assert.False(t, c.budgetExceeded(config.RoleRetrieval))
}

func TestBudgetExceeded_FalseWithinBudget(t *testing.T) {
	start := time.Now()
	clock := &fakeClock{now: start}
	c := newTestCoordinator(clock)

	c.markUnavailable(config.RoleFilter)
	clock.now = start.Add(1 * time.Minute)

	assert.False(t, c.budgetExceeded(config.RoleFilter))
}

func TestBudgetExceeded_TrueAfterBudgetElapsed(t *testing.T) {
	start := time.Now()
	clock := &fakeClock{now: start}
	c := newTestCoordinator(clock)

	c.markUnavailable(config.RoleFilter)
	clock.now = start.Add(10 * time.Minute)

	assert.True(t, c.budgetExceeded(config.RoleFilter))
}

func TestMarkAvailable_ResetsUnavailabilityClock(t *testing.T) {
	start := time.Now()
	clock := &fakeClock{now: start}
	c := newTestCoordinator(clock)

	c.markUnavailable(config.RoleAlert)
	clock.now = start.Add(10 * time.Minute)
	c.markAvailable(config.RoleAlert)

	assert.False(t, c.budgetExceeded(config.RoleAlert))
}

func TestMarkUnavailable_DoesNotResetAnExistingTimestamp(t *testing.T) {
	start := time.Now()
	clock := &fakeClock{now: start}
	c := newTestCoordinator(clock)

	c.markUnavailable(config.RoleFilter)
	clock.now = start.Add(4 * time.Minute)
	c.markUnavailable(config.RoleFilter) // should be a no-op, not reset to now

	clock.now = start.Add(6 * time.Minute)
	assert.True(t, c.budgetExceeded(config.RoleFilter))
}

func TestStaleAfter_MatchesMonitoringCycleLockTTL(t *testing.T) {
	c := newTestCoordinator(&fakeClock{now: time.Now()})
	assert.Equal(t, 30*time.Minute, c.StaleAfter())
}
