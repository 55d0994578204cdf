// internal/notify/display/controller_test.go
package display

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"notification-pipeline/internal/common/logger"
	"notification-pipeline/internal/models"
	"notification-pipeline/internal/notify/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type recordingPresenter struct {
	mu     sync.Mutex
	shown  []string
	hidden []string
}

func (p *recordingPresenter) Show(n models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown = append(p.shown, n.ID)
}

func (p *recordingPresenter) Hide(n models.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hidden = append(p.hidden, n.ID)
}

func (p *recordingPresenter) shownIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.shown))
	copy(out, p.shown)
	return out
}

func (p *recordingPresenter) hiddenIDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.hidden))
	copy(out, p.hidden)
	return out
}

type fakeFetcher struct {
	mu    sync.Mutex
	list  []models.Notification
	err   error
	calls int
}

func (f *fakeFetcher) List(context.Context) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testNotification(id string) models.Notification {
	return models.Notification{
		ID:                   id,
		ToID:                 "user-1",
		NotificationTypeID:   models.TypeGeneralInfo,
		NotificationStatusID: models.StatusUnseen,
	}
}

type fixture struct {
	store     *store.Store
	ingest    store.IngestWriter
	presenter *recordingPresenter
	fetcher   *fakeFetcher
	ctrl      *Controller
}

// fastConfig keeps cycles short enough that tests complete quickly while the
// phases stay observable.
func fastConfig() *Config {
	return &Config{DwellTime: 40 * time.Millisecond, ExitDuration: 15 * time.Millisecond}
}

func newFixture(t *testing.T, cfg *Config) *fixture {
	s := store.New(nil, logger.NewTestLogger(t))
	reader, ingestWriter, displayWriter := s.Handles()

	presenter := &recordingPresenter{}
	fetcher := &fakeFetcher{}
	ctrl := NewController(cfg, reader, displayWriter, presenter, fetcher, logger.NewTestLogger(t), nil)

	return &fixture{store: s, ingest: ingestWriter, presenter: presenter, fetcher: fetcher, ctrl: ctrl}
}

func (f *fixture) run(t *testing.T) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.ctrl.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("controller did not stop on context cancellation")
		}
	})
	return cancel
}

// ==========================
// Display Cycle
// ==========================

func TestController_FullCycle(t *testing.T) {
	f := newFixture(t, fastConfig())
	f.run(t)

	f.ingest.AddNotification(context.Background(), testNotification("n-1"))

	// shown, then hidden after the dwell, then cleared after the exit period
	assert.Eventually(t, func() bool {
		return len(f.presenter.shownIDs()) == 1 && len(f.presenter.hiddenIDs()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, ok := f.store.Current()
		return !ok
	}, 2*time.Second, 5*time.Millisecond, "display slot must be empty after the cycle")

	assert.Equal(t, []string{"n-1"}, f.presenter.shownIDs())
	assert.Equal(t, []string{"n-1"}, f.presenter.hiddenIDs())
}

func TestController_FIFODisplayOrder(t *testing.T) {
	f := newFixture(t, fastConfig())
	f.run(t)

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		f.ingest.AddNotification(ctx, testNotification(fmt.Sprintf("n-%d", i)))
	}

	assert.Eventually(t, func() bool {
		return len(f.presenter.shownIDs()) == 3
	}, 3*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"n-1", "n-2", "n-3"}, f.presenter.shownIDs())
}

func TestController_IdleUntilNotificationArrives(t *testing.T) {
	f := newFixture(t, fastConfig())
	f.run(t)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, f.presenter.shownIDs())
	assert.Equal(t, 0, f.fetcher.callCount())

	f.ingest.AddNotification(context.Background(), testNotification("late"))

	assert.Eventually(t, func() bool {
		return len(f.presenter.shownIDs()) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

// ==========================
// Dismissal / Preemption
// ==========================

func TestController_DismissAbortsCycle(t *testing.T) {
	// long dwell so the dismissal lands mid-phase
	f := newFixture(t, &Config{DwellTime: 5 * time.Second, ExitDuration: 15 * time.Millisecond})
	f.run(t)

	ctx := context.Background()
	f.ingest.AddNotification(ctx, testNotification("n-1"))

	assert.Eventually(t, func() bool {
		return len(f.presenter.shownIDs()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	f.ctrl.Dismiss(ctx)

	assert.Eventually(t, func() bool {
		_, ok := f.store.Current()
		return !ok
	}, 2*time.Second, 5*time.Millisecond)

	// the aborted cycle never runs its exit phase or advances the queue
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, f.presenter.hiddenIDs())
	assert.Equal(t, 0, f.fetcher.callCount())
}

func TestWaitPhase_PreemptedOnIdentityChange(t *testing.T) {
	f := newFixture(t, fastConfig())
	ctx := context.Background()

	f.ingest.AddNotification(ctx, testNotification("n-1"))
	drainChanged(f.store)

	result := make(chan error, 1)
	go func() {
		result <- f.ctrl.waitPhase(ctx, 5*time.Second, "n-1")
	}()

	time.Sleep(20 * time.Millisecond)
	f.ctrl.Dismiss(ctx)

	select {
	case err := <-result:
		assert.ErrorIs(t, err, errPreempted)
	case <-time.After(2 * time.Second):
		t.Fatal("waitPhase did not observe the identity change")
	}
}

func TestWaitPhase_SameIdentityKeepsWaiting(t *testing.T) {
	f := newFixture(t, fastConfig())
	ctx := context.Background()

	f.ingest.AddNotification(ctx, testNotification("n-1"))
	drainChanged(f.store)

	result := make(chan error, 1)
	go func() {
		result <- f.ctrl.waitPhase(ctx, 80*time.Millisecond, "n-1")
	}()

	// a queue append behind the visible item must not cut the dwell short
	time.Sleep(20 * time.Millisecond)
	f.ingest.AddNotification(ctx, testNotification("n-2"))

	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waitPhase did not finish")
	}

	current, ok := f.store.Current()
	require.True(t, ok)
	assert.Equal(t, "n-1", current.ID)
}

func drainChanged(s *store.Store) {
	select {
	case <-s.Changed():
	default:
	}
}

// ==========================
// History Refetch
// ==========================

func TestController_RefetchesHistoryAfterCycle(t *testing.T) {
	f := newFixture(t, fastConfig())
	f.fetcher.list = []models.Notification{testNotification("server-1"), testNotification("server-2")}
	f.run(t)

	f.ingest.AddNotification(context.Background(), testNotification("n-1"))

	assert.Eventually(t, func() bool {
		return f.fetcher.callCount() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		history := f.store.History()
		return len(history) == 2 && history[0].ID == "server-1"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestController_FetchFailureDoesNotStallPipeline(t *testing.T) {
	f := newFixture(t, fastConfig())
	f.fetcher.err = fmt.Errorf("backend unavailable")
	f.run(t)

	ctx := context.Background()
	f.ingest.AddNotification(ctx, testNotification("n-1"))
	f.ingest.AddNotification(ctx, testNotification("n-2"))

	// both cycles complete despite the failing refetch
	assert.Eventually(t, func() bool {
		return len(f.presenter.shownIDs()) == 2
	}, 3*time.Second, 5*time.Millisecond)
}
