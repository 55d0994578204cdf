// internal/notify/store/store_test.go
package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"notification-pipeline/internal/common/logger"
	"notification-pipeline/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helpers
// ==========================

type spyPersister struct {
	mu    sync.Mutex
	saves []Snapshot
	snap  *Snapshot
	err   error
}

func (p *spyPersister) Save(_ context.Context, s Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saves = append(p.saves, s)
	return nil
}

func (p *spyPersister) Load(context.Context) (Snapshot, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return Snapshot{}, false, p.err
	}
	if p.snap == nil {
		return Snapshot{}, false, nil
	}
	return *p.snap, true, nil
}

func (p *spyPersister) saveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func testNotification(id string) models.Notification {
	return models.Notification{
		ID:                   id,
		ToID:                 "user-1",
		CreatedAt:            "2024-03-01T10:00:00Z",
		ContentJSON:          `{"title":"t","message":"m"}`,
		NotificationTypeID:   models.TypeGeneralInfo,
		NotificationStatusID: models.StatusUnseen,
	}
}

func newTestStore(t *testing.T) (*Store, *spyPersister) {
	p := &spyPersister{}
	return New(p, logger.NewTestLogger(t)), p
}

// ==========================
// Dedup / Promotion
// ==========================

func TestAddNotification_Dedup(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, writer, _ := s.Handles()

	n := testNotification("n-1")
	assert.True(t, writer.AddNotification(ctx, n))
	assert.False(t, writer.AddNotification(ctx, n), "same id must be a no-op")

	// exactly one copy across queue + current
	current, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "n-1", current.ID)
	assert.Empty(t, s.Queue())
	assert.Len(t, s.History(), 1)
}

func TestAddNotification_DedupAgainstQueue(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, writer, _ := s.Handles()

	assert.True(t, writer.AddNotification(ctx, testNotification("n-1")))
	assert.True(t, writer.AddNotification(ctx, testNotification("n-2")))
	assert.False(t, writer.AddNotification(ctx, testNotification("n-2")))

	assert.Len(t, s.Queue(), 1)
}

func TestAddNotification_ImmediatePromotion(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, writer, _ := s.Handles()

	n := testNotification(uuid.New().String())
	writer.AddNotification(ctx, n)

	current, ok := s.Current()
	assert.True(t, ok, "first arrival must be promoted with no delay")
	assert.Equal(t, n.ID, current.ID)
	assert.Empty(t, s.Queue(), "queue must stay empty on immediate promotion")
}

// ==========================
// FIFO Order
// ==========================

func TestNextNotification_FIFOOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, writer, displayWriter := s.Handles()

	// occupy current first
	writer.AddNotification(ctx, testNotification("n-0"))
	for i := 1; i <= 3; i++ {
		writer.AddNotification(ctx, testNotification(fmt.Sprintf("n-%d", i)))
	}

	for i := 1; i <= 3; i++ {
		displayWriter.NextNotification(ctx)
		current, ok := s.Current()
		assert.True(t, ok)
		assert.Equal(t, fmt.Sprintf("n-%d", i), current.ID)
	}

	// queue drained: one more advance clears current
	displayWriter.NextNotification(ctx)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestClearCurrent_DoesNotPromote(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, writer, displayWriter := s.Handles()

	writer.AddNotification(ctx, testNotification("n-1"))
	writer.AddNotification(ctx, testNotification("n-2"))

	displayWriter.ClearCurrent(ctx)

	_, ok := s.Current()
	assert.False(t, ok, "forced dismissal must not advance the queue")
	assert.Len(t, s.Queue(), 1, "queued item stays queued")
}

// ==========================
// History
// ==========================

func TestHistory_NewestFirstAndAppendOnly(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, writer, displayWriter := s.Handles()

	writer.AddNotification(ctx, testNotification("n-1"))
	writer.AddNotification(ctx, testNotification("n-2"))

	history := s.History()
	assert.Equal(t, []string{"n-2", "n-1"}, []string{history[0].ID, history[1].ID})

	// display transitions never remove history entries
	displayWriter.NextNotification(ctx)
	displayWriter.NextNotification(ctx)
	assert.Len(t, s.History(), 2)
}

func TestSetHistory_BulkReplace(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	_, writer, displayWriter := s.Handles()

	writer.AddNotification(ctx, testNotification("local"))

	serverList := []models.Notification{testNotification("s-1"), testNotification("s-2")}
	displayWriter.SetHistory(ctx, serverList)

	history := s.History()
	assert.Len(t, history, 2)
	assert.Equal(t, "s-1", history[0].ID)
}

// ==========================
// Persistence / Signals
// ==========================

func TestMutationsPersistSnapshot(t *testing.T) {
	ctx := context.Background()
	s, persister := newTestStore(t)
	_, writer, displayWriter := s.Handles()

	writer.AddNotification(ctx, testNotification("n-1"))
	writer.AddNotification(ctx, testNotification("n-2"))
	displayWriter.NextNotification(ctx)

	assert.Equal(t, 3, persister.saveCount())

	last := persister.saves[len(persister.saves)-1]
	assert.NotNil(t, last.Current)
	assert.Equal(t, "n-2", last.Current.ID)
	assert.Empty(t, last.Queue)
	assert.Len(t, last.History, 2)
}

func TestPersistFailureKeepsStateValid(t *testing.T) {
	ctx := context.Background()
	p := &spyPersister{err: fmt.Errorf("redis down")}
	s := New(p, logger.NewNoOpLogger())
	_, writer, _ := s.Handles()

	assert.True(t, writer.AddNotification(ctx, testNotification("n-1")))
	_, ok := s.Current()
	assert.True(t, ok, "in-memory state survives persistence failure")
}

func TestChangedSignalFires(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	reader, writer, _ := s.Handles()

	writer.AddNotification(ctx, testNotification("n-1"))

	select {
	case <-reader.Changed():
	default:
		t.Fatal("expected a change signal after AddNotification")
	}
}

// ==========================
// Rehydration / Reconciliation
// ==========================

func TestRehydrate_RestoresSnapshotVerbatim(t *testing.T) {
	ctx := context.Background()
	current := testNotification("cur")
	p := &spyPersister{snap: &Snapshot{
		Queue:   []models.Notification{testNotification("q-1")},
		Current: &current,
		History: []models.Notification{testNotification("h-1")},
	}}
	s := New(p, logger.NewNoOpLogger())

	s.Rehydrate(ctx)

	got, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "cur", got.ID)
	assert.Len(t, s.Queue(), 1)
	assert.Len(t, s.History(), 1)
}

func TestReconcile_DropsServerSeenEntries(t *testing.T) {
	ctx := context.Background()
	current := testNotification("cur")
	p := &spyPersister{snap: &Snapshot{
		Queue:   []models.Notification{testNotification("stale"), testNotification("fresh")},
		Current: &current,
	}}
	s := New(p, logger.NewNoOpLogger())
	s.Rehydrate(ctx)

	stale := testNotification("stale")
	stale.NotificationStatusID = models.StatusSeen
	seenCurrent := testNotification("cur")
	seenCurrent.NotificationStatusID = models.StatusSeen
	fresh := testNotification("fresh")

	s.Reconcile(ctx, []models.Notification{stale, seenCurrent, fresh})

	_, ok := s.Current()
	assert.False(t, ok, "server-seen current must be dropped")

	queue := s.Queue()
	assert.Len(t, queue, 1)
	assert.Equal(t, "fresh", queue[0].ID)

	assert.Len(t, s.History(), 3, "history replaced with server list")
}

func TestReconcile_DropsUnknownEntries(t *testing.T) {
	ctx := context.Background()
	p := &spyPersister{snap: &Snapshot{
		Queue: []models.Notification{testNotification("ghost")},
	}}
	s := New(p, logger.NewNoOpLogger())
	s.Rehydrate(ctx)

	s.Reconcile(ctx, nil)

	assert.Empty(t, s.Queue(), "entries the server no longer knows are dropped")
}
