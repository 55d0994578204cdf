// internal/notify/store/store.go

// Package store is the single source of truth for notification queue state:
// the FIFO queue of not-yet-displayed notifications, the one notification on
// screen, and the session history list. State survives restarts through a
// durable snapshot.
package store

import (
	"context"
	"sync"

	"notification-pipeline/internal/common/logger"
	"notification-pipeline/internal/common/metrics"
	"notification-pipeline/internal/models"
)

// Reader is the read-only handle any component may hold.
type Reader interface {
	Current() (models.Notification, bool)
	Queue() []models.Notification
	History() []models.Notification
	QueueDepth() int
	// Changed signals after every state mutation. The channel is buffered;
	// consumers coalesce missed signals by re-reading state.
	Changed() <-chan struct{}
}

// IngestWriter is the mutation handle owned by the ingestion channel. It is
// the only way notifications enter the store.
type IngestWriter interface {
	// AddNotification admits n unless its id already exists in the queue or
	// matches the current notification. Returns false when deduplicated.
	AddNotification(ctx context.Context, n models.Notification) bool
}

// DisplayWriter is the mutation handle owned by the display controller. It
// is the only way the pipeline advances.
type DisplayWriter interface {
	// NextNotification promotes the queue head to current, or clears current
	// when the queue is empty.
	NextNotification(ctx context.Context)
	// ClearCurrent empties current without promoting the next item.
	ClearCurrent(ctx context.Context)
	// SetHistory bulk-replaces the history list with the authoritative
	// server list.
	SetHistory(ctx context.Context, list []models.Notification)
}

// Persister saves and loads the durable snapshot. The redis implementation
// lives in persistence.go; tests substitute spies.
type Persister interface {
	Save(ctx context.Context, s Snapshot) error
	Load(ctx context.Context) (Snapshot, bool, error)
}

// Snapshot is the persisted slice of store state. Field names match the
// wire casing the web client persisted under.
type Snapshot struct {
	Queue   []models.Notification `json:"queue"`
	Current *models.Notification  `json:"current"`
	History []models.Notification `json:"initialNotifications"`
}

// Store holds the pipeline state behind a mutex. Mutation is only reachable
// through the IngestWriter and DisplayWriter handles handed out by the
// constructor, so ownership is enforced at the interface rather than by
// convention.
type Store struct {
	mu        sync.Mutex
	queue     []models.Notification
	current   *models.Notification
	history   []models.Notification
	persister Persister
	logger    logger.Logger
	changed   chan struct{}
}

func New(persister Persister, log logger.Logger) *Store {
	return &Store{
		persister: persister,
		logger:    log.WithFields(map[string]interface{}{"component": "store"}),
		changed:   make(chan struct{}, 1),
	}
}

// Handles returns the three access handles. The caller hands the
// IngestWriter to the ingestion channel and the DisplayWriter to the display
// controller, and nothing else can mutate the store.
func (s *Store) Handles() (Reader, IngestWriter, DisplayWriter) {
	return s, ingestHandle{s}, displayHandle{s}
}

type ingestHandle struct{ s *Store }

func (h ingestHandle) AddNotification(ctx context.Context, n models.Notification) bool {
	return h.s.addNotification(ctx, n)
}

type displayHandle struct{ s *Store }

func (h displayHandle) NextNotification(ctx context.Context) { h.s.nextNotification(ctx) }
func (h displayHandle) ClearCurrent(ctx context.Context)     { h.s.clearCurrent(ctx) }
func (h displayHandle) SetHistory(ctx context.Context, list []models.Notification) {
	h.s.setHistory(ctx, list)
}

// ==========================
// Reads
// ==========================

func (s *Store) Current() (models.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.Notification{}, false
	}
	return *s.current, true
}

func (s *Store) Queue() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.queue))
	copy(out, s.queue)
	return out
}

func (s *Store) History() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Store) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

// ==========================
// Mutations
// ==========================

func (s *Store) addNotification(ctx context.Context, n models.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Dedup contract: a given id appears at most once across queue + current.
	if s.current != nil && s.current.ID == n.ID {
		return false
	}
	for _, queued := range s.queue {
		if queued.ID == n.ID {
			return false
		}
	}

	// History is newest first and append-only for the session.
	s.history = append([]models.Notification{n}, s.history...)

	// Immediate promotion when nothing is on screen.
	if s.current == nil {
		s.current = &n
	} else {
		s.queue = append(s.queue, n)
	}

	s.afterMutation(ctx)
	return true
}

func (s *Store) nextNotification(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) > 0 {
		head := s.queue[0]
		s.queue = s.queue[1:]
		s.current = &head
	} else {
		s.current = nil
	}

	s.afterMutation(ctx)
}

func (s *Store) clearCurrent(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.afterMutation(ctx)
}

func (s *Store) setHistory(ctx context.Context, list []models.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = make([]models.Notification, len(list))
	copy(s.history, list)
	s.afterMutation(ctx)
}

// afterMutation persists the snapshot, updates gauges and signals watchers.
// Called with the lock held.
func (s *Store) afterMutation(ctx context.Context) {
	metrics.QueueDepth.Set(float64(len(s.queue)))

	if s.persister != nil {
		if err := s.persister.Save(ctx, s.snapshotLocked()); err != nil {
			// Persistence is best effort; the in-memory state stays valid.
			s.logger.WithError(err).Error("snapshot save failed", nil)
		}
	}

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Queue:   make([]models.Notification, len(s.queue)),
		History: make([]models.Notification, len(s.history)),
	}
	copy(snap.Queue, s.queue)
	copy(snap.History, s.history)
	if s.current != nil {
		cur := *s.current
		snap.Current = &cur
	}
	return snap
}

// ==========================
// Rehydration / Reconciliation
// ==========================

// Rehydrate loads the persisted snapshot verbatim. A missing snapshot leaves
// the store empty; a corrupt one is logged and discarded.
func (s *Store) Rehydrate(ctx context.Context) {
	if s.persister == nil {
		return
	}

	snap, found, err := s.persister.Load(ctx)
	if err != nil {
		s.logger.WithError(err).Error("snapshot load failed", nil)
		return
	}
	if !found {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = snap.Queue
	s.current = snap.Current
	s.history = snap.History
	metrics.QueueDepth.Set(float64(len(s.queue)))

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Reconcile diffs rehydrated state against the authoritative server list:
// queued or current entries the server already marks seen, or no longer
// knows, are dropped so they cannot resurface after a reload-before-dismissal.
// The history list is replaced with the server's.
func (s *Store) Reconcile(ctx context.Context, serverList []models.Notification) {
	statusByID := make(map[string]int, len(serverList))
	for _, n := range serverList {
		statusByID[n.ID] = n.NotificationStatusID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.queue[:0]
	for _, n := range s.queue {
		if status, ok := statusByID[n.ID]; ok && status != models.StatusSeen {
			kept = append(kept, n)
		}
	}
	s.queue = kept

	if s.current != nil {
		if status, ok := statusByID[s.current.ID]; !ok || status == models.StatusSeen {
			s.current = nil
		}
	}

	s.history = make([]models.Notification, len(serverList))
	copy(s.history, serverList)

	s.afterMutation(ctx)
}
