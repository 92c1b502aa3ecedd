package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bannergen/internal/domain"
)

const subscriberBuffer = 16

// Hub fans task status updates out to push subscribers. One watcher goroutine
// per observed task polls the repository at a fixed cadence, broadcasts each
// snapshot to every subscriber and shuts down once the task reaches a
// terminal state.
type Hub struct {
	repo     domain.TaskRepository
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	watchers map[string]*watcher
	closed   bool
}

type watcher struct {
	taskID string
	stop   chan struct{}

	mu   sync.Mutex
	subs map[chan domain.StatusSnapshot]struct{}
	done bool
}

func NewHub(repo domain.TaskRepository, interval time.Duration, logger zerolog.Logger) *Hub {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Hub{
		repo:     repo,
		interval: interval,
		logger:   logger,
		watchers: make(map[string]*watcher),
	}
}

// Snapshot returns the current client-facing view of a task.
func (h *Hub) Snapshot(ctx context.Context, taskID string) (domain.StatusSnapshot, error) {
	task, err := h.repo.GetByID(ctx, taskID)
	if err != nil {
		return domain.StatusSnapshot{}, err
	}
	return domain.Snapshot(task), nil
}

// Subscribe registers for push updates on a task. The returned channel is
// closed after the terminal snapshot has been delivered or when cancel is
// called. Slow subscribers have intermediate snapshots dropped rather than
// stalling the watcher; the terminal snapshot is always delivered.
func (h *Hub) Subscribe(taskID string) (<-chan domain.StatusSnapshot, func()) {
	ch := make(chan domain.StatusSnapshot, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	w, ok := h.watchers[taskID]
	if !ok {
		w = &watcher{
			taskID: taskID,
			stop:   make(chan struct{}),
			subs:   make(map[chan domain.StatusSnapshot]struct{}),
		}
		h.watchers[taskID] = w
		go h.watch(w)
	}
	h.mu.Unlock()

	if !w.add(ch) {
		// Watcher finished between lookup and registration.
		close(ch)
		return ch, func() {}
	}

	cancel := func() { w.remove(ch) }
	return ch, cancel
}

// Close stops every watcher. In-flight subscribers see their channels closed.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	watchers := make([]*watcher, 0, len(h.watchers))
	for _, w := range h.watchers {
		watchers = append(watchers, w)
	}
	h.mu.Unlock()

	for _, w := range watchers {
		w.close()
	}
}

func (h *Hub) watch(w *watcher) {
	defer h.detach(w)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		snap, err := h.Snapshot(context.Background(), w.taskID)
		if err != nil {
			// Missing or expired tasks end the watch; the final known
			// snapshot (if any) was already delivered.
			h.logger.Debug().Err(err).Str("task_id", w.taskID).Msg("status watch ended")
			w.close()
			return
		}
		// Every tick emits, even without a change, so clients see a steady
		// heartbeat while a task sits in the queue.
		w.broadcast(snap)
		if snap.Terminal() {
			w.finish(snap)
			return
		}
		select {
		case <-ticker.C:
		case <-w.stop:
			return
		}
	}
}

func (h *Hub) detach(w *watcher) {
	h.mu.Lock()
	if h.watchers[w.taskID] == w {
		delete(h.watchers, w.taskID)
	}
	h.mu.Unlock()
}

func (w *watcher) add(ch chan domain.StatusSnapshot) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return false
	}
	w.subs[ch] = struct{}{}
	return true
}

func (w *watcher) remove(ch chan domain.StatusSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.subs[ch]; ok {
		delete(w.subs, ch)
		close(ch)
	}
}

func (w *watcher) broadcast(snap domain.StatusSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// finish delivers the terminal snapshot to every subscriber and closes all
// channels. If a subscriber's buffer is full the oldest buffered snapshot is
// evicted so the terminal one always fits.
func (w *watcher) finish(snap domain.StatusSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return
	}
	w.done = true
	for ch := range w.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
		close(ch)
	}
	w.subs = nil
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return
	}
	w.done = true
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	for ch := range w.subs {
		close(ch)
	}
	w.subs = nil
}
