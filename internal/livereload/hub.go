package livereload

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberBuffer bounds how many undelivered reload events a slow
// subscriber can accumulate before new events are dropped for it. A
// live-reload client that falls this far behind will pick up the current
// state on its next full page load anyway.
const subscriberBuffer = 8

// Hub fans debounced events out to subscribers, each over its own buffered
// channel. A send to a full channel is dropped rather than blocking the
// broadcaster, matching the content watcher's own broadcast discipline.
type Hub struct {
	logger *slog.Logger

	mu          sync.Mutex
	subscribers map[string]chan Event
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:      logger,
		subscribers: make(map[string]chan Event),
	}
}

// Subscribe registers a new subscriber and returns its event channel and a
// handle to pass to Unsubscribe.
func (h *Hub) Subscribe() (id string, events <-chan Event) {
	ch := make(chan Event, subscriberBuffer)
	sid := uuid.NewString()

	h.mu.Lock()
	h.subscribers[sid] = ch
	h.mu.Unlock()

	return sid, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()

	if ok {
		close(ch)
	}
}

// Broadcast delivers ev to every current subscriber, dropping it for any
// subscriber whose channel is full.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			h.logger.Debug("dropping reload event for slow subscriber",
				"subscriber", id, "path", ev.Path)
		}
	}
}

// Run pumps debounced events from d into h until stop is closed. poll is
// the interval at which pending events are checked for their deadline.
func (h *Hub) Run(d *Debouncer, poll time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, ev := range d.DrainReady() {
				h.Broadcast(ev)
			}
		}
	}
}
