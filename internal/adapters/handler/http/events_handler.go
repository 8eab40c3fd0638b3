package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vncsmyrnk/voteportal/internal/core/domain"
	"github.com/vncsmyrnk/voteportal/internal/core/services"
)

const heartbeatInterval = 30 * time.Second

type recordEvent struct {
	key  string
	data json.RawMessage
}

type EventsHandler struct {
	store *services.Store
}

func NewEventsHandler(store *services.Store) *EventsHandler {
	return &EventsHandler{
		store: store,
	}
}

// visibleTo reports whether tab may see changes of key. The voter roster
// carries every login uid, so only admin tabs get it.
func visibleTo(tab *services.Tab, key string) bool {
	if key != domain.KeyVoters {
		return true
	}
	return tab != nil && tab.Auth.Identity().IsAdmin()
}

// Stream sends a server-sent event every time one of the record lists
// changes. The event name is the store key and the data its new value.
// The tab is checked on every event since it may log in or out while
// the stream is open.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	tab := tabFrom(r)
	events := make(chan recordEvent, 16)
	for _, key := range domain.RecordKeys {
		key := key
		cancel := services.Subscribe(h.store, key, json.RawMessage("[]"), func(v json.RawMessage) {
			select {
			case events <- recordEvent{key: key, data: v}:
			default:
			}
		})
		defer cancel()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprint(w, "event: connected\ndata: {}\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case ev := <-events:
			if !visibleTo(tab, ev.key) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.key, ev.data)
			flusher.Flush()
		}
	}
}
