package store

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adam936936/bagua-ai/internal/backend"
	"github.com/adam936936/bagua-ai/internal/storage"
)

type toastRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (r *toastRecorder) Toast(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *toastRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func writeEnvelope(w http.ResponseWriter, code int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"code":    code,
		"message": message,
		"data":    data,
	})
}

// env wires a full store stack against a fake backend. calls counts requests
// per path.
type env struct {
	store   *storage.Memory
	toasts  *toastRecorder
	session *Session
	fortune *Fortune
	vip     *Vip

	mu    sync.Mutex
	calls map[string]int
}

func newEnv(t *testing.T, routes map[string]http.HandlerFunc) *env {
	t.Helper()

	e := &env{
		store:  storage.NewMemory(),
		toasts: &toastRecorder{},
		calls:  map[string]int{},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		e.calls[r.URL.Path]++
		e.mu.Unlock()

		for prefix, handler := range routes {
			if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/") {
				handler(w, r)
				return
			}
		}
		// unrouted paths answer an empty success so best-effort refreshes
		// do not log noise
		writeEnvelope(w, 200, "", nil)
	}))
	t.Cleanup(server.Close)

	client := backend.New(backend.Config{
		BaseURL:  server.URL,
		Storage:  e.store,
		Notifier: e.toasts,
		Logger:   zerolog.Nop(),
	})

	e.session = NewSession(client, e.store, zerolog.Nop())
	e.fortune = NewFortune(client, e.session, e.store, e.toasts, zerolog.Nop())
	e.vip = NewVip(client, e.session, e.store, zerolog.Nop())
	return e
}

func (e *env) callCount(prefix string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for path, c := range e.calls {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			n += c
		}
	}
	return n
}

func (e *env) totalCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		n += c
	}
	return n
}

// fakeClock returns a clock that advances one millisecond per reading.
func fakeClock(start time.Time) func() time.Time {
	var ticks int64
	return func() time.Time {
		n := atomic.AddInt64(&ticks, 1)
		return start.Add(time.Duration(n) * time.Millisecond)
	}
}
