package event

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// testLogger records warn messages.
type testLogger struct {
	mu       sync.Mutex
	warnings []string
}

func (l *testLogger) Warn(msg string, keyvals ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *testLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}

// collectHook records handled events.
type collectHook struct {
	baseHook
	mu       sync.Mutex
	handled  []Event
	handleFn func(Event) error
}

func newCollectHook(name string, events []EventType, blocking bool) *collectHook {
	return &collectHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
	}
}

func (h *collectHook) Handle(ev Event) error {
	if h.handleFn != nil {
		return h.handleFn(ev)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev)
	return nil
}

func (h *collectHook) events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]Event, len(h.handled))
	copy(cp, h.handled)
	return cp
}

func TestBus_Emit_BlockingHook(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("test", []EventType{MessageSent}, true)
	bus.Register(hook)

	ev := NewEvent(MessageSent, map[string]interface{}{"session": "s1"})
	if err := bus.Emit(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handled := hook.events()
	if len(handled) != 1 {
		t.Fatalf("expected 1 handled event, got %d", len(handled))
	}
	if handled[0].Type != MessageSent {
		t.Errorf("expected MessageSent, got %s", handled[0].Type)
	}
}

func TestBus_Emit_NonBlockingHook(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("async", []EventType{PersistenceDegraded}, false)
	bus.Register(hook)

	bus.Emit(NewEvent(PersistenceDegraded, nil))

	// Give the goroutine time to execute.
	time.Sleep(50 * time.Millisecond)

	handled := hook.events()
	if len(handled) != 1 {
		t.Fatalf("expected 1 handled event, got %d", len(handled))
	}
}

func TestBus_Emit_BlockingHookError(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("failing", nil, true)
	hook.handleFn = func(Event) error { return fmt.Errorf("boom") }
	bus.Register(hook)

	if err := bus.Emit(NewEvent(SessionOpened, nil)); err == nil {
		t.Fatal("expected error from blocking hook")
	}
}

func TestBus_Emit_NonBlockingHookErrorLogged(t *testing.T) {
	logger := &testLogger{}
	bus := NewBus(logger)
	hook := newCollectHook("failing-async", nil, false)
	hook.handleFn = func(Event) error { return fmt.Errorf("boom") }
	bus.Register(hook)

	bus.Emit(NewEvent(TransportFailed, nil))
	time.Sleep(50 * time.Millisecond)

	if logger.warnCount() != 1 {
		t.Errorf("expected 1 warning, got %d", logger.warnCount())
	}
}

func TestBus_Emit_TypeFilter(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("filtered", []EventType{MemoryFolded}, true)
	bus.Register(hook)

	bus.Emit(NewEvent(MessageSent, nil))
	bus.Emit(NewEvent(MemoryFolded, nil))

	handled := hook.events()
	if len(handled) != 1 || handled[0].Type != MemoryFolded {
		t.Fatalf("expected only MemoryFolded, got %v", handled)
	}
}

func TestBus_Disabled(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("disabled", nil, true)
	bus.Register(hook)
	bus.SetEnabled(false)

	bus.Emit(NewEvent(MessageSent, nil))
	if len(hook.events()) != 0 {
		t.Error("disabled bus should not dispatch")
	}
}

func TestBus_NilSafe(t *testing.T) {
	var bus *Bus
	bus.Register(newCollectHook("x", nil, true))
	if err := bus.Emit(NewEvent(MessageSent, nil)); err != nil {
		t.Error("nil bus should be a no-op")
	}
}

func TestAuditHook_WritesJSONL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit", "events.jsonl")

	hook := NewAuditHook("audit", path, nil, true)
	if err := hook.Handle(NewEvent(SessionOpened, map[string]interface{}{"session": "s1"})); err != nil {
		t.Fatal(err)
	}
	if err := hook.Handle(NewEvent(SessionClosed, map[string]interface{}{"session": "s1"})); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var ev Event
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != SessionOpened {
		t.Errorf("expected session.opened, got %s", ev.Type)
	}
}

func TestFuncHook(t *testing.T) {
	var got EventType
	hook := NewFuncHook("fn", []EventType{SessionDegraded}, true, func(ev Event) error {
		got = ev.Type
		return nil
	})

	bus := NewBus(nil)
	bus.Register(hook)
	bus.Emit(NewEvent(SessionDegraded, nil))

	if got != SessionDegraded {
		t.Errorf("expected session.degraded, got %s", got)
	}
}
