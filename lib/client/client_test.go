package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unikv/unikv/lib/backend"
	"github.com/unikv/unikv/lib/backend/memory"
	"github.com/unikv/unikv/lib/codec"
	"github.com/unikv/unikv/lib/hook"
)

// --------------------------------------------------------------------------
// Test backends
// --------------------------------------------------------------------------

// plainBackend implements only the core Backend interface, no optional
// capabilities, to exercise the client's fallback paths.
type plainBackend struct {
	mu      sync.Mutex
	data    map[string][]byte
	setErr  map[string]error // per-key injected failures
	setOps  int
	deleted int
}

func newPlainBackend() *plainBackend {
	return &plainBackend{
		data:   make(map[string][]byte),
		setErr: make(map[string]error),
	}
}

func (p *plainBackend) SetRaw(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setOps++
	if err := p.setErr[key]; err != nil {
		return err
	}
	p.data[key] = append([]byte(nil), value...)
	return nil
}

func (p *plainBackend) GetRaw(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	value, ok := p.data[key]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (p *plainBackend) Delete(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted++
	delete(p.data, key)
	return nil
}

func (p *plainBackend) List(_ context.Context, prefix string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var keys []string
	for key := range p.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (p *plainBackend) Close() error { return nil }

// --------------------------------------------------------------------------
// Single-key operations
// --------------------------------------------------------------------------

type account struct {
	Owner   string
	Balance int
}

func TestSetGetRoundTrip(t *testing.T) {
	c := New(memory.New(nil))
	defer c.Close()
	ctx := context.Background()

	want := account{Owner: "alice", Balance: 100}
	if err := c.Set(ctx, "account/1", want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got account
	if err := c.Get(ctx, "account/1", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}

	// typed helper
	got2, err := GetAs[account](ctx, c, "account/1")
	if err != nil {
		t.Fatalf("GetAs failed: %v", err)
	}
	if got2 != want {
		t.Errorf("Expected %+v, got %+v", want, got2)
	}
}

func TestGetNotFound(t *testing.T) {
	c := New(memory.New(nil))
	defer c.Close()

	var got account
	err := c.Get(context.Background(), "missing", &got)
	if !IsNotFound(err) {
		t.Fatalf("Expected not-found error, got %v", err)
	}

	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindNotFound {
		t.Errorf("Expected KindNotFound, got %v", err)
	}
}

func TestEmptyKeyValidation(t *testing.T) {
	be := newPlainBackend()
	c := New(be)
	defer c.Close()
	ctx := context.Background()

	checks := map[string]error{
		"Set":    c.Set(ctx, "", account{}),
		"SetRaw": c.SetRaw(ctx, "", []byte("x")),
		"Delete": c.Delete(ctx, ""),
	}
	if _, err := c.GetRaw(ctx, ""); err == nil {
		t.Errorf("GetRaw with empty key should fail")
	} else {
		checks["GetRaw"] = err
	}

	for op, err := range checks {
		var ce *Error
		if !errors.As(err, &ce) || ce.Kind != KindValidation {
			t.Errorf("%s with empty key: expected KindValidation, got %v", op, err)
		}
	}

	// validation happens before any backend I/O
	if be.setOps != 0 {
		t.Errorf("Expected no backend writes for rejected keys, got %d", be.setOps)
	}
}

func TestSetRawBypassesCodec(t *testing.T) {
	c := New(memory.New(nil))
	defer c.Close()
	ctx := context.Background()

	raw := []byte{0x00, 0x01, 0xff} // not valid JSON
	if err := c.SetRaw(ctx, "raw", raw); err != nil {
		t.Fatalf("SetRaw failed: %v", err)
	}

	got, err := c.GetRaw(ctx, "raw")
	if err != nil {
		t.Fatalf("GetRaw failed: %v", err)
	}
	if string(got) != string(raw) {
		t.Errorf("Raw bytes mangled: %v", got)
	}
}

func TestEncodeDecodeErrors(t *testing.T) {
	be := newPlainBackend()
	c := New(be)
	defer c.Close()
	ctx := context.Background()

	// JSON cannot encode a channel
	err := c.Set(ctx, "bad", make(chan int))
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindEncode {
		t.Errorf("Expected KindEncode, got %v", err)
	}
	if be.setOps != 0 {
		t.Errorf("Encode failure must happen before backend I/O")
	}

	// stored bytes that do not decode into the destination
	c.SetRaw(ctx, "garbage", []byte("not json"))
	var got account
	err = c.Get(ctx, "garbage", &got)
	if !errors.As(err, &ce) || ce.Kind != KindDecode {
		t.Errorf("Expected KindDecode, got %v", err)
	}
}

func TestDeleteAndList(t *testing.T) {
	c := New(memory.New(nil))
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "user/1", account{Owner: "a"})
	c.Set(ctx, "user/2", account{Owner: "b"})
	c.Set(ctx, "other/1", account{Owner: "c"})

	keys, err := c.List(ctx, "user/")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Expected 2 keys, got %v", keys)
	}

	if err := c.Delete(ctx, "user/1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	// deleting an absent key is not an error
	if err := c.Delete(ctx, "user/1"); err != nil {
		t.Errorf("Repeated delete failed: %v", err)
	}

	if ok, _ := c.HasKey(ctx, "user/1"); ok {
		t.Errorf("Expected user/1 to be gone")
	}
}

func TestHasKeys(t *testing.T) {
	c := New(memory.New(nil))
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "a", account{})
	c.Set(ctx, "b", account{})

	ok, err := c.HasKeys(ctx, []string{"a", "b"})
	if err != nil || !ok {
		t.Errorf("Expected all keys present, got ok=%v err=%v", ok, err)
	}

	ok, err = c.HasKeys(ctx, []string{"a", "missing"})
	if err != nil || ok {
		t.Errorf("Expected missing key to yield false, got ok=%v err=%v", ok, err)
	}

	// empty slice is a validation error, not trivially true
	_, err = c.HasKeys(ctx, nil)
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindValidation {
		t.Errorf("Expected KindValidation for empty key slice, got %v", err)
	}
}

func TestMatchKeys(t *testing.T) {
	c := New(memory.New(nil))
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "user/1", account{})
	c.Set(ctx, "user/2", account{})

	ok, err := c.MatchKeys(ctx, "user/", func(keys []string) bool {
		return len(keys) == 2
	})
	if err != nil || !ok {
		t.Errorf("Expected predicate match, got ok=%v err=%v", ok, err)
	}

	_, err = c.MatchKeys(ctx, "user/", nil)
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindValidation {
		t.Errorf("Expected KindValidation for nil predicate, got %v", err)
	}
}

func TestHealthCapability(t *testing.T) {
	ctx := context.Background()

	// memory backend implements health
	healthy := New(memory.New(nil))
	defer healthy.Close()
	if err := healthy.Health(ctx); err != nil {
		t.Errorf("Expected healthy backend, got %v", err)
	}

	// plain backend does not
	plain := New(newPlainBackend())
	defer plain.Close()
	err := plain.Health(ctx)
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != KindCapability {
		t.Errorf("Expected KindCapability, got %v", err)
	}
}

func TestCancelledContext(t *testing.T) {
	c := New(memory.New(nil))
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Set(ctx, "a", account{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWithCodecOption(t *testing.T) {
	c := New(memory.New(nil), WithCodec(codec.NewGOBCodec()))
	defer c.Close()
	ctx := context.Background()

	want := account{Owner: "gob", Balance: 1}
	if err := c.Set(ctx, "a", want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	var got account
	if err := c.Get(ctx, "a", &got); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

// --------------------------------------------------------------------------
// Hook integration
// --------------------------------------------------------------------------

func TestHookEvents(t *testing.T) {
	c := New(memory.New(nil))
	defer c.Close()
	ctx := context.Background()

	var (
		mu     sync.Mutex
		events []hook.Event
	)

	c.Hooks().Register(func(_ context.Context, event hook.Event) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, event)
		return nil
	})

	c.Set(ctx, "a", account{Owner: "x"})
	c.SetRaw(ctx, "b", []byte("raw"))
	c.Delete(ctx, "a")

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}
	if events[0].Type != hook.EventSet || events[0].Key != "a" || len(events[0].Value) == 0 {
		t.Errorf("Unexpected set event: %+v", events[0])
	}
	if events[1].Type != hook.EventSetRaw || string(events[1].Value) != "raw" {
		t.Errorf("Unexpected setraw event: %+v", events[1])
	}
	if events[2].Type != hook.EventDelete || events[2].Key != "a" {
		t.Errorf("Unexpected delete event: %+v", events[2])
	}
}

func TestFailingHookDoesNotAffectOperation(t *testing.T) {
	c := New(memory.New(nil))
	defer c.Close()
	ctx := context.Background()

	c.Hooks().Register(func(_ context.Context, _ hook.Event) error {
		panic("misbehaving hook")
	})

	if err := c.Set(ctx, "a", account{}); err != nil {
		t.Errorf("Set must succeed despite panicking hook, got %v", err)
	}

	var got account
	if err := c.Get(ctx, "a", &got); err != nil {
		t.Errorf("Value must be stored despite panicking hook, got %v", err)
	}
}

func TestFailedWriteEmitsNoEvent(t *testing.T) {
	be := newPlainBackend()
	be.setErr["bad"] = errors.New("disk full")

	c := New(be)
	defer c.Close()
	ctx := context.Background()

	var (
		mu    sync.Mutex
		count int
	)
	c.Hooks().Register(func(_ context.Context, _ hook.Event) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		return nil
	})

	if err := c.SetRaw(ctx, "bad", []byte("x")); err == nil {
		t.Fatalf("Expected backend failure")
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Errorf("Failed write must not emit an event, got %d", count)
	}
}

func TestSharedDispatcher(t *testing.T) {
	d := hook.NewDispatcher()
	defer d.Close()
	ctx := context.Background()

	received := make(chan string, 4)
	d.Register(func(_ context.Context, event hook.Event) error {
		received <- event.Key
		return nil
	})

	first := New(memory.New(nil), WithDispatcher(d))
	second := New(memory.New(nil), WithDispatcher(d))
	defer first.Close()
	defer second.Close()

	first.SetRaw(ctx, "from-first", []byte("1"))
	second.SetRaw(ctx, "from-second", []byte("2"))

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatalf("Expected events from both clients")
		}
	}
}
