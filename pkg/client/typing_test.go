package client

import (
	"sync"
	"testing"
	"time"
)

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestTypingTracker_StartAndStop(t *testing.T) {
	tr := NewTypingTracker(time.Minute)
	tr.Observe("sam", "Sam", true)
	tr.Observe("kim", "Kim", true)

	got := tr.Typing()
	if len(got) != 2 || got[0].UserName != "Kim" || got[1].UserName != "Sam" {
		t.Fatalf("Typing() = %+v, want Kim and Sam", got)
	}

	tr.Observe("sam", "Sam", false)
	if got := tr.Typing(); len(got) != 1 || got[0].UserID != "kim" {
		t.Fatalf("Typing() after stop = %+v, want only kim", got)
	}

	tr.Clear()
	if got := tr.Typing(); len(got) != 0 {
		t.Fatalf("Typing() after Clear = %+v, want none", got)
	}
}

func TestTypingTracker_ExpiresAfterTTL(t *testing.T) {
	tr := NewTypingTracker(40 * time.Millisecond)
	var changes int32
	var mu sync.Mutex
	tr.OnChange(func() {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	tr.Observe("sam", "Sam", true)
	waitUntil(t, "typing indicator to expire", func() bool { return len(tr.Typing()) == 0 })

	mu.Lock()
	defer mu.Unlock()
	if changes != 2 {
		t.Fatalf("OnChange calls = %d, want 2", changes)
	}
}

func TestTypingTracker_RefreshExtendsTTL(t *testing.T) {
	tr := NewTypingTracker(80 * time.Millisecond)
	tr.Observe("sam", "Sam", true)
	time.Sleep(50 * time.Millisecond)
	tr.Observe("sam", "Sam", true)
	time.Sleep(50 * time.Millisecond)

	if got := tr.Typing(); len(got) != 1 {
		t.Fatalf("Typing() = %+v, want sam still typing after refresh", got)
	}
	waitUntil(t, "refreshed indicator to expire", func() bool { return len(tr.Typing()) == 0 })
}

type signalRecorder struct {
	mu  sync.Mutex
	got []bool
}

func (r *signalRecorder) send(isTyping bool) {
	r.mu.Lock()
	r.got = append(r.got, isTyping)
	r.mu.Unlock()
}

func (r *signalRecorder) signals() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.got...)
}

func TestTypingSender_DebouncesStop(t *testing.T) {
	rec := &signalRecorder{}
	s := NewTypingSender(30*time.Millisecond, rec.send)

	for i := 0; i < 5; i++ {
		s.Keystroke()
		time.Sleep(5 * time.Millisecond)
	}
	if got := rec.signals(); len(got) != 1 || !got[0] {
		t.Fatalf("signals while typing = %v, want [true]", got)
	}

	waitUntil(t, "stop signal", func() bool { return len(rec.signals()) == 2 })
	if got := rec.signals(); got[1] {
		t.Fatalf("signals = %v, want [true false]", got)
	}
	if s.Typing() {
		t.Fatalf("Typing() = true after idle stop")
	}
}

func TestTypingSender_SubmitStopsImmediately(t *testing.T) {
	rec := &signalRecorder{}
	s := NewTypingSender(time.Hour, rec.send)

	s.Keystroke()
	s.Submit()
	s.Submit()
	if got := rec.signals(); len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("signals = %v, want [true false]", got)
	}

	s.Keystroke()
	if got := rec.signals(); len(got) != 3 || !got[2] {
		t.Fatalf("signals after new burst = %v, want a second start", got)
	}
}
