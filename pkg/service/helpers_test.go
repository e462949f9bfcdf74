package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/db"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/event"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"gorm.io/gorm"
)

// fakeCompleter records every call and answers with reply.
type fakeCompleter struct {
	mu    sync.Mutex
	calls [][]*schema.Message
	reply func(input []*schema.Message) (*schema.Message, error)
}

func (f *fakeCompleter) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	reply := f.reply
	f.mu.Unlock()
	if reply == nil {
		return schema.AssistantMessage("ok", nil), nil
	}
	return reply(input)
}

func (f *fakeCompleter) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeCompleter) LastCall() []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

func replyWith(text string) func([]*schema.Message) (*schema.Message, error) {
	return func([]*schema.Message) (*schema.Message, error) {
		return schema.AssistantMessage(text, nil), nil
	}
}

func safeClassifier() *fakeCompleter {
	return &fakeCompleter{reply: replyWith(`{"safe": true, "concerns": {"crisis": false, "abuse": false, "escalation": false}, "reason": ""}`)}
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// recordingBroadcaster keeps every published event.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []event.Event
}

func (b *recordingBroadcaster) Publish(sessionID string, ev event.Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) Events() []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event.Event(nil), b.events...)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

type testEnv struct {
	db           *gorm.DB
	mediator     *fakeCompleter
	classifier   *fakeCompleter
	clock        *fakeClock
	broadcaster  *recordingBroadcaster
	participants *ParticipantService
	profiles     *ProfileService
	sessions     *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := newTestDB(t)
	env := &testEnv{
		db:          gdb,
		mediator:    &fakeCompleter{reply: replyWith("Tell me more. [[STAY]]")},
		classifier:  safeClassifier(),
		clock:       newFakeClock(),
		broadcaster: &recordingBroadcaster{},
	}
	locker := NewMemoryLocker()
	env.participants = NewParticipantService(gdb, locker)
	env.participants.now = env.clock.Now
	env.profiles = NewProfileService(gdb)
	orch := NewOrchestrator(env.mediator, NewSafetyClassifier(env.classifier))
	env.sessions = NewSessionService(gdb, orch, env.participants, env.profiles, locker, env.broadcaster)
	env.sessions.now = env.clock.Now
	return env
}
