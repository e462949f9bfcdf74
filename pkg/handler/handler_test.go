package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/db"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/event"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/service"
	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
)

type scriptedModel struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *scriptedModel) set(reply string, err error) {
	m.mu.Lock()
	m.reply, m.err = reply, err
	m.mu.Unlock()
}

type testServer struct {
	engine     *gin.Engine
	mediator   *scriptedModel
	classifier *scriptedModel
	hub        *event.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.Open(filepath.Join(t.TempDir(), "handler.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	ts := &testServer{
		mediator:   &scriptedModel{reply: "Welcome. [[STAY]]"},
		classifier: &scriptedModel{reply: `{"safe": true, "concerns": {"crisis": false, "abuse": false, "escalation": false}}`},
		hub:        event.NewHub(),
	}
	locker := service.NewMemoryLocker()
	participants := service.NewParticipantService(gdb, locker)
	participants.SetPresenceSource(ts.hub)
	profiles := service.NewProfileService(gdb)
	orch := service.NewOrchestrator(ts.mediator, service.NewSafetyClassifier(ts.classifier))
	sessions := service.NewSessionService(gdb, orch, participants, profiles, locker, ts.hub)

	r := gin.New()
	api := r.Group("/api")
	api.Use(RequireUser())
	NewSessionHandler(sessions, participants, event.NewWSHandler(ts.hub), InviteSettings{BaseURL: "http://talk.test"}).RegisterRoutes(api)
	NewSettingsHandler(profiles).RegisterRoutes(api)
	ts.engine = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(HeaderUserID, user)
		req.Header.Set(HeaderUserName, user+"-name")
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}
