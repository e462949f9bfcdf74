package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
	"github.com/az9713/talk-it-out-ai-sub000/pkg/service"
	"github.com/gin-gonic/gin"
)

func TestSettingsHandler(t *testing.T) {
	ts := newTestServer(t)

	got := decode[models.PersonalityProfile](t, ts.do(t, http.MethodGet, "/api/settings/mediator", "alex", nil))
	if got != models.DefaultPersonalityProfile() {
		t.Fatalf("GET settings = %+v, want defaults", got)
	}

	update := models.DefaultPersonalityProfile()
	update.Tone = models.ToneGentle
	update.UseEmoji = true
	w := ts.do(t, http.MethodPut, "/api/settings/mediator", "alex", update)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT settings = %d %s, want 200", w.Code, w.Body.String())
	}
	if saved := decode[models.PersonalityProfile](t, w); saved.Tone != models.ToneGentle || !saved.UseEmoji {
		t.Fatalf("PUT settings = %+v", saved)
	}

	preview := decode[map[string]string](t, ts.do(t, http.MethodGet, "/api/settings/mediator/preview", "alex", nil))
	if !strings.Contains(preview["instructions"], "## Emoji Usage") {
		t.Fatalf("preview = %q", preview["instructions"])
	}
	if preview["instructions"] != service.ComposePersonality(update) {
		t.Fatalf("preview does not match stored profile")
	}

	bad := update
	bad.Formality = "stiff"
	if w := ts.do(t, http.MethodPut, "/api/settings/mediator", "alex", bad); w.Code != http.StatusBadRequest {
		t.Fatalf("PUT invalid settings = %d, want 400", w.Code)
	}

	reset := decode[models.PersonalityProfile](t, ts.do(t, http.MethodPost, "/api/settings/mediator/reset", "alex", nil))
	if reset != models.DefaultPersonalityProfile() {
		t.Fatalf("reset = %+v, want defaults", reset)
	}
}

func TestModelHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewModelHandler(service.NewModelService()).RegisterRoutes(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/models/providers", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET providers = %d, want 200", w.Code)
	}
	providers := decode[map[string][]string](t, w)["providers"]
	if len(providers) != len(models.SupportedModelProviders) {
		t.Fatalf("providers = %v", providers)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/models/test", strings.NewReader(`{"provider":"nope","model":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("POST models/test with unknown provider = %d %s, want 400", w.Code, w.Body.String())
	}
}
