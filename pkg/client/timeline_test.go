package client

import (
	"testing"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

func msg(id string) models.MessageView {
	return models.MessageView{ID: id, SessionID: "s1", Role: models.MessageRoleUser, Content: "content " + id}
}

func ids(msgs []models.MessageView) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTimeline_Apply(t *testing.T) {
	tests := []struct {
		name    string
		history []string
		events  []string
		want    []string
	}{
		{name: "arrival order", events: []string{"a", "b", "c"}, want: []string{"a", "b", "c"}},
		{name: "duplicate event ignored", events: []string{"a", "a", "b", "a"}, want: []string{"a", "b"}},
		{name: "event already in history", history: []string{"a", "b"}, events: []string{"b", "c"}, want: []string{"a", "b", "c"}},
		{name: "empty id ignored", events: []string{"", "a"}, want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := NewTimeline()
			var history []models.MessageView
			for _, id := range tt.history {
				history = append(history, msg(id))
			}
			tl.Reset(history)
			for _, id := range tt.events {
				tl.Apply(msg(id))
			}
			if got := ids(tl.Messages()); !equalIDs(got, tt.want) {
				t.Fatalf("Messages() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeline_ApplyReportsNovelty(t *testing.T) {
	tl := NewTimeline()
	if !tl.Apply(msg("a")) {
		t.Fatalf("Apply(a) = false, want true")
	}
	if tl.Apply(msg("a")) {
		t.Fatalf("Apply(a) again = true, want false")
	}
}

func TestTimeline_ResetKeepsUnfetchedEvents(t *testing.T) {
	tl := NewTimeline()
	tl.Apply(msg("live-1"))

	tl.Reset([]models.MessageView{msg("h1"), msg("live-1"), msg("h2")})
	if got, want := ids(tl.Messages()), []string{"h1", "live-1", "h2"}; !equalIDs(got, want) {
		t.Fatalf("Messages() = %v, want %v", got, want)
	}

	tl.Apply(msg("late"))
	tl.Reset([]models.MessageView{msg("h1"), msg("live-1"), msg("h2")})
	if got, want := ids(tl.Messages()), []string{"h1", "live-1", "h2", "late"}; !equalIDs(got, want) {
		t.Fatalf("Messages() = %v, want %v", got, want)
	}
	if tl.Apply(msg("late")) {
		t.Fatalf("Apply(late) after Reset = true, want false")
	}
}

func TestTimeline_ViewsAreIndependent(t *testing.T) {
	a, b := NewTimeline(), NewTimeline()
	a.Apply(msg("x"))
	if !b.Apply(msg("x")) {
		t.Fatalf("second view rejected a message seen only by the first")
	}
}
