package service

import (
	"strings"
	"testing"

	"github.com/az9713/talk-it-out-ai-sub000/pkg/models"
)

func splitSections(text string) []string {
	return strings.Split(text, "\n\n")
}

func TestComposePersonality_Deterministic(t *testing.T) {
	p := models.DefaultPersonalityProfile()
	first := ComposePersonality(p)
	for i := 0; i < 10; i++ {
		if got := ComposePersonality(p); got != first {
			t.Fatalf("ComposePersonality() not deterministic:\n%s\n---\n%s", first, got)
		}
	}
}

func TestComposePersonality_OnlyEmojiSectionChanges(t *testing.T) {
	a := models.DefaultPersonalityProfile()
	b := a
	b.UseEmoji = true

	sa := splitSections(ComposePersonality(a))
	sb := splitSections(ComposePersonality(b))
	if len(sa) != len(sb) {
		t.Fatalf("section count = %d and %d, want equal", len(sa), len(sb))
	}
	var changed []string
	for i := range sa {
		if sa[i] != sb[i] {
			changed = append(changed, strings.SplitN(sa[i], "\n", 2)[0])
		}
	}
	if len(changed) != 1 || changed[0] != "## Emoji Usage" {
		t.Fatalf("changed sections = %v, want [## Emoji Usage]", changed)
	}
}

func TestComposePersonality_Sections(t *testing.T) {
	ctx := "Japanese family, values indirectness"
	blank := "   "
	tests := []struct {
		name        string
		profile     models.PersonalityProfile
		wantCount   int
		wantContain string
	}{
		{
			name:      "defaults",
			profile:   models.DefaultPersonalityProfile(),
			wantCount: 5,
		},
		{
			name: "cultural context quoted verbatim",
			profile: func() models.PersonalityProfile {
				p := models.DefaultPersonalityProfile()
				p.CulturalContext = &ctx
				return p
			}(),
			wantCount:   6,
			wantContain: "\"" + ctx + "\"",
		},
		{
			name: "blank cultural context omitted",
			profile: func() models.PersonalityProfile {
				p := models.DefaultPersonalityProfile()
				p.CulturalContext = &blank
				return p
			}(),
			wantCount: 5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposePersonality(tt.profile)
			if n := len(splitSections(got)); n != tt.wantCount {
				t.Fatalf("sections = %d, want %d\n%s", n, tt.wantCount, got)
			}
			if tt.wantContain != "" && !strings.Contains(got, tt.wantContain) {
				t.Fatalf("ComposePersonality() missing %q", tt.wantContain)
			}
		})
	}
}

func TestComposePersonality_EveryEnumValueDistinct(t *testing.T) {
	base := models.DefaultPersonalityProfile()
	seen := map[string]bool{}
	for _, tone := range []models.Tone{models.ToneWarm, models.ToneProfessional, models.ToneDirect, models.ToneGentle} {
		p := base
		p.Tone = tone
		out := ComposePersonality(p)
		if seen[out] {
			t.Fatalf("tone %s produced duplicate text", tone)
		}
		seen[out] = true
	}
	for _, l := range []models.ResponseLength{models.ResponseLengthConcise, models.ResponseLengthDetailed} {
		p := base
		p.ResponseLength = l
		if out := ComposePersonality(p); out == ComposePersonality(base) {
			t.Fatalf("length %s produced default text", l)
		}
	}
}
