package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lofiradio/automation/internal/client"
	"github.com/lofiradio/automation/internal/model"
)

type stubCompleter struct {
	reply string
	err   error
	calls []string
}

func (s *stubCompleter) CompleteText(ctx context.Context, system, user string) (string, error) {
	s.calls = append(s.calls, user)
	return s.reply, s.err
}

func TestGenerateBundleUsesSlotTables(t *testing.T) {
	stub := &stubCompleter{reply: "warm lofi hip-hop groove with vinyl crackle"}
	g := NewGenerator(stub)

	bundle, err := g.GenerateBundle(context.Background(), model.SlotNight)
	if err != nil {
		t.Fatalf("GenerateBundle returned error: %v", err)
	}
	if bundle.MusicPrompt != stub.reply {
		t.Errorf("MusicPrompt = %q", bundle.MusicPrompt)
	}
	if bundle.Genre == "" || bundle.Mood == "" {
		t.Errorf("bundle missing genre or mood: %+v", bundle)
	}

	found := false
	for _, m := range themeMoods[model.SlotNight] {
		if m == bundle.Mood {
			found = true
		}
	}
	if !found {
		t.Errorf("mood %q is not a night mood", bundle.Mood)
	}

	request := stub.calls[0]
	if !strings.Contains(request, "NIGHT") {
		t.Errorf("completion request should name the slot, got: %.120s", request)
	}
	if !strings.Contains(request, bundle.Genre) {
		t.Errorf("completion request should carry the chosen genre %q", bundle.Genre)
	}
}

func TestGenerateMetadataParsesJSON(t *testing.T) {
	stub := &stubCompleter{reply: `Here you go: {"title":"Midnight Rain","description":"Slow lofi for late hours.","tags":["lofi","chill"]} enjoy!`}
	g := NewGenerator(stub)

	meta, err := g.GenerateMetadata(context.Background(), model.SlotNight, "prompt")
	if err != nil {
		t.Fatalf("GenerateMetadata returned error: %v", err)
	}
	if meta.Title != "Midnight Rain" {
		t.Errorf("Title = %q", meta.Title)
	}
	if len(meta.Tags) != 2 || meta.Tags[0] != "lofi" {
		t.Errorf("Tags = %v", meta.Tags)
	}
}

func TestGenerateMetadataMalformedReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"no json", "sorry, I cannot help with that"},
		{"missing fields", `{"title":"x"}`},
		{"empty tags", `{"title":"x","description":"y","tags":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(&stubCompleter{reply: tt.reply})
			_, err := g.GenerateMetadata(context.Background(), model.SlotMorning, "prompt")
			var malformed *client.MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("error = %v, want *MalformedResponseError", err)
			}
		})
	}
}

func TestGenerateMetadataCompleterError(t *testing.T) {
	wantErr := errors.New("rate limited")
	g := NewGenerator(&stubCompleter{err: wantErr})
	_, err := g.GenerateMetadata(context.Background(), model.SlotMorning, "prompt")
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want wrapped completer error", err)
	}
}

func TestImagePromptTruncation(t *testing.T) {
	g := NewGenerator(&stubCompleter{})

	short := g.ImagePrompt(&model.PromptBundle{MusicPrompt: "gentle piano"}, model.SlotMorning)
	if !strings.Contains(short, "gentle piano") || !strings.Contains(short, "morning") {
		t.Errorf("image prompt missing music prompt or slot: %q", short)
	}

	long := g.ImagePrompt(&model.PromptBundle{MusicPrompt: strings.Repeat("a", 2000)}, model.SlotMorning)
	if len(long) > maxImagePromptLength {
		t.Errorf("image prompt length = %d, want <= %d", len(long), maxImagePromptLength)
	}
	if !strings.HasSuffix(long, "...") {
		t.Errorf("truncated prompt should end with ellipsis")
	}
}

func TestVideoPromptConstraints(t *testing.T) {
	g := NewGenerator(&stubCompleter{})
	bundle := &model.PromptBundle{MusicPrompt: "rainy neon city beat"}

	p := g.VideoPrompt(bundle, model.SlotNight)
	for _, want := range []string{
		"ZERO camera movement",
		"First frame and last frame must be visually identical",
		"NO people or characters",
		"Palette anchors:",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("video prompt missing %q", want)
		}
	}

	// Same inputs must pick the same scene.
	if g.VideoPrompt(bundle, model.SlotNight) != p {
		t.Error("video prompt is not deterministic for identical inputs")
	}
}
