package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/lofiradio/automation/internal/client"
	"github.com/lofiradio/automation/internal/model"
)

// maxImagePromptLength bounds the cover prompt sent to the image model.
const maxImagePromptLength = 1000

// TextCompleter is the chat completion dependency of the generator.
type TextCompleter interface {
	CompleteText(ctx context.Context, system, user string) (string, error)
}

// Generator turns a slot into the music prompt, metadata, cover prompt and
// video prompt for one run.
type Generator struct {
	completer TextCompleter
	rng       *rand.Rand
}

// NewGenerator creates a generator backed by the given chat completer.
func NewGenerator(completer TextCompleter) *Generator {
	return &Generator{
		completer: completer,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateBundle produces the single music prompt bundle for a run. Genre
// and mood are drawn from the slot tables; the completion model expands them
// into a full instrumental prompt.
func (g *Generator) GenerateBundle(ctx context.Context, slot model.Slot) (*model.PromptBundle, error) {
	genre := genres[g.rng.Intn(len(genres))]
	moods := themeMoods[slot]
	mood := moods[g.rng.Intn(len(moods))]
	tempo := tempoRanges[slot]
	instruments := instrumentationForGenre(genre)

	system := "You are an AI music designer specializing in creating study and focus music."
	user := fmt.Sprintf(`Write a detailed, professional music prompt for an AI music service to generate an instrumental-only %[1]s track optimized for %[2]s listening.

Time of day: %[3]s
Genre: %[1]s
Mood: %[4]s
Target tempo: %[5]d BPM (range: %[6]d-%[7]d BPM)

CRITICAL REQUIREMENTS:

1. GENRE & STYLE: Clearly specify "%[1]s" style with lofi characteristics (vinyl texture, warm analog feel, subtle imperfections).

2. MOOD & EMOTION: Convey "%[4]s" - describe the emotional tone and energy level. Use specific emotional descriptors that guide chord progressions and melodic contours.

3. INSTRUMENTATION: Include these instruments: %[8]s. Specify timbral qualities (e.g., "warm analog synth", "soft brushed drums", "mellow piano"). Add vinyl crackle and ambient textures for lofi authenticity.

4. TEMPO & RHYTHM: Set tempo to %[5]d BPM (%[6]d-%[7]d BPM range). Describe the rhythmic feel (e.g., "slow, steady groove", "gentle swing", "relaxed four-on-the-floor").

5. STRUCTURE: Suggest a simple structure suitable for study/focus: gentle intro, main loop with subtle variations, smooth transitions. Keep it non-distracting and repetitive enough for concentration.

6. PRODUCTION STYLE: Specify lofi production characteristics: warm analog feel, subtle vinyl crackle, soft compression, gentle reverb, tape saturation, low-pass filtering.

7. NEGATIVE PROMPTS: Explicitly state: NO vocals, NO vocal samples, NO lyrics, NO distracting elements, NO sudden changes, NO high-energy drops.

Format your response as a single, flowing music prompt (under 1000 characters). Be specific with adjectives and technical terms. Return ONLY the music prompt text - no explanations, no JSON, no markdown formatting.`,
		genre, slot, strings.ToUpper(string(slot)), mood,
		tempo.Preferred, tempo.Min, tempo.Max, strings.Join(instruments, ", "))

	text, err := g.completer.CompleteText(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate music prompt: %w", err)
	}

	return &model.PromptBundle{
		MusicPrompt: text,
		Genre:       genre,
		Mood:        mood,
	}, nil
}

// GenerateMetadata derives the publish title, description and tags from an
// already generated music prompt.
func (g *Generator) GenerateMetadata(ctx context.Context, slot model.Slot, musicPrompt string) (*model.Metadata, error) {
	system := `You are a music marketing assistant.
Based on a provided time-of-day slot (morning, midday, or night) and a music description prompt,
generate a compelling title, an engaging SEO-optimized description, and a short list of relevant tags.

Requirements:
- The title should be unique, evocative, and accurately reflect the vibe and genre of the music as described in the prompt.
- Do NOT force generic genre tags unless the music description specifically indicates that style.
- The description should be 2-3 sentences long and naturally describe the music's mood, style, and characteristics as indicated in the prompt.
- Tags should be lowercase, relevant to the actual music described, and platform-friendly.
- Only use genres and styles that match what is described in the music prompt.
- Do not mention AI, automation, or anything synthetic in the output.
- Do not include markdown, code blocks, or explanations.

Respond only with a valid JSON object with the following keys: "title", "description", and "tags" (as an array).`

	user := fmt.Sprintf("Slot: %s\nPrompt: %s", slot, musicPrompt)

	text, err := g.completer.CompleteText(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata: %w", err)
	}

	raw, ok := extractJSON(text)
	if !ok {
		return nil, &client.MalformedResponseError{Vendor: "openai", Detail: "metadata reply contains no JSON object"}
	}

	var meta model.Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, &client.MalformedResponseError{Vendor: "openai", Detail: "metadata JSON does not parse: " + err.Error()}
	}
	if meta.Title == "" || meta.Description == "" || len(meta.Tags) == 0 {
		return nil, &client.MalformedResponseError{Vendor: "openai", Detail: "metadata JSON is missing title, description or tags"}
	}
	return &meta, nil
}

// ImagePrompt builds the cover art prompt from the music prompt and slot.
func (g *Generator) ImagePrompt(bundle *model.PromptBundle, slot model.Slot) string {
	p := fmt.Sprintf(`Anime-style album cover inspired by the following: %q. During the %s, the illustration should blend cozy 1980s city pop fashion with a sleek, modern setting. Consistent anime cover art style.`,
		bundle.MusicPrompt, slot)
	if len(p) > maxImagePromptLength {
		p = p[:maxImagePromptLength-5] + "..."
	}
	return p
}

// VideoPrompt builds the full looping-scene prompt for the video model. The
// scene is chosen deterministically from the music prompt and slot, its
// time-of-day vocabulary is rewritten to match the slot, and the loop and
// camera constraints are appended.
func (g *Generator) VideoPrompt(bundle *model.PromptBundle, slot model.Slot) string {
	tpl := PickSceneTemplate(bundle.MusicPrompt, slot)
	sceneDesc := AdjustSceneForSlot(tpl.Description, slot)
	palette := paletteForScene(tpl)
	moodSummary := summarizeMood(bundle.MusicPrompt)

	var b strings.Builder

	if strings.Contains(sceneDesc, "1980s") {
		b.WriteString("Style: 1980s hand-drawn anime OVA aesthetic with warm film grain, atmospheric haze, and nostalgic color grading. The visual language evokes classic anime backgrounds with layered lighting and subtle VHS-style texture.\n")
	} else {
		b.WriteString("Style: Anime animation aesthetic with cinematic quality, layered lighting, and atmospheric depth. Visual style should feel like a living photograph with subtle, beautiful motion.\n")
	}

	b.WriteString(sceneDesc)
	b.WriteString("\n")
	if moodSummary != "" {
		b.WriteString("Atmosphere cues from music: " + moodSummary + "\n")
	}

	b.WriteString("Cinematography:\n")
	b.WriteString("Camera shot: " + cameraFraming(sceneDesc) + "\n")
	b.WriteString("Camera movement: ZERO camera movement. The camera is completely frozen and locked in place - like a tripod-mounted photograph. Absolutely NO movement of any kind: no zoom, no pan, no tilt, no dolly, no tracking, no rotation, no focus drift, no parallax, no camera shake. The camera position, angle, and framing remain 100% static throughout the entire video.\n")
	b.WriteString("Depth of field: Deep focus (foreground and background both sharp)\n")
	b.WriteString("Lighting: " + lightingForScene(sceneDesc) + "\n")
	b.WriteString("Palette anchors: " + strings.Join(palette, ", ") + "\n")
	b.WriteString("Mood: Tranquil, meditative, a living still photograph with minimal subtle motion\n")

	b.WriteString("Actions - ONLY environmental effects are allowed (NO moving objects):\n")
	actions := loopActions(sceneDesc)
	if len(actions) == 0 {
		actions = []string{"- Subtle environmental effects: gentle particles or light shifts completing one full cycle, returning all elements to starting states"}
	}
	for _, a := range actions {
		b.WriteString(a + "\n")
	}

	b.WriteString(`
FORBIDDEN - NO moving objects (these cannot loop perfectly):
- NO trains, vehicles, cars, buses, or any moving transportation
- NO animals, birds, or any living creatures
- NO people or characters
- NO boats, planes, or flying objects
- ONLY environmental effects that repeat in perfect cycles

PERFECT LOOP REQUIREMENTS:
- First frame and last frame must be visually identical
- All animated elements must return to their exact starting positions and states
- All animations must be periodic and cyclic, completing exactly one full cycle
- Single continuous shot only: no cuts, transitions, titles, logos, text, or black frames

Technical:
- High-fidelity rendering with crisp line work and layered lighting
- Subtle atmospheric perspective and cinematic quality
- Provide visuals only; accompanying audio from render will be discarded
`)

	return b.String()
}

func cameraFraming(sceneDesc string) string {
	switch {
	case strings.Contains(sceneDesc, "rooftop"), strings.Contains(sceneDesc, "panorama"):
		return "wide establishing shot, eye level, fixed vantage point"
	case strings.Contains(sceneDesc, "pond"), strings.Contains(sceneDesc, "lake"):
		return "wide shot, eye level, stable composition"
	case strings.Contains(sceneDesc, "alley"), strings.Contains(sceneDesc, "narrow"):
		return "medium-wide shot, eye level, locked frame"
	default:
		return "wide establishing shot, eye level"
	}
}

func lightingForScene(sceneDesc string) string {
	switch {
	case strings.Contains(sceneDesc, "night"):
		return "Neon and practical lights with cool rim lighting"
	case strings.Contains(sceneDesc, "sunrise"), strings.Contains(sceneDesc, "dawn"):
		return "Warm natural key with soft fill, golden hour quality"
	default:
		return "Balanced natural lighting with atmospheric depth"
	}
}

func loopActions(sceneDesc string) []string {
	var actions []string
	add := func(line string, terms ...string) {
		for _, t := range terms {
			if strings.Contains(sceneDesc, t) {
				actions = append(actions, line)
				return
			}
		}
	}
	add("- Rain: falling in continuous, periodic loops, completing exactly one cycle", "rain")
	add("- Snow: drifting in continuous loops, returning to starting positions", "snow", "winter")
	add("- Building lights: flickering or pulsing in smooth periodic cycles, returning to starting brightness", "flickering", "neon", "lantern", "light")
	add("- Atmospheric elements: mist, fog, or clouds drifting in repeating patterns, completing full cycles", "clouds", "mist", "fog")
	add("- Wind effects: leaves, grass, fabric, flags, or branches swaying in gentle oscillating motions, returning to starting positions", "swaying", "leaves", "branches", "wind")
	add("- Water surface effects: ripples and waves moving in continuous loops, matching first and last frame states", "ripples", "water", "waves", "pond")
	add("- Particle effects: dust or light particles drifting in closed circular paths, returning to starting positions", "particles", "dust")
	add("- Steam or smoke: rising in cyclical waves, completing periodic patterns", "steam", "smoke")
	return actions
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// summarizeMood condenses the music prompt into a short atmosphere cue line.
func summarizeMood(musicPrompt string) string {
	s := whitespaceRun.ReplaceAllString(strings.TrimSpace(musicPrompt), " ")
	if len(s) > 300 {
		s = s[:300]
	}
	return s
}

// extractJSON pulls the outermost JSON object out of a chat reply that may
// carry extra prose around it.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
