package prompt

import (
	"strings"

	"github.com/lofiradio/automation/internal/model"
)

// genres that sit well in a lofi study/focus rotation.
var genres = []string{
	"lofi hip-hop",
	"jazz-infused lofi",
	"ambient lofi",
	"chillhop",
	"synthwave lofi",
	"lofi boom bap",
	"vaporwave lofi",
	"instrumental chillhop",
	"ambient downtempo",
	"jazz-hop lofi",
	"dreamy electronica lofi",
	"instrumental trip-hop lofi",
	"slow-tempo electro jazz lofi",
	"lofi house",
	"lofi techno",
	"lofi indie",
	"lofi rock",
	"lofi pop",
	"lofi R&B",
	"lofi soul",
	"lofi funk",
	"lofi reggae",
	"lofi blues",
	"lofi classical",
	"lofi acoustic",
	"lofi piano",
	"lofi guitar",
	"lofi beats",
	"study beats",
	"focus music",
}

// themeMoods holds eight abstract mood lines per slot.
var themeMoods = map[model.Slot][]string{
	model.SlotMorning: {
		"Gentle emergence of thought and calm energy.",
		"Subtle optimism rising with clarity.",
		"Emotionally light with a sense of freshness.",
		"Peaceful introspection unfolding into focus.",
		"Stillness paired with quiet anticipation.",
		"Balanced warmth with a soft emotional build.",
		"Serenity transitioning into inspiration.",
		"Harmonious flow of clarity and purpose.",
	},
	model.SlotMidday: {
		"Elevated rhythm with grounded intensity.",
		"Mental sharpness aligned with steady flow.",
		"Confident pacing and emotional clarity.",
		"Stable motion layered with creative spark.",
		"Productive energy wrapped in smooth momentum.",
		"Forward drive balanced by emotional control.",
		"Energized focus without overstimulation.",
		"Dynamic harmony with persistent motion.",
	},
	model.SlotNight: {
		"Deep introspection with emotional softness.",
		"Dreamlike flow with slow emotional release.",
		"Low-tempo thoughtfulness and gentle tension.",
		"Subdued energy wrapped in internal reflection.",
		"Fading light of the mind, layered with stillness.",
		"Subtle emotional depth in suspended time.",
		"Quiet intensity with a meditative undertone.",
		"Evening stillness with rich inner resonance.",
	},
}

// TempoRange bounds the BPM guidance for a slot.
type TempoRange struct {
	Min       int
	Max       int
	Preferred int
}

var tempoRanges = map[model.Slot]TempoRange{
	model.SlotMorning: {Min: 60, Max: 85, Preferred: 70},
	model.SlotMidday:  {Min: 75, Max: 100, Preferred: 85},
	model.SlotNight:   {Min: 55, Max: 75, Preferred: 65},
}

var instrumentationTemplates = map[string][]string{
	"minimal":    {"soft piano", "warm synth pad", "vinyl crackle", "subtle bass"},
	"jazz":       {"mellow jazz piano", "upright bass", "soft brushed drums", "vinyl texture"},
	"electronic": {"analog synth", "warm pad", "lo-fi drum machine", "vinyl sample"},
	"acoustic":   {"acoustic guitar", "soft piano", "gentle percussion", "ambient texture"},
	"hybrid":     {"piano", "synth pad", "soft bass", "vinyl crackle", "subtle drums"},
}

// instrumentationForGenre maps a genre name onto the closest instrument set.
func instrumentationForGenre(genre string) []string {
	g := strings.ToLower(genre)
	switch {
	case strings.Contains(g, "jazz"):
		return instrumentationTemplates["jazz"]
	case strings.Contains(g, "electronic"), strings.Contains(g, "synthwave"),
		strings.Contains(g, "techno"), strings.Contains(g, "house"):
		return instrumentationTemplates["electronic"]
	case strings.Contains(g, "acoustic"), strings.Contains(g, "guitar"), strings.Contains(g, "piano"):
		return instrumentationTemplates["acoustic"]
	case strings.Contains(g, "ambient"), strings.Contains(g, "minimal"):
		return instrumentationTemplates["minimal"]
	default:
		return instrumentationTemplates["hybrid"]
	}
}
