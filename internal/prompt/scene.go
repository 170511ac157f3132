package prompt

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lofiradio/automation/internal/model"
)

// SceneTemplate describes one loop-friendly video setting. Keywords link the
// template to music prompts; slot affinity keeps the time of day coherent.
type SceneTemplate struct {
	ID           string
	Keywords     []string
	SlotAffinity []model.Slot
	Description  string
}

var sceneTemplates = []SceneTemplate{
	{
		ID:           "city_neon_rooftop",
		Keywords:     []string{"city", "neon", "urban", "metropolis", "night", "downtown"},
		SlotAffinity: []model.Slot{model.SlotNight},
		Description:  "Still frame lo-fi anime night city skyline viewed from a fixed rooftop vantage. The camera is completely locked like a photograph - absolutely no camera movement. Only subtle, repeating animations: neon lights flickering in periodic cycles, gentle rain falling in continuous loops, distant clouds drifting in repeating patterns, and steam rising in cyclical waves. No people present. Style: 1980s hand-drawn anime OVA with vibrant neon reflections, atmospheric haze, and warm VHS grain.",
	},
	{
		ID:           "city_sunrise_terrace",
		Keywords:     []string{"sunrise", "dawn", "morning", "city", "skyline", "golden"},
		SlotAffinity: []model.Slot{model.SlotMorning},
		Description:  "Still frame anime sunrise over a calm city terrace. The camera is completely locked - no movement whatsoever. Only subtle, repeating animations: morning fog rolling in periodic waves, hanging lanterns flickering gently in cycles, leaves swaying in repeating patterns from a gentle breeze, and light particles drifting in loops. No people, only tranquil urban ambience. Style: 1980s anime OVA with warm film grain and delicate lighting transitions.",
	},
	{
		ID:           "park_pond_lanterns",
		Keywords:     []string{"park", "pond", "cherry", "lantern", "garden", "sakura"},
		SlotAffinity: []model.Slot{model.SlotMidday},
		Description:  "Still frame anime park pond at late afternoon. The camera is completely still - locked like a photograph. Only subtle, repeating animations: cherry blossoms drifting in continuous loops, water ripples from gentle breezes in periodic patterns, stone lanterns flickering softly in cycles, branches swaying in repeating motions, and koi fish creating gentle ripple patterns that loop. No characters present. Style: 1980s anime OVA with pastel palette and soft depth of field.",
	},
	{
		ID:           "mountain_teahouse",
		Keywords:     []string{"mountain", "ridge", "teahouse", "lantern", "blossom", "grass"},
		SlotAffinity: []model.Slot{model.SlotMorning, model.SlotNight},
		Description:  "Still frame anime mountain ridge with a wooden teahouse and glowing lanterns. The camera is completely locked - absolutely no movement. Only subtle, repeating animations: cherry blossoms and tall grass swaying in periodic waves, lanterns flickering gently in cycles, vapor clouds drifting in repeating patterns, and gentle wind moving foliage in loops. Serene ambience. Style: 1980s anime OVA with warm grain and dreamy colors.",
	},
	{
		ID:           "coastal_boardwalk",
		Keywords:     []string{"beach", "ocean", "coast", "shore", "waves", "sea", "harbor"},
		SlotAffinity: []model.Slot{model.SlotMidday},
		Description:  "Still frame anime coastal boardwalk at golden hour. The camera is completely still - locked like a photograph. Only subtle, repeating animations: waves rolling in continuous loops, lantern-lit kiosks flickering gently in cycles, flags or fabric swaying in repeating patterns from wind, and light reflections dancing in loops. Style: 1980s anime OVA with sparkling highlights, warm VHS grain, and soft reflections.",
	},
	{
		ID:           "forest_fireflies",
		Keywords:     []string{"forest", "woods", "grove", "fireflies", "nature", "glade"},
		SlotAffinity: []model.Slot{model.SlotNight, model.SlotMorning},
		Description:  "Still frame anime forest clearing at twilight. The camera is completely fixed - no movement whatsoever. Only subtle, repeating animations: light particles drifting in periodic orbits, mist swirling in repeating layers, foliage swaying in cyclical patterns from gentle wind, and light filtering through leaves in loops. No human presence. Style: 1980s anime OVA with luminous highlights and deep emerald tones.",
	},
	{
		ID:           "rainy_alley",
		Keywords:     []string{"rain", "alley", "shower", "storm", "wet", "puddle"},
		SlotAffinity: []model.Slot{model.SlotNight},
		Description:  "Still frame anime rain-soaked alley with neon signage. The camera is completely still - locked like a photograph. Only subtle, repeating animations: rain falling in continuous loops, reflections rippling on puddles in periodic patterns, neon lights flickering gently in cycles, steam vents pulsing in repeating motions, and hanging signs swaying in loops from wind. Style: 1980s anime OVA with glossy highlights and moody lighting.",
	},
	{
		ID:           "desert_dusk_canyon",
		Keywords:     []string{"desert", "canyon", "mesa", "sand", "dune", "sunset"},
		SlotAffinity: []model.Slot{model.SlotMidday},
		Description:  "Still frame anime desert canyon at sunset. The camera is completely locked - no movement whatsoever. Only subtle, repeating animations: dune grasses shimmering in periodic waves from gentle breezes, dust motes drifting in continuous loops, light rays shifting in repeating patterns, and sand particles moving in cyclical flows. Atmosphere calm and expansive. Style: 1980s anime OVA with warm amber and violet gradients.",
	},
	{
		ID:           "aurora_glacier",
		Keywords:     []string{"aurora", "glacier", "ice", "snow", "polar", "arctic"},
		SlotAffinity: []model.Slot{model.SlotNight},
		Description:  "Still frame anime polar vista under dancing aurora. The camera is completely still - locked like a photograph. Only subtle, repeating animations: aurora curtains rippling in periodic waves, snow falling in continuous loops, ice shards glinting in repeating patterns, and light reflections dancing in cycles. No people. Style: 1980s anime OVA with crystalline highlights and cool pastels.",
	},
	{
		ID:           "space_window_orbit",
		Keywords:     []string{"space", "nebula", "orbit", "stars", "galaxy", "cosmic"},
		SlotAffinity: []model.Slot{model.SlotNight},
		Description:  "Still frame anime orbital observatory view. The camera is completely locked inside the observation deck window - absolutely no movement. Only subtle, repeating animations: nebula clouds swirling in periodic patterns, instrument lights pulsing rhythmically in cycles, stars twinkling in repeating sequences, and light particles drifting in loops. Style: 1980s space anime with luminous gradients and subtle parallax.",
	},
	{
		ID:           "lakeside_mist",
		Keywords:     []string{"lake", "mist", "water", "valley", "reflection"},
		SlotAffinity: []model.Slot{model.SlotMorning, model.SlotMidday},
		Description:  "Still frame anime lakeside panorama at dawn. The camera is completely fixed - no movement whatsoever. Only subtle, repeating animations: mist rolling in periodic waves, floating lanterns flickering gently in cycles, water ripples in repeating patterns, leaves or reeds swaying in loops from gentle wind, and light reflections dancing continuously. Quiet atmospheric motion only. Style: 1980s anime OVA with gentle grain and pearlescent light.",
	},
	{
		ID:           "futuristic_monorail",
		Keywords:     []string{"future", "cyber", "synth", "neon", "rail", "monorail", "tower"},
		SlotAffinity: []model.Slot{model.SlotNight, model.SlotMidday},
		Description:  "Still frame futuristic anime skyline with elevated monorails. The camera is completely locked - no movement whatsoever. Only subtle, repeating animations: holographic billboards flickering in periodic cycles, neon lights pulsing in repeating patterns, volumetric clouds drifting in loops, light particles floating in continuous cycles, and electronic displays animating rhythmically. High-tech ambiance, no characters. Style: 1980s cyber-OVA with neon bloom and chromatic haze.",
	},
}

// stringHash folds a seed string into a deterministic 32-bit value so the
// same slot and music prompt always land on the same scene.
func stringHash(s string) int32 {
	var hash int32
	for _, r := range []byte(s) {
		hash = hash<<5 - hash + int32(r)
	}
	return hash
}

// PickSceneTemplate selects the scene for a slot and music prompt. Slot
// affinity wins first, then keyword overlap narrows the pool, and the seed
// hash picks deterministically among the finalists.
func PickSceneTemplate(musicPrompt string, slot model.Slot) SceneTemplate {
	lower := strings.ToLower(musicPrompt)

	matchesKeywords := func(tpl SceneTemplate) bool {
		for _, kw := range tpl.Keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}

	var slotMatches, keywordInSlot, keywordOnly []SceneTemplate
	for _, tpl := range sceneTemplates {
		inSlot := false
		for _, s := range tpl.SlotAffinity {
			if s == slot {
				inSlot = true
				break
			}
		}
		kw := matchesKeywords(tpl)
		if inSlot {
			slotMatches = append(slotMatches, tpl)
			if kw {
				keywordInSlot = append(keywordInSlot, tpl)
			}
		}
		if kw {
			keywordOnly = append(keywordOnly, tpl)
		}
	}

	candidates := sceneTemplates
	switch {
	case len(keywordInSlot) > 0:
		candidates = keywordInSlot
	case len(slotMatches) > 0:
		candidates = slotMatches
	case len(keywordOnly) > 0:
		candidates = keywordOnly
	}

	seed := string(slot) + "|" + musicPrompt
	hash := stringHash(seed)
	if hash < 0 {
		hash = -hash
	}
	return candidates[int(hash)%len(candidates)]
}

// slotTimeSubstitutions maps time-of-day vocabulary onto each slot. A single
// pass over the source text applies the whole table at once, so one rule's
// output can never be rewritten by a later rule.
var slotTimeSubstitutions = map[model.Slot]map[string]string{
	model.SlotMorning: {
		"night":          "morning",
		"twilight":       "dawn",
		"evening":        "morning",
		"sunset":         "sunrise",
		"dusk":           "dawn",
		"late afternoon": "early morning",
		"golden hour":    "golden hour sunrise",
	},
	model.SlotMidday: {
		"night":          "midday",
		"morning":        "midday",
		"dawn":           "midday",
		"sunrise":        "midday",
		"twilight":       "midday",
		"evening":        "midday",
		"sunset":         "midday",
		"dusk":           "midday",
		"late afternoon": "midday",
		"golden hour":    "bright midday",
	},
	model.SlotNight: {
		"morning":     "night",
		"midday":      "night",
		"dawn":        "night",
		"sunrise":     "night",
		"afternoon":   "night",
		"noon":        "night",
		"golden hour": "night",
		"bright":      "dark",
	},
}

var slotAnchorWords = map[model.Slot][]string{
	model.SlotMorning: {"morning", "dawn", "sunrise"},
	model.SlotMidday:  {"midday", "afternoon", "noon"},
	model.SlotNight:   {"night", "evening", "twilight"},
}

var slotSubstitutionPatterns = buildSlotSubstitutionPatterns()

func buildSlotSubstitutionPatterns() map[model.Slot]*regexp.Regexp {
	patterns := make(map[model.Slot]*regexp.Regexp, len(slotTimeSubstitutions))
	for slot, subs := range slotTimeSubstitutions {
		terms := make([]string, 0, len(subs))
		for term := range subs {
			terms = append(terms, term)
		}
		// Longer terms first so "late afternoon" beats "afternoon".
		sort.Slice(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })
		for i, term := range terms {
			terms[i] = regexp.QuoteMeta(term)
		}
		patterns[slot] = regexp.MustCompile("(?i)(" + strings.Join(terms, "|") + ")")
	}
	return patterns
}

// AdjustSceneForSlot rewrites time-of-day vocabulary in a scene description
// so it matches the slot. All substitutions are resolved against the original
// text in one pass.
func AdjustSceneForSlot(description string, slot model.Slot) string {
	subs, ok := slotTimeSubstitutions[slot]
	if !ok {
		return description
	}

	adjusted := slotSubstitutionPatterns[slot].ReplaceAllStringFunc(description, func(match string) string {
		if repl, ok := subs[strings.ToLower(match)]; ok {
			return repl
		}
		return match
	})

	lower := strings.ToLower(adjusted)
	for _, anchor := range slotAnchorWords[slot] {
		if strings.Contains(lower, anchor) {
			return adjusted
		}
	}
	// No slot vocabulary survived the rewrite; anchor the first locative.
	return strings.Replace(adjusted, "at ", "at "+string(slot)+" ", 1)
}

// paletteForScene derives 3-5 color anchors from the scene vocabulary.
func paletteForScene(tpl SceneTemplate) []string {
	desc := strings.ToLower(tpl.Description)
	switch {
	case strings.Contains(desc, "neon") || strings.Contains(desc, "night"):
		return []string{"cyan", "magenta", "amber", "deep blue", "electric pink"}
	case strings.Contains(desc, "sunrise") || strings.Contains(desc, "dawn") || strings.Contains(desc, "golden"):
		return []string{"amber", "peach", "cream", "warm orange", "soft yellow"}
	case strings.Contains(desc, "cherry") || strings.Contains(desc, "sakura") || strings.Contains(desc, "pastel"):
		return []string{"soft pink", "lavender", "pearl white", "mint green", "pale blue"}
	case strings.Contains(desc, "forest") || strings.Contains(desc, "emerald"):
		return []string{"deep emerald", "moss green", "sage", "forest brown", "olive"}
	case strings.Contains(desc, "aurora") || strings.Contains(desc, "polar") || strings.Contains(desc, "cool"):
		return []string{"icy blue", "lilac", "silver", "pale cyan", "frost white"}
	case strings.Contains(desc, "desert") || strings.Contains(desc, "sunset") || strings.Contains(desc, "amber"):
		return []string{"warm amber", "terracotta", "sand", "violet", "burnt orange"}
	default:
		return []string{"warm gray", "soft beige", "muted blue", "sage green", "cream"}
	}
}
