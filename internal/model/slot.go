package model

// SlotConfig holds the static thematic parameters of a time-of-day slot.
type SlotConfig struct {
	ID          Slot
	Vibe        string
	Genre       string
	PromptStyle string
}

// SlotRegistry is the fixed registry of configured slots. Entries are
// immutable; a run selects its entry exactly once at startup.
var SlotRegistry = map[Slot]SlotConfig{
	SlotMorning: {
		ID:          SlotMorning,
		Vibe:        "calm and refreshing",
		Genre:       "city pop",
		PromptStyle: "sunrise, retro Tokyo skyline, warm lighting, anime-style aesthetic",
	},
	SlotMidday: {
		ID:          SlotMidday,
		Vibe:        "bright and energetic",
		Genre:       "city pop",
		PromptStyle: "bustling Shibuya street, 80s fashion, urban daylight, vaporwave tones",
	},
	SlotNight: {
		ID:          SlotNight,
		Vibe:        "dreamy and nostalgic",
		Genre:       "city pop",
		PromptStyle: "neon-lit Tokyo alley, reflections on wet pavement, retro anime mood",
	},
}
