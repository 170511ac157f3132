package model

import "fmt"

// Slot identifies a scheduled time-of-day content run.
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotMidday  Slot = "midday"
	SlotNight   Slot = "night"
)

var ValidSlots = []Slot{SlotMorning, SlotMidday, SlotNight}

// ParseSlot validates a raw slot name against the closed slot set.
func ParseSlot(s string) (Slot, error) {
	for _, slot := range ValidSlots {
		if string(slot) == s {
			return slot, nil
		}
	}
	return "", fmt.Errorf("invalid slot %q: must be one of morning, midday, night", s)
}

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Stage names the ordered steps of a pipeline run.
type Stage string

const (
	StagePrompt   Stage = "prompt"
	StageMetadata Stage = "metadata"
	StageAudio    Stage = "audio"
	StageProbe    Stage = "probe"
	StageCover    Stage = "cover"
	StageVideo    Stage = "video"
	StageCompose  Stage = "compose"
	StageCleanup  Stage = "cleanup"
	StagePublish  Stage = "publish"
)
