package overrides

import (
	"strings"

	"soundvault/internal/models"
)

// StateKind is the effective sound selected by an override.
type StateKind string

const (
	StateDisabled StateKind = "disabled"
	StateDefault  StateKind = "default"
	StateCustom   StateKind = "custom"
	StateSeasonal StateKind = "seasonal"
)

// State is an override's position in the Disabled/Default/Custom/Seasonal
// state machine. Ref carries the file id or seasonal key.
type State struct {
	Kind StateKind `json:"kind"`
	Ref  string    `json:"ref,omitempty"`
}

// StateOf classifies an override.
func StateOf(o models.SoundOverride) State {
	if !o.Enabled {
		return State{Kind: StateDisabled}
	}
	switch {
	case o.SelectedSound == models.SoundCustom:
		return State{Kind: StateCustom, Ref: models.NormalizeFileID(o.SelectedFileID)}
	case o.IsSeasonal():
		return State{Kind: StateSeasonal, Ref: strings.TrimSpace(string(o.SelectedSound))}
	default:
		return State{Kind: StateDefault}
	}
}

// ResetSeasonal moves every seasonal override back to the default sound and
// returns how many changed. The map is updated in place.
func ResetSeasonal(set map[string]models.SoundOverride) int {
	changed := 0
	for eventID, o := range set {
		if !o.IsSeasonal() {
			continue
		}
		o.SelectedSound = models.SoundDefault
		set[eventID] = o
		changed++
	}
	return changed
}
