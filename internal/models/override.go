package models

import (
	"fmt"
	"strings"
)

// SelectedSound names the sound an override plays. Besides the two fixed
// values it may hold a seasonal variant key ("halloween") or a literal
// seasonal id ("halloween_user_join").
type SelectedSound string

const (
	SoundDefault SelectedSound = "default"
	SoundCustom  SelectedSound = "custom"
)

const (
	VolumeMin     = 0
	VolumeMax     = 100
	DefaultVolume = 100
)

// SoundOverride is the per-event user configuration. SelectedFileID is a weak
// reference to an AssetBlob and may dangle after the asset is deleted.
type SoundOverride struct {
	Enabled        bool          `json:"enabled"`
	SelectedSound  SelectedSound `json:"selectedSound"`
	SelectedFileID string        `json:"selectedFileId,omitempty"`
	Volume         *int          `json:"volume,omitempty"`
}

// IsSeasonal reports whether the override selects a seasonal variant.
func (o SoundOverride) IsSeasonal() bool {
	sound := SelectedSound(strings.TrimSpace(string(o.SelectedSound)))
	return sound != "" && sound != SoundDefault && sound != SoundCustom
}

// Validate checks the shape of one override record.
func (o SoundOverride) Validate() error {
	if strings.TrimSpace(string(o.SelectedSound)) == "" {
		return fmt.Errorf("selectedSound is required")
	}
	if o.SelectedSound == SoundCustom && strings.TrimSpace(o.SelectedFileID) == "" {
		return fmt.Errorf("selectedFileId is required when selectedSound is custom")
	}
	if o.Volume != nil && !IsValidVolume(*o.Volume) {
		return fmt.Errorf("volume must be between %d and %d", VolumeMin, VolumeMax)
	}
	return nil
}

// NormalizeFileID returns the canonical form of an asset id reference:
// trimmed lowercase hex.
func NormalizeFileID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// IsValidVolume checks whether volume lies in the supported range.
func IsValidVolume(volume int) bool {
	return volume >= VolumeMin && volume <= VolumeMax
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
