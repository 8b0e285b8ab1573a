package overrides

import (
	"strings"

	"soundvault/internal/models"
)

// Lookup is the synchronous, non-blocking side of the playback cache.
type Lookup interface {
	Get(id string) (string, bool)
}

// Resolver decides which playback URI replaces an event's default sound.
// Resolution never fails: every problem degrades to "no override".
type Resolver struct {
	cache   Lookup
	catalog *Catalog
}

// NewResolver returns a Resolver over the given cache and catalog.
func NewResolver(cache Lookup, catalog *Catalog) *Resolver {
	return &Resolver{cache: cache, catalog: catalog}
}

// Resolve returns the override URI for eventID, or false to play the default.
func (r *Resolver) Resolve(eventID string, o models.SoundOverride) (string, bool) {
	if !o.Enabled {
		return "", false
	}
	sound := models.SelectedSound(strings.TrimSpace(string(o.SelectedSound)))
	switch sound {
	case "", models.SoundDefault:
		return "", false
	case models.SoundCustom:
		fileID := models.NormalizeFileID(o.SelectedFileID)
		if fileID == "" || r.cache == nil {
			return "", false
		}
		return r.cache.Get(fileID)
	default:
		return r.resolveSeasonal(eventID, string(sound))
	}
}

func (r *Resolver) resolveSeasonal(eventID, key string) (string, bool) {
	if uri, ok := r.catalog.SeasonalURI(key); ok {
		return uri, true
	}
	id, ok := r.catalog.SeasonalIDFor(eventID, key)
	if !ok {
		return "", false
	}
	return r.catalog.SeasonalURI(id)
}

// EffectiveVolume returns the override volume, or DefaultVolume when it is
// missing or out of range.
func EffectiveVolume(o models.SoundOverride) int {
	if o.Volume == nil || !models.IsValidVolume(*o.Volume) {
		return models.DefaultVolume
	}
	return *o.Volume
}

// Gain combines the host's own volume with the override volume.
func Gain(hostVolume float64, o models.SoundOverride) float64 {
	return hostVolume * float64(EffectiveVolume(o)) / float64(models.VolumeMax)
}
