package overrides

import (
	"context"
	"fmt"
	"strings"

	"soundvault/internal/kv"
	"soundvault/internal/models"
)

// Repository persists the override set under one backend key.
type Repository struct {
	backend kv.Backend
}

// NewRepository returns a Repository over backend.
func NewRepository(backend kv.Backend) *Repository {
	return &Repository{backend: backend}
}

// Load returns all overrides keyed by event id.
func (r *Repository) Load(ctx context.Context) (map[string]models.SoundOverride, error) {
	set := map[string]models.SoundOverride{}
	if _, err := r.backend.Get(ctx, kv.KeyOverrides, &set); err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	if set == nil {
		set = map[string]models.SoundOverride{}
	}
	return set, nil
}

// Save replaces the stored override set.
func (r *Repository) Save(ctx context.Context, set map[string]models.SoundOverride) error {
	if set == nil {
		set = map[string]models.SoundOverride{}
	}
	if err := r.backend.Set(ctx, kv.KeyOverrides, set); err != nil {
		return fmt.Errorf("write overrides: %w", err)
	}
	return nil
}

// Put validates and stores one override.
func (r *Repository) Put(ctx context.Context, eventID string, o models.SoundOverride) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return fmt.Errorf("event id is required")
	}
	if err := o.Validate(); err != nil {
		return err
	}
	o.SelectedFileID = models.NormalizeFileID(o.SelectedFileID)
	set, err := r.Load(ctx)
	if err != nil {
		return err
	}
	set[eventID] = o
	return r.Save(ctx, set)
}
