package kv

import "context"

// Well-known keys.
const (
	KeyBlobs         = "audio_blobs"
	KeyMetadata      = "audio_metadata"
	KeySchemaVersion = "audio_schema_version"
	KeyOverrides     = "sound_overrides"
)

// Backend is a durable mapping from string keys to JSON values. Writes to
// independent keys are not transactional.
type Backend interface {
	// Get decodes the value stored under key into dest. It reports false when
	// the key is absent.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value any) error
}
