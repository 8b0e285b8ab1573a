package playback

import "math"

const (
	mib = 1024 * 1024

	// EncodingOverhead is the base64 data URI expansion over raw bytes.
	EncodingOverhead = 1.37
	// TargetConcurrentFiles is how many max-size files the cache should hold.
	TargetConcurrentFiles = 4

	MinCapacityMB = 32
	MaxCapacityMB = 256
)

// CapacityForMaxFileSize derives the cache byte budget from the per-file
// upload ceiling in MiB.
func CapacityForMaxFileSize(maxFileSizeMB int) int64 {
	mb := float64(maxFileSizeMB) * EncodingOverhead * TargetConcurrentFiles
	mb = math.Max(MinCapacityMB, math.Min(MaxCapacityMB, mb))
	return int64(mb * mib)
}
