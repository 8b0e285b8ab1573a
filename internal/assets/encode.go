package assets

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

const (
	dataURIPrefix      = "data:"
	base64Marker       = ";base64,"
	fallbackAudioMedia = "audio/mpeg"
)

// extensionMediaTypes maps accepted upload extensions to playback media types.
var extensionMediaTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"webm": "audio/webm",
	"wma":  "audio/x-ms-wma",
	"mp4":  "audio/mp4",
}

var genericMediaTypes = map[string]struct{}{
	"":                         {},
	"application/octet-stream": {},
	"binary/octet-stream":      {},
	"audio/*":                  {},
}

// EncodeDataURI encodes raw bytes as a base64 data URI carrying mediaType.
func EncodeDataURI(mediaType string, raw []byte) string {
	var b strings.Builder
	b.Grow(len(dataURIPrefix) + len(mediaType) + len(base64Marker) + base64.StdEncoding.EncodedLen(len(raw)))
	b.WriteString(dataURIPrefix)
	b.WriteString(mediaType)
	b.WriteString(base64Marker)
	b.WriteString(base64.StdEncoding.EncodeToString(raw))
	return b.String()
}

// DecodeDataURI splits a base64 data URI into its media type and raw bytes.
func DecodeDataURI(uri string) (string, []byte, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return "", nil, fmt.Errorf("not a data uri")
	}
	rest := uri[len(dataURIPrefix):]
	idx := strings.Index(rest, base64Marker)
	if idx < 0 {
		return "", nil, fmt.Errorf("data uri is not base64 encoded")
	}
	mediaType := rest[:idx]
	raw, err := base64.StdEncoding.DecodeString(rest[idx+len(base64Marker):])
	if err != nil {
		return "", nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return mediaType, raw, nil
}

// dataURIMediaType returns the media type in the header of uri without
// decoding the payload.
func dataURIMediaType(uri string) string {
	rest, ok := strings.CutPrefix(uri, dataURIPrefix)
	if !ok {
		return ""
	}
	mediaType, _, ok := strings.Cut(rest, base64Marker)
	if !ok {
		return ""
	}
	return mediaType
}

// ResolveMediaType returns the declared media type when it is specific, and
// otherwise looks the file extension up.
func ResolveMediaType(declared, fileName string) string {
	if normalized := normalizeMediaType(declared); !isGenericMediaType(normalized) {
		return normalized
	}
	if mediaType, ok := extensionMediaTypes[extensionOf(fileName)]; ok {
		return mediaType
	}
	return fallbackAudioMedia
}

func normalizeMediaType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parsed))
}

func isGenericMediaType(mediaType string) bool {
	_, ok := genericMediaTypes[mediaType]
	return ok
}

func extensionOf(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(strings.TrimSpace(fileName)), "."))
}
