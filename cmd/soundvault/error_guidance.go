package main

import (
	"errors"
	"fmt"
	"strings"

	"soundvault/internal/assets"
	"soundvault/internal/config"
	"soundvault/internal/kv"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var sizeErr *assets.SizeLimitError
	if errors.As(err, &sizeErr) {
		lines = append(lines, fmt.Sprintf("hint: raise the limit with: soundvault config set assets.max_file_size_mb <%s>", joinInts(config.MaxFileSizeOptionsMB, "|")))
	}
	if errors.Is(err, kv.ErrLocked) {
		lines = append(lines,
			"hint: another soundvault process (for example `soundvault watch`) has the database open.",
			"hint: stop it or point SOUNDVAULT_DB at a different database.",
		)
	}
	if errors.Is(err, assets.ErrUnsupportedExtension) {
		lines = append(lines, "hint: accepted extensions: "+strings.Join(assets.AcceptedExtensions(), ", "))
	}
	if errors.Is(err, assets.ErrNotFound) {
		lines = append(lines, "hint: list stored assets with: soundvault assets list")
	}
	var decodeErr *assets.DecodeError
	if errors.As(err, &decodeErr) {
		lines = append(lines, "hint: the file could not be read as audio; re-export it and upload again.")
	}

	return uniqueLines(lines)
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, sep)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
