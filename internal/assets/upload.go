package assets

import (
	"fmt"
	"sort"
)

// AcceptedExtensions lists the upload extensions, without dots.
func AcceptedExtensions() []string {
	out := make([]string, 0, len(extensionMediaTypes))
	for ext := range extensionMediaTypes {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// ValidateUploadName rejects file names whose extension is not accepted.
func ValidateUploadName(fileName string) error {
	ext := extensionOf(fileName)
	if _, ok := extensionMediaTypes[ext]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, fileName)
	}
	return nil
}
