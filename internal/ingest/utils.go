package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/screenwiper/constants"
	"github.com/joseph-ayodele/screenwiper/internal/entity"
)

// AllowedExt checks if a file extension is in the screenshot set.
func AllowedExt(ext string) bool {
	return constants.IsImageExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && strings.HasPrefix(base, ".")
}

// RefForPath builds the local-file image reference used by the batch CLI.
func RefForPath(path string) entity.ImageRef {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return entity.ImageRef{URL: abs, Filename: filepath.Base(abs)}
}
