package constants

import "strings"

// AllowedExtensions holds the screenshot extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"gif":  {},
	"bmp":  {},
}

// MaxImageBytesDefault caps a single downloaded or uploaded image.
const MaxImageBytesDefault = 20 << 20

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without dot) is an allowed screenshot extension.
func IsImageExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
