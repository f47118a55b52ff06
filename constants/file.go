package constants

import "strings"

// SupportedImageExtensions holds the image extensions accepted for receipt
// uploads, lowercased and without the dot.
var SupportedImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"bmp":  {},
	"webp": {},
	"tiff": {},
}

// DefaultImageExt is assumed when an upload carries no usable extension.
const DefaultImageExt = "jpg"

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsSupportedImageExt reports whether ext (with or without a leading dot)
// is in the supported set.
func IsSupportedImageExt(ext string) bool {
	_, ok := SupportedImageExtensions[NormalizeExt(ext)]
	return ok
}
