package media

import "strings"

// Normalize converts a media path into a store key by removing the leading
// path separator. A run of leading separators is removed as a whole, so
// "//a.jpg" becomes "a.jpg" rather than "/a.jpg"; this keeps Normalize
// idempotent, since store keys never start with "/".
//
//	Normalize("/media/2024/a.jpg") == "media/2024/a.jpg"
func Normalize(mediaPath string) string {
	return strings.TrimLeft(mediaPath, "/")
}
