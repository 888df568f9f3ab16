package assets

import "strings"

// DestinationPath derives the storage path of a sound preview from the
// record's cover image path. Every "jpg" in the path becomes "mp3", not only
// the extension; catalog rows written so far rely on that mapping.
func DestinationPath(previewURL string) string {
	return strings.ReplaceAll(previewURL, "jpg", "mp3")
}
