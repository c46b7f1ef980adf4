package storage

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// SanitizeName returns a filesystem-safe version of one path segment.
// Separators and parent references are removed before anything else.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = unsafeNameChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, ".")
}

// OwnerExportName places an export file under the owner's folder: {owner}/{file}.
// An owner that sanitizes to nothing is filed under "shared".
func OwnerExportName(ownerID, filename string) string {
	owner := SanitizeName(ownerID)
	if owner == "" {
		owner = "shared"
	}
	file := SanitizeName(filename)
	if file == "" {
		file = "invoice"
	}
	return filepath.Join(owner, file)
}
