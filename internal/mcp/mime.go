package mcp

import (
	"path/filepath"
	"strings"
)

// mimeTypes maps file extensions to MIME types for resource metadata.
// The indexed languages come first; the rest cover files a project
// commonly carries next to them.
var mimeTypes = map[string]string{
	".java": "text/x-java",
	".ts":   "text/typescript",
	".tsx":  "text/typescript",
	".js":   "text/javascript",
	".jsx":  "text/javascript",

	".json": "application/json",
	".xml":  "text/xml",
	".yaml": "text/x-yaml",
	".yml":  "text/x-yaml",
	".md":   "text/markdown",
}

// MimeTypeForPath maps a file path to the MIME type advertised on its
// resource. Unknown extensions fall back to text/plain.
func MimeTypeForPath(path string) string {
	if mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "text/plain"
}
