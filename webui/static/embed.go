// Package static embeds the single-page upload UI.
package static

import (
	"embed"
	"io/fs"
)

//go:embed index.html
var files embed.FS

// FS returns the embedded filesystem.
func FS() fs.FS {
	return files
}

// ReadFile reads a file from the embedded filesystem.
func ReadFile(name string) ([]byte, error) {
	return files.ReadFile(name)
}
