// Package assets embeds the files shipped inside the binary.
package assets

import "embed"

//go:embed migrations
var EmbeddedFiles embed.FS
