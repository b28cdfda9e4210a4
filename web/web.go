package web

import "embed"

// Files holds the page templates and static assets.
//
//go:embed templates static
var Files embed.FS
