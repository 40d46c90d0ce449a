// Package movielib provides embedded assets for production builds.
package movielib

import "embed"

// TemplateFS holds the page templates. In dev mode templates are read from
// disk instead so edits show up without a rebuild.
//
//go:embed frontend/templates/*.html
var TemplateFS embed.FS
