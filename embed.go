// Package partnercat embeds the web resources (templates, static files)
// that the partnercat server uses by default.
package partnercat

import "embed"

//go:embed templates static
var Files embed.FS
