package page

import (
	"embed"
	"io/fs"
)

//go:embed assets/*.js
var embeddedAssets embed.FS

// DefaultAssetsPath is where the server mounts AssetsFS.
const DefaultAssetsPath = "/assets"

// AssetsFS exposes the browser script the page loads for its section
// buttons and for posting the value model.
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}

// TemplatesFS exposes the embedded page templates so deployments can copy
// and restyle them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return embedded
	}
	return sub
}
