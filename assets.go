package formsync

import (
	"io/fs"

	"github.com/goliatone/go-formsync/internal/page"
)

// RuntimeAssetsFS exposes the browser script of the form page (section
// buttons, value model, submission) so Go applications can serve it next to
// their own pages.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formsync.RuntimeAssetsFS()),
//	  ),
//	)
func RuntimeAssetsFS() fs.FS {
	return page.AssetsFS()
}

// EmbeddedTemplates exposes the built-in page templates so callers can reuse
// or extend them.
func EmbeddedTemplates() fs.FS {
	return page.TemplatesFS()
}
