package page

import (
	"io"

	"github.com/goliatone/go-formsync/internal/store"
	"github.com/goliatone/go-formsync/pkg/formtree"
)

// Form is the data of the form page.
type Form struct {
	Title           string             `json:"title"`
	Notice          string             `json:"notice,omitempty"`
	SectionSelector string             `json:"section_selector"`
	AssetsPath      string             `json:"assets_path"`
	Sections        []string           `json:"sections"`
	Warnings        []formtree.Warning `json:"warnings,omitempty"`
	Submissions     []store.Submission `json:"submissions,omitempty"`
}

// RenderForm writes the form page. An empty AssetsPath means
// DefaultAssetsPath.
func (e *Engine) RenderForm(w io.Writer, data Form) error {
	if data.AssetsPath == "" {
		data.AssetsPath = DefaultAssetsPath
	}
	return e.Render(w, "page", data)
}
