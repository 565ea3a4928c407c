package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formsync/internal/page"
	"github.com/goliatone/go-formsync/internal/store"
	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/formtree"
	"github.com/goliatone/go-formsync/pkg/values"
)

type submitResponse struct {
	ID       string             `json:"id"`
	Warnings []formtree.Warning `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	doc := s.holder.Get().Clone()
	s.renderPage(w, r, doc, page.Form{})
}

// handleLoad applies an uploaded value file to every section of a fresh copy
// of the document.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUpload)
	if err := r.ParseMultipartForm(s.cfg.Server.MaxUpload); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}
	file, header, err := r.FormFile("values")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("values file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read values file: %w", err))
		return
	}
	tree, err := values.Decode(data, values.FormatFromPath(header.Filename))
	if err != nil {
		s.metrics.ObserveOperation("apply", err, nil)
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	doc := s.holder.Get().Clone()
	report, err := s.apply(doc, tree)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info().
		Str("file", header.Filename).
		Int("warnings", len(report.Warnings)).
		Msg("loaded values into form")

	s.renderPage(w, r, doc, page.Form{
		Notice:   "Loaded " + header.Filename,
		Warnings: report.Warnings,
	})
}

// handleSubmit stores the tree posted by the page script. The tree is also
// applied to a copy of the document so the caller learns which keys the form
// could not place.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUpload)
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse form: %w", err))
		return
	}
	raw := r.PostFormValue("config")
	if strings.TrimSpace(raw) == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("config field is empty"))
		return
	}
	tree, err := values.Decode([]byte(raw), values.FormatJSON)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.apply(s.holder.Get().Clone(), tree)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	sub, err := s.store.Save(r.Context(), tree)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if s.metrics != nil {
		s.metrics.Submissions.Inc()
		s.metrics.SubmissionBytes.Observe(float64(sub.Size))
	}
	s.logger.Info().
		Str("id", sub.ID).
		Int("bytes", sub.Size).
		Int("warnings", len(report.Warnings)).
		Msg("stored submission")

	if wantsJSON(r) {
		s.writeJSON(w, http.StatusCreated, submitResponse{ID: sub.ID, Warnings: report.Warnings})
		return
	}
	s.renderPage(w, r, s.holder.Get().Clone(), page.Form{
		Notice:   "Saved submission " + sub.ID,
		Warnings: report.Warnings,
	})
}

// handleValues flattens the served document into a value file, the server
// side of the page's "Download JSON" button. Colliding keys follow the
// configured merge policy.
func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	format, err := values.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	sections, err := s.holder.Get().Clone().Sections(s.cfg.Form.Section)
	if err != nil {
		s.metrics.ObserveOperation("flatten", err, nil)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	tree, report, err := s.engine.FlattenSections(sections...)
	s.metrics.ObserveOperation("flatten", err, warningKinds(report))
	if err != nil {
		var conflict *values.ConflictError
		if errors.As(err, &conflict) {
			s.writeError(w, http.StatusConflict, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	data, err := values.Encode(tree, format)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "values."+string(format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", values.FormatJSON.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".json"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// apply runs the engine over every configured section of doc.
func (s *Server) apply(doc *element.Document, tree values.Tree) (*formtree.Report, error) {
	sections, err := doc.Sections(s.cfg.Form.Section)
	if err != nil {
		s.metrics.ObserveOperation("apply", err, nil)
		return nil, err
	}
	merged := &formtree.Report{}
	for _, section := range sections {
		report := s.engine.Apply(section, tree)
		merged.Warnings = append(merged.Warnings, report.Warnings...)
	}
	s.metrics.ObserveOperation("apply", nil, warningKinds(merged))
	return merged, nil
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, doc *element.Document, data page.Form) {
	opts := []element.RenderOption{element.WithMinify(s.cfg.Form.Minify)}
	for _, node := range doc.Select(s.cfg.Form.Section) {
		var b strings.Builder
		if err := element.RenderNode(&b, node, opts...); err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		data.Sections = append(data.Sections, b.String())
	}

	subs, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("list submissions")
	}
	data.Submissions = subs
	data.Title = s.cfg.Form.Title
	data.SectionSelector = s.cfg.Form.Section

	var b strings.Builder
	if err := s.pages.RenderForm(&b, data); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, b.String())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	} else {
		s.logger.Debug().Err(err).Msg("bad request")
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func warningKinds(report *formtree.Report) []string {
	if report.OK() {
		return nil
	}
	kinds := make([]string, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		kinds = append(kinds, string(w.Kind))
	}
	return kinds
}
