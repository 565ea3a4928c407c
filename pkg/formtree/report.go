package formtree

import (
	"fmt"

	"github.com/rs/zerolog"
)

// WarningKind classifies the recoverable problems met while walking a form.
type WarningKind string

const (
	// WarningMissingKey: a named field or group has no entry in the tree.
	WarningMissingKey WarningKind = "missing_key"
	// WarningInvalidChoice: a choice field was given a value outside its
	// options and kept its previous value.
	WarningInvalidChoice WarningKind = "invalid_choice"
	// WarningTypeMismatch: the tree holds a mapping or sequence where a scalar
	// is expected, or the other way around.
	WarningTypeMismatch WarningKind = "type_mismatch"
	// WarningMergeConflict: Flatten met two values for the same key and kept
	// the last one.
	WarningMergeConflict WarningKind = "merge_conflict"
	// WarningTemplateRetained: a repeatable group was synced to zero sections;
	// the template stays in the form with its fields reset.
	WarningTemplateRetained WarningKind = "template_retained"
)

// Warning is a problem reported to the user; the operation continued with a
// default at Path.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Path    string      `json:"path"`
	Value   string      `json:"value,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// Report collects the warnings of one Flatten or Apply run.
type Report struct {
	Warnings []Warning `json:"warnings,omitempty"`
}

// OK reports whether the run produced no warnings.
func (r *Report) OK() bool {
	return r == nil || len(r.Warnings) == 0
}

// Count returns the number of warnings of the given kind.
func (r *Report) Count(kind WarningKind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, w := range r.Warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// Messages renders every warning as "path: message".
func (r *Report) Messages() []string {
	if r == nil || len(r.Warnings) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.String())
	}
	return out
}

// Notifier surfaces warnings to the user as they happen.
type Notifier interface {
	Notify(Warning)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(Warning)

// Notify calls fn.
func (fn NotifierFunc) Notify(w Warning) {
	fn(w)
}

// LogNotifier writes warnings to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify logs the warning at warn level.
func (n LogNotifier) Notify(w Warning) {
	n.Logger.Warn().
		Str("kind", string(w.Kind)).
		Str("path", w.Path).
		Str("value", w.Value).
		Msg(w.Message)
}

type recorder struct {
	report   *Report
	notifier Notifier
}

func (r *recorder) warn(kind WarningKind, path, value, format string, args ...any) {
	w := Warning{
		Kind:    kind,
		Path:    path,
		Value:   value,
		Message: fmt.Sprintf(format, args...),
	}
	r.report.Warnings = append(r.report.Warnings, w)
	if r.notifier != nil {
		r.notifier.Notify(w)
	}
}
