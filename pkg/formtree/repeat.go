package formtree

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formsync/pkg/actions"
	"github.com/goliatone/go-formsync/pkg/element"
)

// ErrNoTemplate is returned when a parent holds no section of the requested
// repeatable name, so there is nothing to clone from.
var ErrNoTemplate = errors.New("formtree: no template section")

// SyncRepeat brings the number of repeatable sections named name under parent
// to target. New sections are clones of the first section (the template),
// carry a delete affordance and are inserted after the last section. Surplus
// sections are removed from the end; the template and any section without a
// delete affordance stay. It returns the resulting number of sections, which
// is larger than target when nothing removable was left.
func SyncRepeat(parent *element.Group, name string, target int) (int, error) {
	sections := parent.Sections(name)
	if len(sections) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoTemplate, name)
	}
	if target < 0 {
		target = 0
	}

	template := sections[0]
	last := sections[len(sections)-1]
	count := len(sections)
	for count < target {
		clone, err := actions.CloneAfter(parent, template, last)
		if err != nil {
			return count, fmt.Errorf("formtree: sync %q: %w", name, err)
		}
		last = clone
		count++
	}

	for count > target {
		victim := lastRemovable(parent.Sections(name))
		if victim == nil {
			break
		}
		if err := actions.Remove(parent, victim); err != nil {
			return count, fmt.Errorf("formtree: sync %q: %w", name, err)
		}
		count--
	}
	return count, nil
}

func lastRemovable(sections []*element.Group) *element.Group {
	for i := len(sections) - 1; i > 0; i-- {
		if sections[i].Removable() {
			return sections[i]
		}
	}
	return nil
}

// syncSections wraps SyncRepeat with reporting and returns the sections in
// document order after syncing.
func (e *Engine) syncSections(parent *element.Group, name string, target int, path string, rec *recorder) []*element.Group {
	count, err := SyncRepeat(parent, name, target)
	if err != nil {
		e.logger.Error().Err(err).Str("path", path).Msg("repeat sync failed")
	}
	switch {
	case count > target && target == 0:
		rec.warn(WarningTemplateRetained, path, "",
			"no entries; the first section stays in the form with empty fields")
	case count > target:
		rec.warn(WarningTemplateRetained, path, "",
			"%d sections have no delete affordance and were kept", count-target)
	}
	e.logger.Debug().Str("path", path).Int("target", target).Int("count", count).Msg("synced repeatable sections")
	return parent.Sections(name)
}
