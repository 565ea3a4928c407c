// Package actions implements the form button handlers as operations on the
// element tree: toggling a presentation class, duplicating a repeatable
// section and removing a duplicated one.
package actions

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formsync/pkg/element"
)

var (
	// ErrUnnamedSection is returned when duplicating a section without a name;
	// its copies could not be told apart in the value tree.
	ErrUnnamedSection = errors.New("actions: section has no name")
	// ErrNotRemovable is returned when removing a section without a delete
	// affordance (the template of a repeatable group).
	ErrNotRemovable = errors.New("actions: section is not removable")
)

// ToggleClass flips class on the group element and reports whether it is now
// present. The collapsible headers of a form use it to show or hide a block.
func ToggleClass(g *element.Group, class string) bool {
	return g.ToggleClass(class)
}

// Duplicate clones section and inserts the copy right after it, the way the
// add button copies the section preceding it. The copy carries a delete
// affordance.
func Duplicate(parent, section *element.Group) (*element.Group, error) {
	return CloneAfter(parent, section, section)
}

// CloneAfter clones source and inserts the copy right after ref. Both must be
// named sections; the copy carries a delete affordance.
func CloneAfter(parent, source, ref *element.Group) (*element.Group, error) {
	if source.Name() == "" {
		return nil, ErrUnnamedSection
	}
	clone := source.Clone()
	clone.EnsureRemovable()
	if err := parent.InsertAfter(ref, clone); err != nil {
		return nil, fmt.Errorf("actions: duplicate %q: %w", source.Name(), err)
	}
	return clone, nil
}

// Remove detaches a duplicated section from parent.
func Remove(parent, section *element.Group) error {
	if !section.Removable() {
		return fmt.Errorf("%w: %q", ErrNotRemovable, section.Name())
	}
	if err := parent.RemoveChild(section); err != nil {
		return fmt.Errorf("actions: remove %q: %w", section.Name(), err)
	}
	return nil
}
