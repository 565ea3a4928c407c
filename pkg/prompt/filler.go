// Package prompt fills the fields of a form interactively in the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-formsync/pkg/actions"
	"github.com/goliatone/go-formsync/pkg/element"
	"github.com/goliatone/go-formsync/pkg/values"
)

// Theme captures optional message prefixes.
type Theme struct {
	InfoPrefix string
}

// Filler walks an element tree and asks for a value per field. Repeatable
// sections are visited in order, then the user may add more.
type Filler struct {
	driver Driver
	theme  Theme
}

// Option configures a Filler.
type Option func(*Filler)

// WithDriver overrides the prompt driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(f *Filler) {
		f.theme = theme
	}
}

// New constructs a Filler using the survey driver unless overridden.
func New(options ...Option) *Filler {
	f := &Filler{}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver()
	}
	return f
}

// Fill prompts for every field below root, writing answers into the form.
func (f *Filler) Fill(ctx context.Context, root *element.Group) error {
	if ctx == nil {
		return errors.New("prompt: context is required")
	}
	if root == nil {
		return errors.New("prompt: root group is nil")
	}
	return f.fillGroup(ctx, root, root.Name())
}

func (f *Filler) fillGroup(ctx context.Context, g *element.Group, prefix string) error {
	handled := make(map[string]bool)
	for _, child := range g.Children() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch node := child.(type) {
		case *element.LeafField:
			err = f.fillLeaf(ctx, node, values.JoinPath(prefix, node.Name()))
		case *element.ChoiceField:
			err = f.fillChoice(ctx, node, values.JoinPath(prefix, node.Name()))
		case *element.Group:
			name := node.Name()
			switch {
			case name == "":
				err = f.fillGroup(ctx, node, prefix)
			case node.Repeatable():
				if handled[name] {
					continue
				}
				handled[name] = true
				err = f.fillRepeatable(ctx, g, name, values.JoinPath(prefix, name))
			default:
				err = f.fillGroup(ctx, node, values.JoinPath(prefix, name))
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) fillLeaf(ctx context.Context, leaf *element.LeafField, path string) error {
	if leaf.HTML().DataAtom == atom.Textarea {
		value, err := f.driver.TextArea(ctx, TextAreaConfig{Message: path, Default: leaf.Value()})
		if err != nil {
			return err
		}
		leaf.SetValue(value)
		return nil
	}
	value, err := f.driver.Input(ctx, InputConfig{Message: path, Default: leaf.Value()})
	if err != nil {
		return err
	}
	leaf.SetValue(value)
	return nil
}

func (f *Filler) fillChoice(ctx context.Context, choice *element.ChoiceField, path string) error {
	options := choice.Options()
	if len(options) == 0 {
		return nil
	}
	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      path,
		Options:      options,
		DefaultIndex: indexOf(options, choice.Value()),
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		_ = f.info(ctx, fmt.Sprintf("No option selected for %s; keeping %q", path, choice.Value()))
		return nil
	}
	return choice.SetValue(options[idx])
}

func (f *Filler) fillRepeatable(ctx context.Context, parent *element.Group, name, path string) error {
	sections := parent.Sections(name)
	for i, section := range sections {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if err := f.info(ctx, itemPath); err != nil {
			return err
		}
		if err := f.fillGroup(ctx, section, itemPath); err != nil {
			return err
		}
	}

	template := sections[0]
	last := sections[len(sections)-1]
	for i := len(sections); ; i++ {
		more, err := f.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add another %s?", path),
			Default: false,
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		clone, err := actions.CloneAfter(parent, template, last)
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
		clone.Reset()
		last = clone

		itemPath := fmt.Sprintf("%s[%d]", path, i)
		if err := f.info(ctx, itemPath); err != nil {
			return err
		}
		if err := f.fillGroup(ctx, clone, itemPath); err != nil {
			return err
		}
	}
}

func (f *Filler) info(ctx context.Context, msg string) error {
	return f.driver.Info(ctx, f.theme.InfoPrefix+msg)
}
