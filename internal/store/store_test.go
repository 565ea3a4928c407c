package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formsync/pkg/values"
)

func TestSaveGetList(t *testing.T) {
	s, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	tree := values.Tree{"site": map[string]any{"name": "lab"}}

	sub, err := s.Save(ctx, tree)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if sub.ID == "" || sub.Size == 0 {
		t.Fatalf("unexpected submission %+v", sub)
	}

	data, err := s.Get(ctx, sub.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(map[string]any(tree), got); diff != "" {
		t.Fatalf("stored tree mismatch (-want +got):\n%s", diff)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != sub.ID {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestGetRejectsUnknownIDs(t *testing.T) {
	s, err := New(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, id := range []string{"../etc/passwd", "not-a-uuid", "6f1c1f5e-3c0a-4a4e-9a53-0c7f7f4e8b11"} {
		if _, err := s.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q): expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestNewRequiresDir(t *testing.T) {
	if _, err := New(" ", zerolog.Nop()); err == nil {
		t.Fatalf("expected error for empty dir")
	}
}
