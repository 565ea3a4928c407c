// Package store keeps submitted value trees as JSON files on local disk.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formsync/pkg/values"
)

// ErrNotFound is returned for unknown or malformed submission ids.
var ErrNotFound = errors.New("store: submission not found")

// Submission describes a stored value tree.
type Submission struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Size      int       `json:"size"`
}

// Store writes submissions below a directory, one file per submission.
type Store struct {
	mu     sync.Mutex
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

// New creates the directory when missing.
func New(dir string, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create dir: %w", err)
	}
	return &Store{dir: dir, logger: logger, now: time.Now}, nil
}

// Save encodes tree as indented JSON and stores it under a new id.
func (s *Store) Save(ctx context.Context, tree values.Tree) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	data, err := values.Encode(tree, values.FormatJSON)
	if err != nil {
		return Submission{}, fmt.Errorf("store: encode: %w", err)
	}

	sub := Submission{ID: uuid.NewString(), CreatedAt: s.now().UTC(), Size: len(data)}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp := s.path(sub.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Submission{}, fmt.Errorf("store: write: %w", err)
	}
	if err := os.Rename(tmp, s.path(sub.ID)); err != nil {
		_ = os.Remove(tmp)
		return Submission{}, fmt.Errorf("store: commit: %w", err)
	}

	s.logger.Info().Str("id", sub.ID).Int("bytes", sub.Size).Msg("submission stored")
	return sub, nil
}

// Get returns the stored JSON document for id.
func (s *Store) Get(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read: %w", err)
	}
	return data, nil
}

// List returns stored submissions, newest first.
func (s *Store) List(ctx context.Context) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	var out []Submission
	for _, entry := range entries {
		id, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok || entry.IsDir() {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Submission{ID: id, CreatedAt: info.ModTime().UTC(), Size: int(info.Size())})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
