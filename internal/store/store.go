// Package store persists notebooks.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/cursive/internal/canvas"
	"github.com/example/cursive/internal/ink"
	"github.com/example/cursive/internal/livingfont"
)

// ErrNotFound is returned when deleting a notebook that was never saved.
var ErrNotFound = errors.New("notebook not found")

// Notebook is everything saved for one notebook.
type Notebook struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	// Viewport is the zoom and pan the notebook was saved with. Nil for
	// notebooks saved before it was recorded.
	Viewport *canvas.Viewport `json:"viewport,omitempty"`
	Created  time.Time        `json:"created,omitzero"`
	Updated  time.Time        `json:"updated,omitzero"`
	Drawings []*ink.Drawing   `json:"drawings"`
}

// Summary describes a notebook without its drawings.
type Summary struct {
	ID          string
	Title       string
	Description string
	Drawings    int
	Updated     time.Time
}

func (nb *Notebook) summary() Summary {
	return Summary{
		ID:          nb.ID,
		Title:       nb.Title,
		Description: nb.Description,
		Drawings:    len(nb.Drawings),
		Updated:     nb.Updated,
	}
}

// Store loads and saves notebooks.
type Store interface {
	// Load returns the notebook. A notebook that was never saved comes back
	// empty with only its ID set.
	Load(ctx context.Context, notebookID string) (*Notebook, error)
	// Save replaces the notebook. It sets Updated, and Created on first save.
	Save(ctx context.Context, nb *Notebook) error
	// List returns every saved notebook, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, notebookID string) error
}

// LoadDrawings returns the drawings of a notebook.
func LoadDrawings(ctx context.Context, s Store, notebookID string) ([]*ink.Drawing, error) {
	nb, err := s.Load(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	return nb.Drawings, nil
}

// SaveDrawings replaces the drawings of a notebook and keeps the rest of
// what was saved with it.
func SaveDrawings(ctx context.Context, s Store, notebookID string, drawings []*ink.Drawing) error {
	nb, err := s.Load(ctx, notebookID)
	if err != nil {
		return err
	}
	nb.Drawings = drawings
	return s.Save(ctx, nb)
}

// NewNotebookID returns a fresh notebook identifier.
func NewNotebookID() string {
	return uuid.NewString()
}

// ValidateID rejects identifiers that are not UUIDs.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid notebook id %q: %w", id, err)
	}
	return nil
}

func sortSummaries(list []Summary) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Updated.Equal(list[j].Updated) {
			return list[i].Updated.After(list[j].Updated)
		}
		return list[i].ID < list[j].ID
	})
}

// stamp fills the timestamps of nb as of now, keeping an earlier Created.
func stamp(nb *Notebook, created time.Time, now time.Time) {
	if created.IsZero() {
		created = nb.Created
	}
	if created.IsZero() {
		created = now
	}
	nb.Created = created
	nb.Updated = now
}

// FileStore keeps one JSON file per notebook in Dir.
type FileStore struct {
	Dir string
	now func() time.Time
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir, now: time.Now}
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}

func (s *FileStore) read(id string) (*Notebook, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, err
	}
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, fmt.Errorf("decode notebook %s: %w", id, err)
	}
	nb.ID = id
	return &nb, nil
}

// Load reads a notebook.
func (s *FileStore) Load(ctx context.Context, notebookID string) (*Notebook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateID(notebookID); err != nil {
		return nil, err
	}
	nb, err := s.read(notebookID)
	if errors.Is(err, os.ErrNotExist) {
		return &Notebook{ID: notebookID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load notebook %s: %w", notebookID, err)
	}
	return nb, nil
}

// Save writes nb to disk, replacing any earlier version.
func (s *FileStore) Save(ctx context.Context, nb *Notebook) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateID(nb.ID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	var created time.Time
	if old, err := s.read(nb.ID); err == nil {
		created = old.Created
	}
	out := *nb
	if out.Drawings == nil {
		out.Drawings = []*ink.Drawing{}
	}
	stamp(&out, created, s.now())
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode notebook %s: %w", nb.ID, err)
	}
	if err := livingfont.WriteFile(s.path(nb.ID), data); err != nil {
		return fmt.Errorf("save notebook %s: %w", nb.ID, err)
	}
	nb.Created, nb.Updated = out.Created, out.Updated
	return nil
}

// List reads every notebook file in Dir. Files that do not decode are
// logged and skipped.
func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	var list []Summary
	for _, e := range entries {
		id, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok || ValidateID(id) != nil {
			continue
		}
		nb, err := s.read(id)
		if err != nil {
			log.Printf("store: skipping %s: %v", e.Name(), err)
			continue
		}
		list = append(list, nb.summary())
	}
	sortSummaries(list)
	return list, nil
}

// Delete removes a notebook file.
func (s *FileStore) Delete(ctx context.Context, notebookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateID(notebookID); err != nil {
		return err
	}
	err := os.Remove(s.path(notebookID))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete notebook %s: %w", notebookID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete notebook %s: %w", notebookID, err)
	}
	return nil
}

// MemoryStore keeps notebooks in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu        sync.Mutex
	notebooks map[string]*Notebook
	now       func() time.Time
	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notebooks: map[string]*Notebook{}, now: time.Now}
}

func copyNotebook(nb *Notebook) *Notebook {
	c := *nb
	c.Drawings = append([]*ink.Drawing(nil), nb.Drawings...)
	if nb.Viewport != nil {
		v := *nb.Viewport
		c.Viewport = &v
	}
	return &c
}

func (s *MemoryStore) Load(ctx context.Context, notebookID string) (*Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	nb, ok := s.notebooks[notebookID]
	if !ok {
		return &Notebook{ID: notebookID}, nil
	}
	return copyNotebook(nb), nil
}

func (s *MemoryStore) Save(ctx context.Context, nb *Notebook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	var created time.Time
	if old, ok := s.notebooks[nb.ID]; ok {
		created = old.Created
	}
	stamp(nb, created, s.now())
	s.notebooks[nb.ID] = copyNotebook(nb)
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var list []Summary
	for _, nb := range s.notebooks {
		list = append(list, nb.summary())
	}
	sortSummaries(list)
	return list, nil
}

func (s *MemoryStore) Delete(ctx context.Context, notebookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.notebooks[notebookID]; !ok {
		return fmt.Errorf("delete notebook %s: %w", notebookID, ErrNotFound)
	}
	delete(s.notebooks, notebookID)
	return nil
}
