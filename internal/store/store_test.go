package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/cursive/internal/canvas"
	"github.com/example/cursive/internal/ink"
)

func sampleDrawings() []*ink.Drawing {
	d := ink.NewDrawing(ink.KindHandwriting, 1000)
	d = d.WithStroke(&ink.Stroke{
		ID:        "s1",
		Points:    []ink.Point{{X: 1, Y: 2, Pressure: 0.5, T: 1001}, {X: 3, Y: 4, Pressure: 0.75}},
		Color:     "#000000",
		Width:     2,
		Timestamp: 1000,
	})
	return []*ink.Drawing{d.WithTranscription("hi", "hello")}
}

// clock returns a fake time source that advances one minute per call.
func clock() func() time.Time {
	t := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())
	s.now = clock()
	ctx := context.Background()
	id := NewNotebookID()

	got, err := s.Load(ctx, id)
	if err != nil || got.ID != id || got.Drawings != nil {
		t.Fatalf("missing notebook: %+v, %v", got, err)
	}
	want := &Notebook{
		ID:          id,
		Title:       "Algebra",
		Description: "week 3",
		Viewport:    &canvas.Viewport{Scale: 2, PanX: -30, PanY: 12.5},
		Drawings:    sampleDrawings(),
	}
	if err := s.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	if want.Created.IsZero() || !want.Created.Equal(want.Updated) {
		t.Fatalf("first save should stamp created and updated: %+v", want)
	}
	got, err = s.Load(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("notebook (-want +got):\n%s", d)
	}

	created := want.Created
	want.Title = "Algebra II"
	if err := s.Save(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Load(ctx, id)
	if !got.Created.Equal(created) || !got.Updated.After(created) || got.Title != "Algebra II" {
		t.Errorf("resave: created %v updated %v title %q", got.Created, got.Updated, got.Title)
	}
}

func TestSaveDrawingsKeepsMetadata(t *testing.T) {
	s := NewFileStore(t.TempDir())
	ctx := context.Background()
	id := NewNotebookID()
	view := &canvas.Viewport{Scale: 1.5}
	if err := s.Save(ctx, &Notebook{ID: id, Title: "Essay", Viewport: view}); err != nil {
		t.Fatal(err)
	}
	want := sampleDrawings()
	if err := SaveDrawings(ctx, s, id, want); err != nil {
		t.Fatal(err)
	}
	got, err := LoadDrawings(ctx, s, id)
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("drawings (-want +got):\n%s", d)
	}
	nb, _ := s.Load(ctx, id)
	if nb.Title != "Essay" || nb.Viewport == nil || *nb.Viewport != *view {
		t.Errorf("metadata lost: %+v", nb)
	}
	if _, err := LoadDrawings(ctx, s, "nope"); err == nil {
		t.Error("expected error for a bad id")
	}
}

func TestFileStoreLoadsFilesWithoutMetadata(t *testing.T) {
	dir := t.TempDir()
	id := NewNotebookID()
	data := `{"id":"` + id + `","drawings":[]}`
	if err := os.WriteFile(filepath.Join(dir, id+".json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	nb, err := NewFileStore(dir).Load(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if nb.Viewport != nil || nb.Title != "" || len(nb.Drawings) != 0 {
		t.Errorf("got %+v", nb)
	}
}

func TestFileStoreRejectsBadID(t *testing.T) {
	s := NewFileStore(t.TempDir())
	if err := s.Save(context.Background(), &Notebook{ID: "../escape"}); err == nil {
		t.Error("expected error for non-uuid id")
	}
	if err := s.Delete(context.Background(), "../escape"); err == nil {
		t.Error("expected error deleting a non-uuid id")
	}
}

func TestFileStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewFileStore(t.TempDir())
	if _, err := s.Load(ctx, NewNotebookID()); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if _, err := s.List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestFileStoreListAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	s.now = clock()
	ctx := context.Background()

	list, err := s.List(ctx)
	if err != nil || len(list) != 0 {
		t.Fatalf("empty store: %v, %v", list, err)
	}

	older, newer := NewNotebookID(), NewNotebookID()
	if err := s.Save(ctx, &Notebook{ID: older, Title: "first", Drawings: sampleDrawings()}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, &Notebook{ID: newer, Title: "second", Description: "scratch"}); err != nil {
		t.Fatal(err)
	}
	// Files that are not notebooks are ignored or skipped.
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, NewNotebookID()+".json"), []byte("{broken"), 0o644)

	list, err = s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(list))
	for i, sum := range list {
		got[i] = sum.Title
	}
	if d := cmp.Diff([]string{"second", "first"}, got); d != "" {
		t.Fatalf("titles (-want +got):\n%s", d)
	}
	if list[0].Description != "scratch" || list[1].Drawings != 1 || list[0].ID != newer {
		t.Errorf("summaries %+v", list)
	}

	if err := s.Delete(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, older); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	list, _ = s.List(ctx)
	if len(list) != 1 || list[0].ID != newer {
		t.Errorf("after delete %+v", list)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	s.now = clock()
	ctx := context.Background()
	want := sampleDrawings()
	if err := s.Save(ctx, &Notebook{ID: "nb", Drawings: want, Viewport: &canvas.Viewport{Scale: 3}}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Load(ctx, "nb")
	if len(got.Drawings) != 1 || got.Drawings[0] != want[0] || got.Viewport.Scale != 3 {
		t.Errorf("got %+v", got)
	}
	got.Viewport.Scale = 9
	again, _ := s.Load(ctx, "nb")
	if again.Viewport.Scale != 3 {
		t.Error("Load must return a copy")
	}
	if err := s.Save(ctx, &Notebook{ID: "other", Title: "later"}); err != nil {
		t.Fatal(err)
	}
	list, _ := s.List(ctx)
	if len(list) != 2 || list[0].ID != "other" {
		t.Errorf("list %+v", list)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	s.Err = errors.New("offline")
	if err := s.Save(ctx, &Notebook{ID: "nb"}); err == nil {
		t.Error("expected injected error")
	}
}
