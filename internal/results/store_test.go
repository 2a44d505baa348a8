package results

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestSaveFixedFileIsOverwritten(t *testing.T) {
	store := New(Config{Dir: t.TempDir()})

	first, err := store.Save("", map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	second, err := store.Save("", map[string]any{"b": 2})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if first != second || filepath.Base(first) != DefaultFile {
		t.Fatalf("expected both saves to hit %s, got %s and %s", DefaultFile, first, second)
	}

	got, err := store.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	m, ok := got.(map[string]any)
	if !ok || m["b"] != float64(2) || m["a"] != nil {
		t.Fatalf("expected last write to win, got %#v", got)
	}
}

func TestSaveByRequestID(t *testing.T) {
	dir := t.TempDir()
	store := New(Config{Dir: dir})

	path, err := store.Save("req-42", []string{"x"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if path != filepath.Join(dir, "req-42.json") {
		t.Fatalf("unexpected path %s", path)
	}

	latest, err := store.Load("")
	if err != nil {
		t.Fatalf("expected the fixed file to hold the latest result: %v", err)
	}
	if l, ok := latest.([]any); !ok || len(l) != 1 || l[0] != "x" {
		t.Fatalf("unexpected latest result %#v", latest)
	}
}

func TestFixedFileFollowsLatestRequest(t *testing.T) {
	store := New(Config{Dir: t.TempDir()})

	if _, err := store.Save("req-1", map[string]any{"overall_score": 40}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save("req-2", map[string]any{"overall_score": 90}); err != nil {
		t.Fatalf("save: %v", err)
	}

	latest, err := store.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m := latest.(map[string]any); m["overall_score"] != float64(90) {
		t.Fatalf("expected the last request in the fixed file, got %#v", m)
	}

	first, err := store.Load("req-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m := first.(map[string]any); m["overall_score"] != float64(40) {
		t.Fatalf("expected request file to keep its own result, got %#v", m)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	store := New(Config{Dir: t.TempDir()})

	if _, err := store.Save("../escape", 1); !errors.Is(err, ErrInvalidKeyID) {
		t.Fatalf("expected ErrInvalidKeyID, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	store := New(Config{Dir: t.TempDir()})

	if _, err := store.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentSavesLeaveValidJSON(t *testing.T) {
	dir := t.TempDir()
	store := New(Config{Dir: dir})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.Save("", map[string]any{"writer": fmt.Sprint(i)}); err != nil {
				t.Errorf("save %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	if _, err := store.Load(""); err != nil {
		t.Fatalf("expected a readable result after concurrent writes: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}
