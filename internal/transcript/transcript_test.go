package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func makeProjectDir(t *testing.T, root, dirName string, sessionIDs ...string) string {
	t.Helper()
	dir := filepath.Join(root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create project dir: %v", err)
	}
	for _, id := range sessionIDs {
		path := filepath.Join(dir, id+".jsonl")
		if err := os.WriteFile(path, []byte(`{"type":"user","message":{"content":"hi"}}`), 0o644); err != nil {
			t.Fatalf("failed to write session: %v", err)
		}
	}
	return dir
}

func TestFindSession(t *testing.T) {
	root := t.TempDir()
	makeProjectDir(t, root, "-home-user-code-myapp", "abc123")
	makeProjectDir(t, root, "-home-user-code-other", "def456")

	ix := NewIndex(root)

	path, err := ix.FindSession("abc123")
	if err != nil {
		t.Fatalf("FindSession() unexpected error: %v", err)
	}
	if filepath.Base(path) != "abc123.jsonl" {
		t.Errorf("FindSession() = %q, want abc123.jsonl", path)
	}

	_, err = ix.FindSession("missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("FindSession() error = %v, want ErrSessionNotFound", err)
	}
}

func TestProjectName(t *testing.T) {
	root := t.TempDir()

	t.Run("from sessions index", func(t *testing.T) {
		dir := makeProjectDir(t, root, "-home-user-code-myapp", "s1")
		index := `{"entries":[{"projectPath":"/home/user/code/myapp"}]}`
		if err := os.WriteFile(filepath.Join(dir, "sessions-index.json"), []byte(index), 0o644); err != nil {
			t.Fatal(err)
		}

		ix := NewIndex(root)
		got := ix.ProjectName(filepath.Join(dir, "s1.jsonl"))
		if got != "myapp" {
			t.Errorf("ProjectName() = %q, want myapp", got)
		}
	})

	t.Run("fallback to directory name", func(t *testing.T) {
		dir := makeProjectDir(t, root, "plain-dir", "s2")
		ix := NewIndex(root)
		got := ix.ProjectName(filepath.Join(dir, "s2.jsonl"))
		if got != "plain-dir" {
			t.Errorf("ProjectName() = %q, want plain-dir", got)
		}
	})
}

func TestListSessions(t *testing.T) {
	root := t.TempDir()
	dirA := makeProjectDir(t, root, "proj-a", "a1", "a2")
	makeProjectDir(t, root, "proj-b", "b1")

	// Make a1 the newest for a stable order check.
	newest := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dirA, "a1.jsonl"), newest, newest); err != nil {
		t.Fatal(err)
	}

	ix := NewIndex(root)

	all, err := ix.ListSessions("")
	if err != nil {
		t.Fatalf("ListSessions() unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListSessions() returned %d sessions, want 3", len(all))
	}
	if all[0].ID != "a1" {
		t.Errorf("expected newest session first, got %q", all[0].ID)
	}

	filtered, err := ix.ListSessions("proj-b")
	if err != nil {
		t.Fatalf("ListSessions(proj-b) unexpected error: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "b1" {
		t.Errorf("ListSessions(proj-b) = %+v, want only b1", filtered)
	}
}
