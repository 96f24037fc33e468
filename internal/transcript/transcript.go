// Package transcript locates and renders recorded agent sessions. Sessions
// live as JSONL files under a projects directory, one subdirectory per
// project, one file per session.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrSessionNotFound indicates no session file exists for the given ID.
var ErrSessionNotFound = errors.New("session not found")

// SessionInfo describes one recorded session on disk.
type SessionInfo struct {
	ID       string
	Project  string
	Path     string
	Modified time.Time
}

// Index provides lookup over the session storage directory.
type Index struct {
	root string
}

// DefaultRoot returns the standard session storage location under the
// user's home directory.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".claude", "projects")
	}
	return filepath.Join(home, ".claude", "projects")
}

// NewIndex creates an index over the given root directory. An empty root
// selects the default location.
func NewIndex(root string) *Index {
	if root == "" {
		root = DefaultRoot()
	}
	return &Index{root: root}
}

// FindSession returns the path of the session file with the given ID,
// searching every project directory.
func (ix *Index) FindSession(sessionID string) (string, error) {
	entries, err := os.ReadDir(ix.root)
	if err != nil {
		return "", fmt.Errorf("failed to read projects directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(ix.root, entry.Name(), sessionID+".jsonl")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

// ProjectName derives the project name for a session file. The project
// directory's sessions-index.json is consulted first; the directory name
// is the fallback.
func (ix *Index) ProjectName(sessionPath string) string {
	dir := filepath.Dir(sessionPath)

	data, err := os.ReadFile(filepath.Join(dir, "sessions-index.json"))
	if err == nil {
		var index struct {
			Entries []struct {
				ProjectPath string `json:"projectPath"`
			} `json:"entries"`
		}
		if json.Unmarshal(data, &index) == nil && len(index.Entries) > 0 {
			if p := index.Entries[0].ProjectPath; p != "" {
				return filepath.Base(p)
			}
		}
	}

	return filepath.Base(dir)
}

// ListSessions returns all sessions on disk, newest first. A non-empty
// project filters to sessions of that project.
func (ix *Index) ListSessions(project string) ([]SessionInfo, error) {
	entries, err := os.ReadDir(ix.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects directory: %w", err)
	}

	var sessions []SessionInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(ix.root, entry.Name())

		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		var name string
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".jsonl") {
				continue
			}
			if name == "" {
				name = ix.ProjectName(filepath.Join(dir, file.Name()))
			}
			if project != "" && name != project {
				break
			}
			info, err := file.Info()
			if err != nil {
				continue
			}
			sessions = append(sessions, SessionInfo{
				ID:       strings.TrimSuffix(file.Name(), ".jsonl"),
				Project:  name,
				Path:     filepath.Join(dir, file.Name()),
				Modified: info.ModTime(),
			})
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Modified.After(sessions[j].Modified)
	})

	return sessions, nil
}
