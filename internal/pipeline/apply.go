package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DefaultDocumentName is the file name the guidance document is applied
// under when none is configured.
const DefaultDocumentName = "AGENTS.md"

// ApplyResult reports what an Apply call wrote.
type ApplyResult struct {
	Copied []string
	Backup string
}

// Apply copies the latest generated bundle into a project tree: the
// guidance document at the target root and skills under skills/. A
// pre-existing document is backed up with a timestamped name before
// being overwritten.
func (p *Pipeline) Apply(ctx context.Context, project, targetDir, docName string) (*ApplyResult, error) {
	if docName == "" {
		docName = DefaultDocumentName
	}

	bundle, err := p.store.GetBundle(ctx, project)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create target directory: %w", err)
	}

	result := &ApplyResult{}

	docPath := filepath.Join(targetDir, docName)
	if _, err := os.Stat(docPath); err == nil {
		backup := fmt.Sprintf("%s.backup.%s", docPath, time.Now().Format("20060102_150405"))
		prev, err := os.ReadFile(docPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read existing document: %w", err)
		}
		if err := os.WriteFile(backup, prev, 0o644); err != nil {
			return nil, fmt.Errorf("failed to back up existing document: %w", err)
		}
		result.Backup = backup
	}

	if err := os.WriteFile(docPath, []byte(bundle.Document), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	result.Copied = append(result.Copied, docPath)

	if len(bundle.Skills) > 0 {
		skillsDir := filepath.Join(targetDir, "skills")
		if err := os.MkdirAll(skillsDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create skills directory: %w", err)
		}
		for name, content := range bundle.Skills {
			skillPath := filepath.Join(skillsDir, name+".md")
			if err := os.WriteFile(skillPath, []byte(content), 0o644); err != nil {
				return nil, fmt.Errorf("failed to write skill %s: %w", name, err)
			}
			result.Copied = append(result.Copied, skillPath)
		}
	}

	p.logger.Info("bundle applied",
		zap.String("project", project),
		zap.String("target", targetDir),
		zap.Int("files", len(result.Copied)),
		zap.String("backup", result.Backup))

	return result, nil
}
