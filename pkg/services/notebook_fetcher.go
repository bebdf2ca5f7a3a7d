package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opennotebook/workshop/pkg/llm"
)

// FileNotebookFetcher serves notebook content for agent tools from a
// directory of markdown files, one <notebook_id>.md per notebook. Missing
// notebooks read as empty rather than failing the tool call.
type FileNotebookFetcher struct {
	dir string
}

// NewFileNotebookFetcher creates a fetcher rooted at dir.
func NewFileNotebookFetcher(dir string) *FileNotebookFetcher {
	return &FileNotebookFetcher{dir: dir}
}

func (f *FileNotebookFetcher) NotebookContent(_ context.Context, notebookID string) (string, error) {
	if notebookID == "" || strings.ContainsAny(notebookID, `/\`) || notebookID != filepath.Base(notebookID) {
		return "", fmt.Errorf("invalid notebook id %q", notebookID)
	}

	content, err := os.ReadFile(filepath.Join(f.dir, notebookID+".md"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read notebook: %w", err)
	}
	return string(content), nil
}

var _ llm.NotebookFetcher = (*FileNotebookFetcher)(nil)
