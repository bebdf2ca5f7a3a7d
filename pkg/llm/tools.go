package llm

import (
	"context"
	"fmt"
)

// NotebookFetcher supplies notebook content to agent tools.
type NotebookFetcher interface {
	NotebookContent(ctx context.Context, notebookID string) (string, error)
}

// NotebookReader lets an agent read the notebook the session was started
// from. The tool is bound to a single notebook at construction so the model
// cannot read across notebooks.
type NotebookReader struct {
	notebookID string
	fetcher    NotebookFetcher
}

// NewNotebookReader creates a notebook reader tool bound to notebookID.
func NewNotebookReader(notebookID string, fetcher NotebookFetcher) *NotebookReader {
	return &NotebookReader{notebookID: notebookID, fetcher: fetcher}
}

func (t *NotebookReader) Name() string {
	return "notebook_reader"
}

func (t *NotebookReader) Description() string {
	return "Read the notes and sources of the notebook this workshop session was started from. Use it to ground your contribution in the notebook's actual content."
}

func (t *NotebookReader) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *NotebookReader) Execute(ctx context.Context, _ map[string]any) (string, error) {
	content, err := t.fetcher.NotebookContent(ctx, t.notebookID)
	if err != nil {
		return "", fmt.Errorf("failed to read notebook %s: %w", t.notebookID, err)
	}
	if content == "" {
		return "The notebook is empty.", nil
	}
	return content, nil
}

var _ Tool = (*NotebookReader)(nil)
