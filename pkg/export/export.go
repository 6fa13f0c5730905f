// Package export renders a conversation as a flat text document.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/simplechat/pkg/llm"
)

// ImagePlaceholder stands in for image content in an export.
const ImagePlaceholder = "[Image]"

// Entry is one exported message.
type Entry struct {
	Role    llm.Role
	IsImage bool
	Content string
}

// Render joins entries in order, one "User: " or "Assistant: " prefixed
// block each, separated by a blank line.
func Render(entries []Entry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		content := e.Content
		if e.IsImage {
			content = ImagePlaceholder
		}
		blocks = append(blocks, e.Role.DisplayName()+": "+content)
	}
	return strings.Join(blocks, "\n\n")
}

// WriteFile saves doc at path, creating parent directories as needed.
func WriteFile(path, doc string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
