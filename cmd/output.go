package cmd

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// palette holds the escape codes for one writer; all empty when the writer
// is not a terminal.
type palette struct {
	reset, yellow, cyan, gray, bold string
}

func paletteFor(w io.Writer) palette {
	if !isTerminal(w) {
		return palette{}
	}
	return palette{
		reset:  colorReset,
		yellow: colorYellow,
		cyan:   colorCyan,
		gray:   colorGray,
		bold:   colorBold,
	}
}

// isTerminal returns true if the given writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// extractSnippet extracts a content snippet of maxLen characters.
func extractSnippet(content string, maxLen int) string {
	if content == "" {
		return ""
	}

	content = strings.Join(strings.Fields(content), " ")
	if len(content) <= maxLen {
		return content
	}

	snippet := content[:maxLen]
	lastSpace := strings.LastIndex(snippet, " ")
	if lastSpace > maxLen/2 {
		snippet = snippet[:lastSpace]
	}

	return snippet + "..."
}
