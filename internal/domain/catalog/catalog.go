// Package catalog parses the plain-text book catalog.
//
// A catalog is a sequence of entries, each introduced by a marker line
//
//	## Title: <title>
//
// followed by the summary, which runs until the next marker or end of input.
package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/librarian/internal/domain"
	"github.com/kailas-cloud/librarian/internal/domain/book"
)

var (
	markerRe = regexp.MustCompile(`\n##[ \t]*Title:`)
	entryRe  = regexp.MustCompile(`^##[ \t]*Title:[ \t]*([^\n]+)\n((?s:.*))$`)
)

// Parse converts raw catalog text into books in file order.
// Chunks that do not start with a title marker are dropped silently.
func Parse(raw []byte) ([]book.Book, error) {
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: not valid UTF-8", domain.ErrInvalidCatalog)
	}

	text := strings.ReplaceAll(string(raw), "\r\n", "\n")

	books := make([]book.Book, 0)
	for _, chunk := range splitEntries(text) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		m := entryRe.FindStringSubmatch(chunk)
		if m == nil {
			continue
		}
		b, err := book.New(m[1], m[2])
		if err != nil {
			continue
		}
		books = append(books, b)
	}
	return books, nil
}

// ReadFile reads and parses a catalog file.
func ReadFile(path string) ([]book.Book, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	books, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return books, nil
}

// splitEntries cuts text right before every title marker that starts a line.
// The separating newline is consumed.
func splitEntries(text string) []string {
	locs := markerRe.FindAllStringIndex(text, -1)
	chunks := make([]string, 0, len(locs)+1)
	start := 0
	for _, loc := range locs {
		chunks = append(chunks, text[start:loc[0]])
		start = loc[0] + 1
	}
	return append(chunks, text[start:])
}
