package book

import (
	"fmt"
	"strconv"
	"strings"
)

// Book is a catalog record: a title and its synopsis.
type Book struct {
	title   string
	summary string
}

// New creates a Book. Title and summary are trimmed; both must be non-empty.
func New(title, summary string) (Book, error) {
	title = strings.TrimSpace(title)
	summary = strings.TrimSpace(summary)
	if title == "" {
		return Book{}, fmt.Errorf("title is required")
	}
	if summary == "" {
		return Book{}, fmt.Errorf("summary is required")
	}
	return Book{title: title, summary: summary}, nil
}

// Title returns the book title.
func (b Book) Title() string { return b.title }

// Summary returns the short synopsis.
func (b Book) Summary() string { return b.summary }

// Document is the embedding input: "<title>. <summary>".
func (b Book) Document() string { return b.title + ". " + b.summary }

// Entry is a catalog record as persisted in the vector store.
type Entry struct {
	id       string
	title    string
	document string
	vector   []float32
}

// IDForIndex returns the deterministic id of the record at position i in catalog order.
func IDForIndex(i int) string { return "id-" + strconv.Itoa(i) }

// NewEntry builds the persisted form of the i-th book.
func NewEntry(i int, b Book, vector []float32) Entry {
	return Entry{
		id:       IDForIndex(i),
		title:    b.Title(),
		document: b.Document(),
		vector:   vector,
	}
}

// ID returns the entry id.
func (e Entry) ID() string { return e.id }

// Title returns the title metadata.
func (e Entry) Title() string { return e.title }

// Document returns the stored document text.
func (e Entry) Document() string { return e.document }

// Vector returns the embedding.
func (e Entry) Vector() []float32 { return e.vector }
