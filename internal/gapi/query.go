package gapi

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Query builds a Drive search expression from structured parameters, so
// callers never concatenate user input into the query language themselves.
type Query struct {
	terms []string
}

// NameContains matches files whose name contains the given substring.
// The input is NFC-normalized first — Drive stores names in NFC, and a
// decomposed string from a macOS client would otherwise silently miss.
func (q *Query) NameContains(name string) *Query {
	q.terms = append(q.terms, fmt.Sprintf("name contains '%s'", escapeQueryValue(norm.NFC.String(name))))
	return q
}

// FullTextContains matches files whose content contains the given text.
func (q *Query) FullTextContains(text string) *Query {
	q.terms = append(q.terms, fmt.Sprintf("fullText contains '%s'", escapeQueryValue(norm.NFC.String(text))))
	return q
}

// MimeType restricts results to one MIME type.
func (q *Query) MimeType(mimeType string) *Query {
	q.terms = append(q.terms, fmt.Sprintf("mimeType = '%s'", escapeQueryValue(mimeType)))
	return q
}

// InFolder restricts results to direct children of the given folder.
func (q *Query) InFolder(folderID string) *Query {
	q.terms = append(q.terms, fmt.Sprintf("'%s' in parents", escapeQueryValue(folderID)))
	return q
}

// ExcludeTrashed hides files in the trash.
func (q *Query) ExcludeTrashed() *Query {
	q.terms = append(q.terms, "trashed = false")
	return q
}

// String renders the expression with all terms ANDed together.
func (q *Query) String() string {
	return strings.Join(q.terms, " and ")
}

// escapeQueryValue escapes the two characters with meaning inside a Drive
// query string literal.
func escapeQueryValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)

	return v
}
