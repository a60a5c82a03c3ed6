package gapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_Terms(t *testing.T) {
	q := new(Query).
		NameContains("report").
		MimeType("application/pdf").
		InFolder("folder-1").
		ExcludeTrashed()

	assert.Equal(t,
		"name contains 'report' and mimeType = 'application/pdf' and 'folder-1' in parents and trashed = false",
		q.String())
}

func TestQuery_FullText(t *testing.T) {
	q := new(Query).FullTextContains("quarterly revenue")

	assert.Equal(t, "fullText contains 'quarterly revenue'", q.String())
}

func TestQuery_EscapesQuotesAndBackslashes(t *testing.T) {
	q := new(Query).NameContains(`it's a \ test`)

	assert.Equal(t, `name contains 'it\'s a \\ test'`, q.String())
}

func TestQuery_NormalizesToNFC(t *testing.T) {
	// Decomposed e + combining acute must match the precomposed form.
	q := new(Query).NameContains("re\u0301sume\u0301")

	assert.Equal(t, "name contains 'r\u00e9sum\u00e9'", q.String())
}

func TestQuery_Empty(t *testing.T) {
	assert.Equal(t, "", new(Query).String())
}
