// Package report renders check results for people and tools.
package report

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/dgallion1/docstyle/internal/violation"
)

// Report is the outcome of checking one file.
type Report struct {
	ID         string                     `json:"id"`
	Filename   string                     `json:"filename"`
	Hash       string                     `json:"hash"`
	Standard   string                     `json:"standard,omitempty"`
	Pages      int                        `json:"pages"`
	CreatedAt  time.Time                  `json:"created_at"`
	Violations []violation.Violation      `json:"violations"`
	Counts     map[violation.Category]int `json:"counts"`
}

// New builds a report for content with a fresh ID.
func New(filename string, content []byte, pages int, vs []violation.Violation) *Report {
	if vs == nil {
		vs = []violation.Violation{}
	}
	return &Report{
		ID:         uuid.NewString(),
		Filename:   filename,
		Hash:       Hash(content),
		Pages:      pages,
		CreatedAt:  time.Now().UTC(),
		Violations: vs,
		Counts:     violation.Counts(vs),
	}
}

// Hash returns the hex BLAKE3-256 digest of content.
func Hash(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Clean reports whether no violations were found.
func (r *Report) Clean() bool { return len(r.Violations) == 0 }
