// Package storage provides the encrypted-blob vault abstraction with local
// filesystem and Google Cloud Storage implementations.
package storage

import (
	"context"
	"regexp"
	"time"
)

// FileInfo contains metadata about a stored blob. ID is the stable external
// identifier used as the reconciliation join key against the structured store.
type FileInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Vault is the interface to the authoritative blob store. Blob existence in
// the vault is ground truth during reconciliation.
type Vault interface {
	// List returns metadata for every blob in the vault.
	List(ctx context.Context) ([]*FileInfo, error)

	// Get retrieves a blob's contents by its ID.
	Get(ctx context.Context, id string) ([]byte, error)

	// Put stores a blob under the given name and returns its metadata.
	Put(ctx context.Context, data []byte, name string) (*FileInfo, error)

	// Exists reports whether any blob name starts with the given prefix.
	Exists(ctx context.Context, namePrefix string) (bool, error)
}

// periodDateRe matches the ISO period date embedded in vault blob names,
// e.g. "Payslip 2025-11-30_1733380000000.enc".
var periodDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// PeriodDateFromName extracts the payslip period date embedded in a blob
// name. ok is false when the name carries no recognizable date; callers must
// skip such blobs rather than guess.
func PeriodDateFromName(name string) (time.Time, bool) {
	m := periodDateRe.FindString(name)
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", m)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
