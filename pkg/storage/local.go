package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalVault implements Vault on the local filesystem. Each blob is a file
// named "<id>_<name>"; blob IDs are UUIDs minted at Put time.
type LocalVault struct {
	basePath string
}

// NewLocalVault creates a filesystem-backed vault rooted at basePath.
func NewLocalVault(basePath string) (*LocalVault, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return &LocalVault{basePath: basePath}, nil
}

var _ Vault = (*LocalVault)(nil)

// List returns metadata for every blob in the vault.
func (v *LocalVault) List(ctx context.Context) ([]*FileInfo, error) {
	entries, err := os.ReadDir(v.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault directory: %w", err)
	}

	var infos []*FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, name, ok := splitStoredName(e.Name())
		if !ok {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}
		infos = append(infos, &FileInfo{
			ID:        id,
			Name:      name,
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}
	return infos, nil
}

// Get retrieves a blob's contents by its ID.
func (v *LocalVault) Get(ctx context.Context, id string) ([]byte, error) {
	path, _, err := v.findByID(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", id, err)
	}
	return data, nil
}

// Put stores a blob under the given name.
func (v *LocalVault) Put(ctx context.Context, data []byte, name string) (*FileInfo, error) {
	id := uuid.NewString()
	path := filepath.Join(v.basePath, id+"_"+sanitizeName(name))

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write blob: %w", err)
	}
	return &FileInfo{
		ID:        id,
		Name:      name,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
	}, nil
}

// Exists reports whether any blob name starts with the given prefix.
func (v *LocalVault) Exists(ctx context.Context, namePrefix string) (bool, error) {
	infos, err := v.List(ctx)
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if strings.HasPrefix(info.Name, namePrefix) {
			return true, nil
		}
	}
	return false, nil
}

func (v *LocalVault) findByID(id string) (path, name string, err error) {
	entries, err := os.ReadDir(v.basePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to read vault directory: %w", err)
	}
	for _, e := range entries {
		gotID, name, ok := splitStoredName(e.Name())
		if ok && gotID == id {
			return filepath.Join(v.basePath, e.Name()), name, nil
		}
	}
	return "", "", fmt.Errorf("blob %s not found", id)
}

func splitStoredName(stored string) (id, name string, ok bool) {
	id, name, found := strings.Cut(stored, "_")
	if !found || uuid.Validate(id) != nil {
		return "", "", false
	}
	return id, name, true
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '-'
		}
		return r
	}, name)
}
