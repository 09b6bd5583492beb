package catalog

import (
	"context"
	"fmt"

	"balans/wellbeing-app/internal/storage"
)

// Source yields a parsed content library snapshot. Implementations load from
// disk for local development and from object storage in deployed
// environments.
type Source interface {
	Load(ctx context.Context) (*Library, error)
}

// FileSource loads the inventory from a local JSON file.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (*Library, error) {
	return LoadFile(s.Path)
}

// ObjectSource loads the inventory from an object storage key.
type ObjectSource struct {
	Storage storage.ObjectStorage
	Key     string
}

func (s ObjectSource) Load(ctx context.Context) (*Library, error) {
	data, err := s.Storage.GetObject(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("fetch content library %s: %w", s.Key, err)
	}
	return Parse(data)
}
