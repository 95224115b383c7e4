package files

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, record *FileRecord) (*FileRecord, error)
	Get(ctx context.Context, fileID string) (*FileRecord, error)
	// List executes a composed catalog query.
	List(ctx context.Context, q Query) ([]*FileRecord, error)
	// ListOwned returns every record owned by ownerID, shared-in files
	// excluded. Used by the usage aggregation.
	ListOwned(ctx context.Context, ownerID string) ([]*FileRecord, error)
	Rename(ctx context.Context, fileID string, name string) error
	UpdateSharedWith(ctx context.Context, fileID string, emails []string) error
	Delete(ctx context.Context, fileID string) error
}
