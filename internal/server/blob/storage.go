// Package blob abstracts the object storage holding raw file bytes. The
// catalog treats it as an opaque create/read/delete service keyed by storage
// key.
package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

type Storage interface {
	// Put streams an object to the store under the given key.
	Put(ctx context.Context, key string, body io.Reader, size int64) error
	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// FileURL returns the stable URL under which the object is addressed.
	FileURL(key string) string
	// PresignGet returns a short-lived download URL for the object.
	PresignGet(ctx context.Context, key string) (string, error)
}

// RandomStorageKey produces a date-partitioned unique object key.
func RandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}
