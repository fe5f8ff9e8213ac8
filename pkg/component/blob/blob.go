// Package blob provides raw file storage for uploaded documents.
package blob

import (
	"context"
	"fmt"
)

// Store persists raw uploaded files keyed by an opaque string key.
type Store interface {
	// Put stores data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object stored under key. Deleting a missing
	// object is not an error.
	Delete(ctx context.Context, key string) error
}

// Key builds the canonical object key for a document upload:
// {projectID}/{documentID}.{fileType}.
func Key(projectID, documentID, fileType string) string {
	return fmt.Sprintf("%s/%s.%s", projectID, documentID, fileType)
}
