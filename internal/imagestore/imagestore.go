// Package imagestore uploads and deletes photo assets on an external host.
package imagestore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Uploaded describes an asset accepted by the image host
type Uploaded struct {
	URL      string
	PublicID string
}

// Store is implemented by every image host backend
type Store interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*Uploaded, error)
	Delete(ctx context.Context, publicID string) error
}

// ErrDeleteRejected is returned when the host does not confirm a deletion
var ErrDeleteRejected = errors.New("image host did not confirm deletion")

// objectName builds a unique asset name that keeps the file extension
func objectName(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return uuid.New().String() + ext
}
