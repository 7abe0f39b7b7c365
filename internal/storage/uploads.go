package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyFile = errors.New("the uploaded file is empty")
	ErrTooLarge  = errors.New("the uploaded file is too large")
	ErrBadKey    = errors.New("not an uploaded object")
)

// FilesPrefix is the route under which stored uploads are served. An upload's
// URI is FilesPrefix + key and never expires; reads are redirected to a fresh
// presigned URL.
const FilesPrefix = "/files/"

// ObjectStore is the subset of MinIOStorage that Uploads needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Upload describes a stored object. URI is what clients put into a media
// document; it is relative to the API base.
type Upload struct {
	Key         string `json:"key"`
	URI         string `json:"uri"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

type Uploads struct {
	store      ObjectStore
	presignTTL time.Duration
	maxSize    int64
}

func NewUploads(store ObjectStore, presignTTL time.Duration, maxSize int64) *Uploads {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &Uploads{store: store, presignTTL: presignTTL, maxSize: maxSize}
}

// MaxSize is the largest accepted object in bytes, 0 meaning unlimited.
func (u *Uploads) MaxSize() int64 { return u.maxSize }

// Save stores r under uploads/<userID>/<uuid>-<name>.
func (u *Uploads) Save(ctx context.Context, userID, name string, r io.Reader, size int64, contentType string) (*Upload, error) {
	if size == 0 {
		return nil, ErrEmptyFile
	}
	if u.maxSize > 0 && size > u.maxSize {
		return nil, ErrTooLarge
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := ObjectKey(userID, name)
	if err := u.store.Put(ctx, key, r, size, contentType); err != nil {
		return nil, fmt.Errorf("put %s: %w", key, err)
	}
	return &Upload{Key: key, URI: FilesPrefix + key, Size: size, ContentType: contentType}, nil
}

// Presign returns a short-lived download URL for an uploaded key.
func (u *Uploads) Presign(ctx context.Context, key string) (string, error) {
	if !strings.HasPrefix(key, "uploads/") || strings.Contains(key, "..") {
		return "", ErrBadKey
	}
	url, err := u.store.PresignGet(ctx, key, u.presignTTL)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url, nil
}

// ObjectKey builds a collision-free key; name is reduced to its base element.
func ObjectKey(userID, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == ' ' || r < 0x20 {
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return "uploads/" + userID + "/" + uuid.New().String() + "-" + name
}
