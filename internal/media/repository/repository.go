package repository

import (
	"context"
	"errors"

	"github.com/mediashelf/mediashelf/internal/media"
)

var (
	ErrNotFound = errors.New("media not found")
	// ErrConflict is returned when a compare-and-set update loses against a
	// concurrent writer.
	ErrConflict = errors.New("media version conflict")
	// ErrMissingMaster is returned when a revision does not reference a master.
	ErrMissingMaster = errors.New("revision has no forMediaDocument")
)

// MediaRepository persists master documents.
type MediaRepository interface {
	// ListMasters returns every master, or only public ones when publicOnly is set.
	ListMasters(ctx context.Context, publicOnly bool) ([]*media.Document, error)
	GetMaster(ctx context.Context, id string) (*media.Document, error)
	// CreateMaster assigns the id, kind and version of d and stores it.
	CreateMaster(ctx context.Context, d *media.Document) (string, error)
	// UpdateMaster replaces the mutable fields of the stored document when its
	// version still equals expectedVersion, and bumps the version.
	UpdateMaster(ctx context.Context, d *media.Document, expectedVersion int64) error
	DeleteMaster(ctx context.Context, id string) error
}

// RevisionRepository persists write-once revision snapshots.
type RevisionRepository interface {
	// ListRevisions returns the revisions of a master, oldest first.
	ListRevisions(ctx context.Context, masterID string) ([]*media.Revision, error)
	GetRevision(ctx context.Context, id string) (*media.Revision, error)
	CreateRevision(ctx context.Context, r *media.Revision) (string, error)
	// DeleteRevisions removes every revision of a master and reports how many were removed.
	DeleteRevisions(ctx context.Context, masterID string) (int64, error)
	// RevisionMasterIDs returns the distinct master ids referenced by stored revisions.
	RevisionMasterIDs(ctx context.Context) ([]string, error)
}
