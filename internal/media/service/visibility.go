package service

import (
	"github.com/mediashelf/mediashelf/internal/media"
	"github.com/mediashelf/mediashelf/internal/models"
)

type action string

const (
	actList        action = "list"
	actGet         action = "get"
	actCreate      action = "create"
	actUpdate      action = "update"
	actDelete      action = "delete"
	actRevisions   action = "list_revisions"
	actGetRevision action = "get_revision"
)

// anonymousAllowed lists the actions an anonymous caller may attempt.
// Reads of a single master are further narrowed by canRead.
var anonymousAllowed = map[action]bool{
	actList: true,
	actGet:  true,
}

// guard runs before any store access.
func guard(caller *models.Identity, a action) error {
	if caller == nil && !anonymousAllowed[a] {
		return ErrUnauthorized
	}
	return nil
}

// publicOnly reports whether listings for caller must be restricted to public masters.
func publicOnly(caller *models.Identity) bool {
	return caller == nil
}

func canRead(caller *models.Identity, d *media.Document) bool {
	return caller != nil || d.IsPublic
}

func (s *Service) checkOwner(caller *models.Identity, d *media.Document) error {
	if s.enforceOwnership && d.AuthorID != caller.ID {
		return ErrForbidden
	}
	return nil
}
