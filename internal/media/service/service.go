package service

import (
	"context"
	"errors"
	"time"

	"github.com/mediashelf/mediashelf/internal/media"
	"github.com/mediashelf/mediashelf/internal/media/repository"
	"github.com/mediashelf/mediashelf/internal/models"
	"github.com/mediashelf/mediashelf/pkg/logger"
	"github.com/mediashelf/mediashelf/pkg/metrics"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthorResolver produces the display snapshot embedded into masters on write.
type AuthorResolver interface {
	ResolveAuthor(ctx context.Context, userID string) (media.Author, error)
}

// Options tune policy decisions of the service.
type Options struct {
	// EnforceOwnership restricts Update and Delete to the document author.
	EnforceOwnership bool
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Service composes the visibility rules, the revision capture protocol and
// the two stores. Every exported method takes the caller identity, nil
// meaning anonymous.
type Service struct {
	masters          repository.MediaRepository
	revisions        repository.RevisionRepository
	authors          AuthorResolver
	locks            *keyedMutex
	enforceOwnership bool
	now              func() time.Time
}

func New(masters repository.MediaRepository, revisions repository.RevisionRepository, authors AuthorResolver, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		masters:          masters,
		revisions:        revisions,
		authors:          authors,
		locks:            newKeyedMutex(),
		enforceOwnership: opts.EnforceOwnership,
		now:              now,
	}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(authors AuthorResolver, opts Options) *Service {
	repo := repository.NewMemoryRepo()
	return New(repo, repo, authors, opts)
}

// NewMongoService stores masters in the "media" collection and revisions in
// "media_revisions" of db.
func NewMongoService(db *mongo.Database, authors AuthorResolver, opts Options) *Service {
	repo := repository.NewMongoRepo(db.Collection("media"), db.Collection("media_revisions"))
	return New(repo, repo, authors, opts)
}

func (s *Service) List(ctx context.Context, caller *models.Identity) (out []*media.Document, err error) {
	defer func() { observe(actList, err) }()
	if err := guard(caller, actList); err != nil {
		return nil, err
	}
	docs, err := s.masters.ListMasters(ctx, publicOnly(caller))
	if err != nil {
		return nil, internal("list masters", err)
	}
	return docs, nil
}

// Get returns one master. An anonymous caller gets ErrUnauthorized both for
// private and for missing documents so existence is not disclosed.
func (s *Service) Get(ctx context.Context, caller *models.Identity, id string) (out *media.Document, err error) {
	defer func() { observe(actGet, err) }()
	if err := guard(caller, actGet); err != nil {
		return nil, err
	}
	d, err := s.masters.GetMaster(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if caller == nil {
				return nil, ErrUnauthorized
			}
			return nil, ErrNotFound
		}
		return nil, internal("get master "+id, err)
	}
	if !canRead(caller, d) {
		return nil, ErrUnauthorized
	}
	return d, nil
}

func (s *Service) Create(ctx context.Context, caller *models.Identity, f media.Fields) (out *media.Document, err error) {
	defer func() { observe(actCreate, err) }()
	if err := guard(caller, actCreate); err != nil {
		return nil, err
	}
	if err := ValidateFields(f); err != nil {
		return nil, err
	}
	d := &media.Document{
		Title:       f.Title,
		AuthorID:    caller.ID,
		Author:      s.resolveAuthor(ctx, caller.ID),
		URI:         f.URI,
		Date:        s.now(),
		Tags:        f.Tags,
		Description: f.Description,
		IsPublic:    f.IsPublic,
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if _, err := s.masters.CreateMaster(ctx, d); err != nil {
		return nil, internal("create master", err)
	}
	logger.Debugf("media: %s created %s", caller.ID, d.ID)
	return d, nil
}

// revisionWriteTimeout bounds the snapshot write that follows a committed update.
const revisionWriteTimeout = 5 * time.Second

// Update applies p to the master id and records the pre-update state as a
// revision. The master write happens first; a failed revision write leaves a
// gap in the history but does not fail the update.
func (s *Service) Update(ctx context.Context, caller *models.Identity, id string, p media.Patch) (out *media.Document, err error) {
	defer func() { observe(actUpdate, err) }()
	if err := guard(caller, actUpdate); err != nil {
		return nil, err
	}
	if err := ValidatePatch(p); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.masters.GetMaster(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal("read master "+id, err)
	}
	if err := s.checkOwner(caller, current); err != nil {
		return nil, err
	}

	snapshot := current.Snapshot(s.now())

	next := current.Clone()
	p.Apply(next)
	next.Author = s.resolveAuthor(ctx, current.AuthorID)
	if err := s.masters.UpdateMaster(ctx, next, current.Version); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			logger.Warnf("media: update of %s lost version %d race", id, current.Version)
			return nil, ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, internal("update master "+id, err)
	}

	// The master is already committed, so the snapshot is written even if the
	// caller goes away now.
	revCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revisionWriteTimeout)
	defer cancel()
	if _, err := s.revisions.CreateRevision(revCtx, snapshot); err != nil {
		metrics.RevisionGaps.Inc()
		logger.Errorf("media: revision gap for %s at version %d: %v", id, current.Version, err)
	}
	return next, nil
}

// Delete removes the master and then its revisions. Revisions that cannot be
// removed are logged and left orphaned; the delete still succeeds.
func (s *Service) Delete(ctx context.Context, caller *models.Identity, id string) (err error) {
	defer func() { observe(actDelete, err) }()
	if err := guard(caller, actDelete); err != nil {
		return err
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.masters.GetMaster(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return internal("read master "+id, err)
	}
	if err := s.checkOwner(caller, current); err != nil {
		return err
	}
	if err := s.masters.DeleteMaster(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return internal("delete master "+id, err)
	}
	n, err := s.revisions.DeleteRevisions(ctx, id)
	if err != nil {
		metrics.OrphanedRevisions.Inc()
		logger.Errorf("media: master %s deleted but its revisions were not: %v", id, err)
		return nil
	}
	logger.Debugf("media: %s deleted %s and %d revisions", caller.ID, id, n)
	return nil
}

// ListRevisions returns the history of a master, oldest first.
func (s *Service) ListRevisions(ctx context.Context, caller *models.Identity, masterID string) (out []*media.Revision, err error) {
	defer func() { observe(actRevisions, err) }()
	if err := guard(caller, actRevisions); err != nil {
		return nil, err
	}
	if _, err := s.masters.GetMaster(ctx, masterID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal("read master "+masterID, err)
	}
	revs, err := s.revisions.ListRevisions(ctx, masterID)
	if err != nil {
		return nil, internal("list revisions of "+masterID, err)
	}
	return revs, nil
}

func (s *Service) GetRevision(ctx context.Context, caller *models.Identity, id string) (out *media.Revision, err error) {
	defer func() { observe(actGetRevision, err) }()
	if err := guard(caller, actGetRevision); err != nil {
		return nil, err
	}
	r, err := s.revisions.GetRevision(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, internal("get revision "+id, err)
	}
	return r, nil
}

// resolveAuthor never fails; unresolvable authors get the deleted sentinel.
func (s *Service) resolveAuthor(ctx context.Context, userID string) media.Author {
	if s.authors == nil {
		return media.DeletedAuthor(userID)
	}
	a, err := s.authors.ResolveAuthor(ctx, userID)
	if err != nil {
		logger.Warnf("media: resolve author %s: %v", userID, err)
		return media.DeletedAuthor(userID)
	}
	return a
}

func internal(op string, err error) error {
	logger.Errorf("media: %s: %v", op, err)
	return ErrInternal
}

func observe(a action, err error) {
	metrics.MediaOperations.WithLabelValues(string(a), resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	}
	return "error"
}
