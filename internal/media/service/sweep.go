package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mediashelf/mediashelf/internal/media/repository"
	"github.com/mediashelf/mediashelf/pkg/logger"
)

// SweepOrphanedRevisions removes revisions whose master no longer exists,
// the leftovers of deletes whose cascade failed. It returns how many
// revisions were removed.
func (s *Service) SweepOrphanedRevisions(ctx context.Context) (int64, error) {
	ids, err := s.revisions.RevisionMasterIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list revision masters: %w", err)
	}
	var removed int64
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		n, err := s.sweepOne(ctx, id)
		if err != nil {
			return removed, err
		}
		removed += n
	}
	return removed, nil
}

func (s *Service) sweepOne(ctx context.Context, masterID string) (int64, error) {
	unlock := s.locks.Lock(masterID)
	defer unlock()

	_, err := s.masters.GetMaster(ctx, masterID)
	if err == nil {
		return 0, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("read master %s: %w", masterID, err)
	}
	n, err := s.revisions.DeleteRevisions(ctx, masterID)
	if err != nil {
		return 0, fmt.Errorf("delete revisions of %s: %w", masterID, err)
	}
	logger.Infof("media: swept %d orphaned revisions of %s", n, masterID)
	return n, nil
}
