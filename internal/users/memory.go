package users

import (
	"context"
	"sync"
	"time"

	"github.com/mediashelf/mediashelf/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryUserRepository is the in-process fallback used without MongoDB.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	byID   map[string]models.User
	byName map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byID: map[string]models.User{}, byName: map[string]string{}}
}

func (r *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.UserName]; ok {
		return ErrUserNameTaken
	}
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	if u.CreationDate.IsZero() {
		u.CreationDate = time.Now().UTC()
	}
	r.byID[u.ID] = *u
	r.byName[u.UserName] = u.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByUserName(_ context.Context, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[userName]
	if !ok {
		return nil, nil
	}
	u := r.byID[id]
	return &u, nil
}

// Delete removes a user. Only used by tests exercising the deleted-author path.
func (r *MemoryUserRepository) Delete(_ context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.byName, u.UserName)
		delete(r.byID, id)
	}
}
