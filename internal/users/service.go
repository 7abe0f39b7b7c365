package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mediashelf/mediashelf/internal/media"
	"github.com/mediashelf/mediashelf/internal/models"
	"github.com/mediashelf/mediashelf/pkg/fields"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown user names and wrong passwords.
var ErrInvalidCredentials = errors.New("invalid user name or password")

var userNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Registration is the input of Register.
type Registration struct {
	UserName  string
	FirstName string
	LastName  string
	Password  string
}

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	cost int
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, cost: bcrypt.DefaultCost}
}

func (s *Service) Register(ctx context.Context, reg Registration) (*models.User, error) {
	reg.UserName = strings.TrimSpace(reg.UserName)
	err := fields.FromValidation(validation.Errors{
		"userName":  validation.Validate(reg.UserName, validation.Required, validation.Length(3, 32), validation.Match(userNamePattern)),
		"firstName": validation.Validate(strings.TrimSpace(reg.FirstName), validation.Required, validation.Length(0, 64)),
		"lastName":  validation.Validate(strings.TrimSpace(reg.LastName), validation.Required, validation.Length(0, 64)),
		// bcrypt ignores input beyond 72 bytes
		"password": validation.Validate(reg.Password, validation.Required, validation.Length(8, 72)),
	})
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		UserName:     reg.UserName,
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUserNameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate checks the password and returns the matching user.
func (s *Service) Authenticate(ctx context.Context, userName, password string) (*models.User, error) {
	u, err := s.repo.GetByUserName(ctx, strings.TrimSpace(userName))
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolveAuthor returns the display snapshot of id, or the deleted sentinel
// when the account no longer exists. Storage errors are returned as is.
func (s *Service) ResolveAuthor(ctx context.Context, id string) (media.Author, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return media.Author{}, err
	}
	if u == nil {
		return media.DeletedAuthor(id), nil
	}
	return media.Author{ID: u.ID, UserName: u.UserName, FirstName: u.FirstName, LastName: u.LastName}, nil
}
