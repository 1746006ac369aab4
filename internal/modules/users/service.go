package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agromart.store/app/internal/shared/dbx"
)

var (
	ErrUsernameTaken      = errors.New("users: username already taken")
	ErrInvalidCredentials = errors.New("users: invalid username or password")
	ErrNotFound           = errors.New("users: not found")
)

// dummyHash keeps Authenticate's timing the same for unknown usernames.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("agromart-dummy-password"), bcrypt.MinCost)

type Service struct {
	db   *gorm.DB
	cost int
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, cost: bcrypt.DefaultCost}
}

// WithCost lowers the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	IsStaff  bool
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}
	u := User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		IsStaff:      in.IsStaff,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if dbx.IsDuplicateKey(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "username = ?", strings.TrimSpace(username)).Error
	if dbx.IsNotFound(err) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id uint) (User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if dbx.IsNotFound(err) {
		return User{}, ErrNotFound
	}
	return u, err
}
