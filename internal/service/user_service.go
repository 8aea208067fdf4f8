package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/coder-gabrielsantos/sigecon-server/internal/auth"
	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
)

type UserStore interface {
	FindByCNPJ(ctx context.Context, cnpj string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, user model.User) (uuid.UUID, error)
	UpdateAdminID(ctx context.Context, id, adminID uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	List(ctx context.Context) ([]model.User, error)
}

type UserService struct {
	store  UserStore
	tokens *auth.Issuer
	log    zerolog.Logger
}

func NewUserService(store UserStore, tokens *auth.Issuer, log zerolog.Logger) *UserService {
	return &UserService{store: store, tokens: tokens, log: log}
}

type LoginResult struct {
	Token string
	User  model.User
}

func (s *UserService) Login(ctx context.Context, cnpj, password string) (*LoginResult, error) {
	cleaned := digitsOnly(cnpj)
	if cleaned == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.FindByCNPJ(ctx, cleaned)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: *user}, nil
}

type CreateUserInput struct {
	Name string
	CNPJ string
	Role model.Role
}

type CreatedUser struct {
	User            model.User
	InitialPassword string
}

// CreateUser is the admin-only account flow: a new ADMIN owns itself, a
// new OPERADOR is linked to the creating admin. The generated initial
// password is returned once and must be changed on first login.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput, principal model.Principal) (*CreatedUser, error) {
	if principal.Role != model.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	if input.Role != model.RoleAdmin && input.Role != model.RoleOperator {
		return nil, fmt.Errorf("%w: invalid role", ErrInvalidInput)
	}

	cleaned := digitsOnly(input.CNPJ)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: cnpj is required", ErrInvalidInput)
	}

	existing, err := s.store.FindByCNPJ(ctx, cleaned)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: a user with this cnpj already exists", ErrAlreadyExists)
	}

	initialPassword, err := auth.GenerateInitialPassword()
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(initialPassword)
	if err != nil {
		return nil, err
	}

	userID, err := s.store.Create(ctx, model.User{
		Name:               strings.TrimSpace(input.Name),
		CNPJ:               cleaned,
		PasswordHash:       hash,
		Role:               input.Role,
		MustChangePassword: true,
		Active:             true,
	})
	if err != nil {
		return nil, err
	}

	adminID := principal.UserID
	if input.Role == model.RoleAdmin {
		adminID = userID
	}
	if err := s.store.UpdateAdminID(ctx, userID, adminID); err != nil {
		return nil, err
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("role", string(input.Role)).
		Msg("user created")

	return &CreatedUser{User: *user, InitialPassword: initialPassword}, nil
}

func (s *UserService) Profile(ctx context.Context, principal model.Principal) (*model.User, error) {
	user, err := s.store.FindByID(ctx, principal.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: user is inactive", ErrPermissionDenied)
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, principal model.Principal, current, next string) error {
	if next == "" {
		return fmt.Errorf("%w: new password is required", ErrInvalidInput)
	}

	user, err := s.store.FindByID(ctx, principal.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if !user.Active {
		return fmt.Errorf("%w: user is inactive", ErrPermissionDenied)
	}
	if !auth.CheckPassword(current, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, user.ID, hash, false)
}

func (s *UserService) ChangeName(ctx context.Context, principal model.Principal, name string) (*model.User, error) {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}

	user, err := s.store.FindByID(ctx, principal.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, fmt.Errorf("%w: user is inactive", ErrPermissionDenied)
	}

	if err := s.store.UpdateName(ctx, user.ID, cleaned); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, user.ID)
}

func (s *UserService) ListUsers(ctx context.Context, principal model.Principal) ([]model.User, error) {
	if principal.Role != model.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	return s.store.List(ctx)
}

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
