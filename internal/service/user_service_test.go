package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/coder-gabrielsantos/sigecon-server/internal/auth"
	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
)

type memUserStore struct {
	users map[uuid.UUID]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[uuid.UUID]model.User)}
}

func (m *memUserStore) FindByCNPJ(_ context.Context, cnpj string) (*model.User, error) {
	for _, user := range m.users {
		if user.CNPJ == cnpj {
			found := user
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUserStore) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (m *memUserStore) Create(_ context.Context, user model.User) (uuid.UUID, error) {
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user.ID, nil
}

func (m *memUserStore) UpdateAdminID(_ context.Context, id, adminID uuid.UUID) error {
	user, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.AdminID = &adminID
	m.users[id] = user
	return nil
}

func (m *memUserStore) UpdatePassword(_ context.Context, id uuid.UUID, hash string, mustChange bool) error {
	user, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = hash
	user.MustChangePassword = mustChange
	m.users[id] = user
	return nil
}

func (m *memUserStore) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	user, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Name = name
	m.users[id] = user
	return nil
}

func (m *memUserStore) List(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.users))
	for _, user := range m.users {
		out = append(out, user)
	}
	return out, nil
}

func newUserService(store UserStore) *UserService {
	issuer := auth.NewIssuer("test-secret", time.Hour)
	return NewUserService(store, issuer, zerolog.Nop())
}

func seedUser(t *testing.T, store *memUserStore, cnpj, password string, role model.Role, active bool) model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	id, err := store.Create(context.Background(), model.User{
		Name:         "Usuário de Teste",
		CNPJ:         cnpj,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
	})
	if err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return store.users[id]
}

func TestLogin(t *testing.T) {
	store := newMemUserStore()
	svc := newUserService(store)
	seedUser(t, store, "63411730000103", "segredo123", model.RoleAdmin, true)

	// The cnpj is matched on digits only, regardless of formatting.
	result, err := svc.Login(context.Background(), "63.411.730/0001-03", "segredo123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Token == "" {
		t.Error("expected a token")
	}
	if result.User.CNPJ != "63411730000103" {
		t.Errorf("unexpected user: %+v", result.User)
	}

	if _, err := svc.Login(context.Background(), "63411730000103", "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "00000000000000", "segredo123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown cnpj: expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("empty input: expected invalid credentials, got %v", err)
	}
}

func TestCreateUser_RoleLinking(t *testing.T) {
	store := newMemUserStore()
	svc := newUserService(store)
	admin := seedUser(t, store, "11111111000111", "senha", model.RoleAdmin, true)
	adminPrincipal := model.Principal{UserID: admin.ID, Role: model.RoleAdmin}

	// A new operator is linked to the creating admin.
	operator, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name: "Operador",
		CNPJ: "22.222.222/0001-22",
		Role: model.RoleOperator,
	}, adminPrincipal)
	if err != nil {
		t.Fatalf("create operator failed: %v", err)
	}
	if operator.User.AdminID == nil || *operator.User.AdminID != admin.ID {
		t.Errorf("operator not linked to creator: %v", operator.User.AdminID)
	}
	if operator.InitialPassword == "" {
		t.Error("expected a generated initial password")
	}
	if !operator.User.MustChangePassword {
		t.Error("new users must be flagged for password change")
	}
	if operator.User.CNPJ != "22222222000122" {
		t.Errorf("cnpj not normalized: %q", operator.User.CNPJ)
	}

	// A new admin owns itself.
	newAdmin, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name: "Outro Admin",
		CNPJ: "33333333000133",
		Role: model.RoleAdmin,
	}, adminPrincipal)
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if newAdmin.User.AdminID == nil || *newAdmin.User.AdminID != newAdmin.User.ID {
		t.Errorf("new admin should own itself: %v", newAdmin.User.AdminID)
	}

	// The generated password actually logs in.
	if _, err := svc.Login(context.Background(), operator.User.CNPJ, operator.InitialPassword); err != nil {
		t.Errorf("initial password rejected: %v", err)
	}
}

func TestCreateUser_Guards(t *testing.T) {
	store := newMemUserStore()
	svc := newUserService(store)
	admin := seedUser(t, store, "11111111000111", "senha", model.RoleAdmin, true)
	adminPrincipal := model.Principal{UserID: admin.ID, Role: model.RoleAdmin}

	operatorPrincipal := model.Principal{UserID: uuid.New(), Role: model.RoleOperator, AdminID: &admin.ID}
	if _, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name: "x", CNPJ: "44444444000144", Role: model.RoleOperator,
	}, operatorPrincipal); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("operators must not create users, got %v", err)
	}

	if _, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name: "x", CNPJ: "44444444000144", Role: "GERENTE",
	}, adminPrincipal); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown role: expected invalid input, got %v", err)
	}

	if _, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name: "x", CNPJ: "11.111.111/0001-11", Role: model.RoleOperator,
	}, adminPrincipal); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate cnpj: expected already exists, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	store := newMemUserStore()
	svc := newUserService(store)
	user := seedUser(t, store, "11111111000111", "antiga", model.RoleAdmin, true)
	principal := model.Principal{UserID: user.ID, Role: model.RoleAdmin}

	if err := svc.ChangePassword(context.Background(), principal, "errada", "nova"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current password: expected invalid credentials, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), principal, "antiga", "nova"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := svc.Login(context.Background(), user.CNPJ, "nova"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	if store.users[user.ID].MustChangePassword {
		t.Error("must-change flag should clear after a password change")
	}
}

func TestInactiveUserIsRejected(t *testing.T) {
	store := newMemUserStore()
	svc := newUserService(store)
	user := seedUser(t, store, "11111111000111", "senha", model.RoleOperator, false)
	principal := model.Principal{UserID: user.ID, Role: model.RoleOperator}

	if _, err := svc.Profile(context.Background(), principal); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("profile: expected permission denied, got %v", err)
	}
	if _, err := svc.ChangeName(context.Background(), principal, "Novo Nome"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("change name: expected permission denied, got %v", err)
	}
}

func TestListUsers_AdminOnly(t *testing.T) {
	store := newMemUserStore()
	svc := newUserService(store)
	admin := seedUser(t, store, "11111111000111", "senha", model.RoleAdmin, true)

	if _, err := svc.ListUsers(context.Background(), model.Principal{UserID: uuid.New(), Role: model.RoleOperator, AdminID: &admin.ID}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("operators must not list users, got %v", err)
	}

	users, err := svc.ListUsers(context.Background(), model.Principal{UserID: admin.ID, Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}
