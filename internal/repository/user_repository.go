package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coder-gabrielsantos/sigecon-server/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByCNPJ(ctx context.Context, cnpj string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, name, cnpj, password_hash, role, must_change_password, active, admin_id, created_at
		FROM users
		WHERE cnpj = ?
		LIMIT 1
	`, cnpj).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id, u.name, u.cnpj, u.password_hash, u.role,
			u.must_change_password, u.active, u.admin_id, u.created_at,
			a.name AS admin_name
		FROM users u
		LEFT JOIN users a ON a.id = u.admin_id
		WHERE u.id = ?
		LIMIT 1
	`, id).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO users (name, cnpj, password_hash, role, must_change_password, active, admin_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		user.Name,
		user.CNPJ,
		user.PasswordHash,
		user.Role,
		user.MustChangePassword,
		user.Active,
		user.AdminID,
	).Scan(&id).Error
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *UserRepository) UpdateAdminID(ctx context.Context, id, adminID uuid.UUID) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE users SET admin_id = ? WHERE id = ?
	`, adminID, id).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, mustChange bool) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE users SET password_hash = ?, must_change_password = ? WHERE id = ?
	`, hash, mustChange, id).Error
}

func (r *UserRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE users SET name = ? WHERE id = ?
	`, name, id).Error
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			u.id, u.name, u.cnpj, u.role, u.must_change_password, u.active, u.admin_id, u.created_at,
			a.name AS admin_name
		FROM users u
		LEFT JOIN users a ON a.id = u.admin_id
		ORDER BY u.created_at ASC
	`).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
