package storage

import (
	"context"
	"database/sql"
	"errors"
	"github.com/google/uuid"
	"github.com/sol1corejz/loyaltydesk/internal/models"
	"strings"
)

func GetStaffByEmail(ctx context.Context, email string) (models.Staff, error) {
	var staff models.Staff

	err := DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM staff WHERE email = $1;
	`, strings.ToLower(strings.TrimSpace(email))).Scan(&staff.ID, &staff.Email, &staff.PasswordHash, &staff.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Staff{}, ErrNotFound
	}
	if err != nil {
		return models.Staff{}, err
	}

	return staff, nil
}

func GetStaffByID(ctx context.Context, id uuid.UUID) (models.Staff, error) {
	var staff models.Staff

	err := DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM staff WHERE id = $1;
	`, id).Scan(&staff.ID, &staff.Email, &staff.PasswordHash, &staff.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Staff{}, ErrNotFound
	}
	if err != nil {
		return models.Staff{}, err
	}

	return staff, nil
}

// CreateStaff inserts a staff account and reports whether it was created.
// An existing account with the same email is left untouched.
func CreateStaff(ctx context.Context, id uuid.UUID, email string, passwordHash string) (bool, error) {
	res, err := DB.ExecContext(ctx, `
		INSERT INTO staff (id, email, password_hash) VALUES ($1, $2, $3) ON CONFLICT (email) DO NOTHING;
	`, id, strings.ToLower(strings.TrimSpace(email)), passwordHash)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func UpdateStaffPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := DB.ExecContext(ctx, `
		UPDATE staff SET password_hash = $1 WHERE id = $2;
	`, passwordHash, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
