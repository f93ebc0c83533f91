package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentmedia/internal/models"
)

var userRowColumns = []string{
	"id", "name", "email", "department", "year", "roll_number",
	"profile_image", "bio", "is_verified", "created_at",
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

const insertUserSQL = `
		INSERT INTO users (id, name, email, department, year, roll_number, profile_image, bio, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

func TestUserRepository_CreateUser(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("stores user and credential", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		user := &models.User{
			Name:       "Asha",
			Email:      "asha@ritrjpm.ac.in",
			Department: "CSE",
			Year:       2,
			RollNumber: "21CS001",
			CreatedAt:  createdAt,
		}

		mock.ExpectBegin()
		mock.ExpectExec(insertUserSQL).
			WithArgs(sqlmock.AnyArg(), "Asha", "asha@ritrjpm.ac.in", "CSE", 2, "21CS001", nil, nil, false, createdAt).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO user_passwords (user_id, password_hash) VALUES ($1, $2)`).
			WithArgs(sqlmock.AnyArg(), "digest").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.CreateUser(context.Background(), user, "digest")

		assert.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db)

		user := &models.User{ID: uuid.New().String(), Email: "asha@ritrjpm.ac.in", CreatedAt: createdAt}

		mock.ExpectBegin()
		mock.ExpectExec(insertUserSQL).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := repo.CreateUser(context.Background(), user, "digest")

		assert.ErrorIs(t, err, ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetUserByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	userID := uuid.New().String()
	createdAt := time.Now().UTC()
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(userRowColumns).
			AddRow(userID, "Asha", "asha@ritrjpm.ac.in", "CSE", 2, "21CS001", nil, "hi", true, createdAt)
		mock.ExpectQuery(query).WithArgs(userID).WillReturnRows(rows)

		user, err := repo.GetUserByID(context.Background(), userID)

		require.NoError(t, err)
		assert.Equal(t, "Asha", user.Name)
		assert.Nil(t, user.ProfileImage)
		require.NotNil(t, user.Bio)
		assert.Equal(t, "hi", *user.Bio)
		assert.True(t, user.IsVerified)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(userID).WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByID(context.Background(), userID)

		assert.Nil(t, user)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUsersByIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	t.Run("empty input skips query", func(t *testing.T) {
		users, err := repo.GetUsersByIDs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("indexes by id", func(t *testing.T) {
		rows := sqlmock.NewRows(userRowColumns).
			AddRow("u1", "Asha", "asha@ritrjpm.ac.in", "CSE", 2, "21CS001", nil, nil, true, time.Now()).
			AddRow("u2", "Ravi", "ravi@ritrjpm.ac.in", "ECE", 3, "21EC002", "http://img", nil, true, time.Now())
		mock.ExpectQuery(`SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(rows)

		users, err := repo.GetUsersByIDs(context.Background(), []string{"u1", "u2"})

		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "ECE", users["u2"].Department)
		require.NotNil(t, users["u2"].ProfileImage)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkVerified(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	query := `UPDATE users SET is_verified = TRUE WHERE id = $1`

	mock.ExpectExec(query).WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkVerified(context.Background(), "u1"))

	mock.ExpectExec(query).WithArgs("u2").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.MarkVerified(context.Background(), "u2"), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	bio := "third year"
	user := &models.User{ID: "u1", Name: "Asha K", Bio: &bio}

	mock.ExpectExec(`
		UPDATE users
		SET name = ?, bio = ?, profile_image = ?
		WHERE id = ?
	`).
		WithArgs("Asha K", "third year", nil, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateProfile(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetPasswordHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	query := `SELECT password_hash FROM user_passwords WHERE user_id = $1`

	mock.ExpectQuery(query).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow("digest"))
	hash, err := repo.GetPasswordHash(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "digest", hash)

	mock.ExpectQuery(query).WithArgs("u2").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetPasswordHash(context.Background(), "u2")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepository(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVerificationRepository(db)
	ctx := context.Background()

	createdAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	code := &models.VerificationCode{
		Email:     "asha@ritrjpm.ac.in",
		Code:      "123456",
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(15 * time.Minute),
	}

	mock.ExpectExec(`
		INSERT INTO verification_codes (email, code, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at
	`).
		WithArgs(code.Email, code.Code, code.CreatedAt, code.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SaveCode(ctx, code))

	getQuery := `SELECT email, code, created_at, expires_at FROM verification_codes WHERE email = $1`
	mock.ExpectQuery(getQuery).WithArgs(code.Email).
		WillReturnRows(sqlmock.NewRows([]string{"email", "code", "created_at", "expires_at"}).
			AddRow(code.Email, code.Code, code.CreatedAt, code.ExpiresAt))
	got, err := repo.GetCode(ctx, code.Email)
	require.NoError(t, err)
	assert.Equal(t, "123456", got.Code)

	mock.ExpectExec(`DELETE FROM verification_codes WHERE email = $1`).WithArgs(code.Email).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteCode(ctx, code.Email))

	mock.ExpectQuery(getQuery).WithArgs(code.Email).WillReturnError(sql.ErrNoRows)
	_, err = repo.GetCode(ctx, code.Email)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
