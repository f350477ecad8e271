package repositories

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evn/appgate/internal/models"
)

var userColumns = []string{"id", "username", "password_hash", "role", "created_at"}

func TestUserRepositoryGetByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("ops").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(3, "ops", "$2a$10$hash", "operator", now))

	user, err := repo.GetByUsername("ops")
	require.NoError(t, err)
	assert.Equal(t, 3, user.ID)
	assert.Equal(t, "operator", user.Role)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)
}

func TestUserRepositoryGetByUsernameNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.GetByUsername("ghost")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("release-bot", "$2a$10$hash", "operator").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(12, now))

	user := &models.User{Username: "release-bot", PasswordHash: "$2a$10$hash", Role: "operator"}
	require.NoError(t, repo.Create(user))
	assert.Equal(t, 12, user.ID)
	assert.Equal(t, now, user.CreatedAt)
}

func TestUserRepositoryList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows(userColumns).
		AddRow(1, "admin", "hash-a", "superadmin", now).
		AddRow(2, "ops", "hash-b", "operator", now)

	mock.ExpectQuery("SELECT (.+) FROM users ORDER BY username").
		WillReturnRows(rows)

	users, err := repo.List()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0].Username)
	assert.Equal(t, "superadmin", users[0].Role)
}

func TestUserRepositoryEnsureSuperadmin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("admin", "$2a$10$hash").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, repo.EnsureSuperadmin("admin", "$2a$10$hash"))
}
