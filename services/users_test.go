package services

import (
	"context"
	"errors"
	"testing"

	"campus-eats-api/apperr"
	"campus-eats-api/logger"
	"campus-eats-api/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.svc.Users

	admin, err := users.Register(ctx, RegisterInput{Name: "Root", Email: "root@campus.edu", Password: "pw", Role: models.RoleAdmin})
	require.NoError(t, err, "the first account may be an admin")
	assert.Equal(t, models.RoleAdmin, admin.Role)

	_, err = users.Register(ctx, RegisterInput{Name: "Sneaky", Email: "sneaky@campus.edu", Password: "pw", Role: models.RoleAdmin})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = users.Register(ctx, RegisterInput{Name: "Chef", Email: "chef@campus.edu", Password: "pw", Role: "chef"})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	student, err := users.Register(ctx, RegisterInput{Name: " Asha ", Email: "Asha@Campus.edu", Password: "hunter22", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, "asha@campus.edu", student.Email)
	assert.Equal(t, "Asha", student.Name)
	assert.NotEqual(t, "hunter22", student.PasswordHash)

	_, err = users.Register(ctx, RegisterInput{Name: "Dup", Email: "asha@campus.edu", Password: "x", Role: models.RoleStudent})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "duplicate email")

	got, err := users.Authenticate(ctx, "ASHA@campus.edu", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, student.ID, got.ID)

	_, err = users.Authenticate(ctx, "asha@campus.edu", "wrong")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
	_, err = users.Authenticate(ctx, "nobody@campus.edu", "hunter22")
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}

func TestProfileAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.svc.Users
	admin := env.user(t, "root@campus.edu", models.RoleAdmin)
	student := env.user(t, "s@campus.edu", models.RoleStudent)
	env.user(t, "r@campus.edu", models.RoleRider)

	phone := "555-0101"
	addr := "Hostel 7"
	updated, err := users.UpdateProfile(ctx, student.UserID, ProfileUpdate{Phone: &phone, CampusAddress: &addr})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, addr, updated.CampusAddress)

	blank := "  "
	_, err = users.UpdateProfile(ctx, student.UserID, ProfileUpdate{Name: &blank})
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	riders, err := users.List(ctx, models.RoleRider)
	require.NoError(t, err)
	assert.Len(t, riders, 1)
	_, err = users.List(ctx, "chef")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))

	assert.True(t, apperr.Is(users.Delete(ctx, admin, admin.UserID), apperr.KindBadRequest))
	require.NoError(t, users.Delete(ctx, admin, student.UserID))
	assert.True(t, apperr.Is(users.Delete(ctx, admin, student.UserID), apperr.KindNotFound))

	_, err = users.Get(ctx, student.UserID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = users.Register(ctx, RegisterInput{Name: "Again", Email: "s@campus.edu", Password: "pw", Role: models.RoleStudent})
	assert.True(t, apperr.Is(err, apperr.KindConflict), "deleted accounts keep their email")
}

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *UserService) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialect := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialect, &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return mock, &UserService{db: db, log: logger.Discard()}
}

func TestUserGetPostgres(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, users := setupMockDB(t)
		rows := sqlmock.NewRows([]string{"id", "name", "email", "role"}).
			AddRow(7, "Asha", "asha@campus.edu", "student")
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"\."id" = \$1 AND "users"\."deleted_at" IS NULL`).
			WillReturnRows(rows)

		user, err := users.Get(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, uint(7), user.ID)
		assert.Equal(t, models.RoleStudent, user.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock, users := setupMockDB(t)
		mock.ExpectQuery(`SELECT \* FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := users.Get(context.Background(), 8)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
		assert.Equal(t, "user not found", apperr.PublicMessage(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver failure", func(t *testing.T) {
		mock, users := setupMockDB(t)
		cause := errors.New("connection reset")
		mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(cause)

		_, err := users.Get(context.Background(), 9)
		assert.True(t, apperr.Is(err, apperr.KindInternal))
		assert.ErrorIs(t, err, cause)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegisterLosesEmailRace(t *testing.T) {
	mock, users := setupMockDB(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE email = \$1`).
		WithArgs("asha@campus.edu").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	_, err := users.Register(context.Background(), RegisterInput{
		Name: "Asha", Email: "asha@campus.edu", Password: "pw", Role: models.RoleStudent,
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, "email already registered", apperr.PublicMessage(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRoleAndCurrentRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	users := env.svc.Users
	admin := env.user(t, "root@campus.edu", models.RoleAdmin)
	student := env.user(t, "s@campus.edu", models.RoleStudent)

	_, err := users.SetRole(ctx, admin, student.UserID, "chef")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	_, err = users.SetRole(ctx, admin, admin.UserID, models.RoleStudent)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
	_, err = users.SetRole(ctx, admin, 9999, models.RoleAdmin)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	promoted, err := users.SetRole(ctx, admin, student.UserID, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	role, ok, err := users.CurrentRole(ctx, student.UserID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.RoleAdmin, role)

	require.NoError(t, users.Delete(ctx, admin, student.UserID))
	_, ok, err = users.CurrentRole(ctx, student.UserID)
	require.NoError(t, err)
	assert.False(t, ok)
}
