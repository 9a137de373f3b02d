// internal/domain/user/service_test.go
package user

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/estyshop/ecommerce-backend/internal/config"
	"github.com/estyshop/ecommerce-backend/internal/pkg/auth"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&User{}, &Address{}))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "estyshop-test"},
		JWT: config.JWTConfig{
			Secret:             "user-test-secret",
			AccessTokenExpiry:  time.Hour,
			RefreshTokenExpiry: 24 * time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(db, testConfig()), db
}

func registerRequest(email string) *RegisterRequest {
	return &RegisterRequest{
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
		FirstName:       "Ada",
		LastName:        "Obi",
		Phone:           "+2348012345678",
	}
}

func TestRegisterIssuesTokens(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest("Ada@Example.com"))
	require.NoError(t, err)

	require.NotNil(t, resp.User)
	assert.NotZero(t, resp.User.ID)
	assert.Equal(t, "ada@example.com", resp.User.Email, "emails are stored lowercase")
	assert.Empty(t, resp.User.Password, "password hash never leaves the service")
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	var stored User
	require.NoError(t, db.First(&stored, resp.User.ID).Error)
	assert.True(t, stored.IsActive)
	assert.NotEmpty(t, stored.Password)
	assert.NotEqual(t, "secret123", stored.Password)
	require.NotNil(t, stored.LastLoginAt)
}

func TestRegisterRejectsMismatchedPasswords(t *testing.T) {
	svc, _ := newTestService(t)

	req := registerRequest("ada@example.com")
	req.ConfirmPassword = "somethingelse"

	_, err := svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, password := range []string{"short", "password2024", "aaaa5678"} {
		req := registerRequest("weak@example.com")
		req.Password = password
		req.ConfirmPassword = password

		_, err := svc.Register(ctx, req)
		var weak *auth.WeakPasswordError
		assert.ErrorAs(t, err, &weak, "password %q should be rejected", password)
	}
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerRequest("ada@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)

	// Case differences slip past the pre-check; the unique index on the
	// lowercased column still catches them.
	_, err = svc.Register(ctx, registerRequest("ADA@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	resp, err := svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Empty(t, resp.User.Password)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// An unknown email reads the same as a bad password.
	_, err = svc.Login(ctx, &LoginRequest{Email: "ghost@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsDeactivatedAccount(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	require.NoError(t, db.Model(&User{}).Where("id = ?", resp.User.ID).
		Update("is_active", false).Error)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, registered.User.ID, refreshed.User.ID)

	// Without rotation the original refresh token stays valid and is
	// handed back unchanged.
	assert.Equal(t, registered.RefreshToken, refreshed.RefreshToken)

	// An access token is not accepted in place of a refresh token.
	_, err = svc.RefreshToken(ctx, registered.AccessToken)
	assert.Error(t, err)

	_, err = svc.RefreshToken(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestRefreshTokenRotation(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	cfg.JWT.RefreshTokenRotation = true
	svc := NewService(db, cfg)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, registered.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.RefreshToken)

	// The rotated token is itself usable for the next refresh.
	again, err := svc.RefreshToken(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, again.User.ID)
}

func TestRefreshTokenRejectsDeactivatedAccount(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	require.NoError(t, db.Model(&User{}).Where("id = ?", registered.User.ID).
		Update("is_active", false).Error)

	_, err = svc.RefreshToken(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetProfile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Empty(t, profile.Password)

	_, err = svc.GetProfile(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfile(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	firstName := "Adaeze"
	updated, err := svc.UpdateProfile(ctx, registered.User.ID, &UpdateProfileRequest{
		FirstName: &firstName,
	})
	require.NoError(t, err)
	assert.Equal(t, "Adaeze", updated.FirstName)
	assert.Equal(t, "Obi", updated.LastName, "untouched fields keep their value")

	var stored User
	require.NoError(t, db.First(&stored, registered.User.ID).Error)
	assert.Equal(t, "Adaeze", stored.FirstName)

	// An empty update is a no-op, not an error.
	same, err := svc.UpdateProfile(ctx, registered.User.ID, &UpdateProfileRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Adaeze", same.FirstName)

	_, err = svc.UpdateProfile(ctx, 9999, &UpdateProfileRequest{FirstName: &firstName})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest("ada@example.com"))
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, registered.User.ID, &ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "brandnew456",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, registered.User.ID, &ChangePasswordRequest{
		CurrentPassword: "secret123",
		NewPassword:     "brandnew456",
	})
	require.NoError(t, err)

	// Old credentials are dead, new ones work.
	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &LoginRequest{Email: "ada@example.com", Password: "brandnew456"})
	assert.NoError(t, err)
}
