package service_test

import (
	"context"
	"testing"
	"time"

	"moveops/internal/config"
	"moveops/internal/dto"
	"moveops/internal/model"
	"moveops/internal/repository"
	"moveops/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── In-memory Repository Stub ─────────────────────────────────────────────────

type stubUserRepo struct {
	users map[string]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	r.users[u.Username] = u
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := r.users[username]
	if !ok || !u.Active {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		if u.Active {
			users = append(users, *u)
		}
	}
	return users, nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.Username] = u
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	for _, u := range r.users {
		if u.ID == id {
			u.Active = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	for _, u := range r.users {
		if u.ID == id {
			u.Active = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

const testSecret = "test_jwt_secret_32_chars_minimum!"

func newTestCfg() *config.Config {
	return &config.Config{
		JWTSecret:          testSecret,
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
	}
}

func seedUser(t *testing.T, repo *stubUserRepo, username, password, role string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	require.NoError(t, err)
	u := &model.User{
		ID: uuid.New(), Username: username, Name: "Test User",
		PasswordHash: string(hash), Role: role, Active: true,
	}
	repo.users[username] = u
	return u
}

func signExpiredToken(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID, "username": "testuser", "role": "staff",
		"exp": time.Now().Add(-time.Second).Unix(), "iat": time.Now().Add(-time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// ── Tests: Login ──────────────────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "admin", "password123", "admin")
	svc := service.NewAuthService(repo, newTestCfg())

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "admin", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, "admin", resp.User.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "staff1", "correctpass", "staff")
	svc := service.NewAuthService(repo, newTestCfg())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "staff1", Password: "wrongpass"})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLogin_UserNotFound(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewAuthService(repo, newTestCfg())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ghost", Password: "anypass123"})
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestLogin_DeactivatedUser(t *testing.T) {
	repo := newStubUserRepo()
	u := seedUser(t, repo, "gone", "password123", "staff")
	u.Active = false
	svc := service.NewAuthService(repo, newTestCfg())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "gone", Password: "password123"})
	assert.Error(t, err)
}

// ── Tests: Refresh ────────────────────────────────────────────────────────────

func TestRefresh_Success(t *testing.T) {
	repo := newStubUserRepo()
	u := seedUser(t, repo, "staff2", "pass1234", "staff")
	svc := service.NewAuthService(repo, newTestCfg())

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "staff2", Password: "pass1234"})
	require.NoError(t, err)

	resp, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, u.Username, resp.User.Username)
}

func TestRefresh_InvalidToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewAuthService(repo, newTestCfg())

	_, err := svc.Refresh(context.Background(), "this.is.garbage")
	assert.Error(t, err)
}

func TestRefresh_ExpiredToken(t *testing.T) {
	repo := newStubUserRepo()
	u := seedUser(t, repo, "staff3", "pass12345", "staff")
	svc := service.NewAuthService(repo, newTestCfg())

	_, err := svc.Refresh(context.Background(), signExpiredToken(t, u.ID.String()))
	assert.Error(t, err)
}

// ── Tests: User CRUD ──────────────────────────────────────────────────────────

func TestCreateUser_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewAuthService(repo, newTestCfg())

	resp, err := svc.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: "newstaff", Name: "New Staff", Password: "securepass",
		Role: "staff",
	})
	require.NoError(t, err)
	assert.Equal(t, "staff", resp.Role)
	assert.NotEmpty(t, resp.ID)
	assert.True(t, resp.Active)

	// The hash stored is never the raw password
	stored := repo.users["newstaff"]
	assert.NotEqual(t, "securepass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("securepass")))
}

func TestListUsers_ActiveOnlyByDefault(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "u1", "pass1234", "staff")
	gone := seedUser(t, repo, "u2", "pass1234", "staff")
	gone.Active = false
	svc := service.NewAuthService(repo, newTestCfg())

	users, err := svc.ListUsers(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	all, err := svc.ListUsers(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeactivateReactivateUser(t *testing.T) {
	repo := newStubUserRepo()
	u := seedUser(t, repo, "cycle", "pass1234", "staff")
	svc := service.NewAuthService(repo, newTestCfg())

	require.NoError(t, svc.DeactivateUser(context.Background(), u.ID))
	_, err := repo.FindByUsername(context.Background(), "cycle")
	assert.Error(t, err, "soft-deleted user must not be findable")

	require.NoError(t, svc.ReactivateUser(context.Background(), u.ID))
	_, err = repo.FindByUsername(context.Background(), "cycle")
	assert.NoError(t, err)
}

func TestUpdateUser_ChangesRoleAndPassword(t *testing.T) {
	repo := newStubUserRepo()
	u := seedUser(t, repo, "promote", "oldpass123", "staff")
	svc := service.NewAuthService(repo, newTestCfg())

	resp, err := svc.UpdateUser(context.Background(), u.ID, dto.UpdateUserRequest{
		Role: "admin", Password: "newpass123",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.Role)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "promote", Password: "newpass123"})
	assert.NoError(t, err)
	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "promote", Password: "oldpass123"})
	assert.Error(t, err)
}
