package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"geosocial/internal/config"
	"geosocial/internal/models"
	"geosocial/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret-key-that-is-long-enough-1234"

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) CreateWithProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func newAuthTestApp(repo *MockUserRepository) *fiber.App {
	s := &Server{
		config:      &config.Config{JWTSecret: testJWTSecret, Env: "test"},
		authService: service.NewAuthService(repo, testJWTSecret),
	}
	app := fiber.New()
	app.Post("/signup", s.Signup)
	app.Post("/login", s.Login)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]string
		mockSetup      func(*MockUserRepository)
		expectedStatus int
	}{
		{
			name: "Successful signup",
			body: map[string]string{"username": "Alice", "email": "alice@example.com", "password": "SecurePass123"},
			mockSetup: func(m *MockUserRepository) {
				m.On("CreateWithProfile", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
					return u.Username == "alice" && u.Password != "SecurePass123"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*models.User).ID = 1
				}).Return(nil)
			},
			expectedStatus: fiber.StatusCreated,
		},
		{
			name:           "Short password",
			body:           map[string]string{"username": "alice", "password": "short"},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: fiber.StatusBadRequest,
		},
		{
			name:           "Invalid username",
			body:           map[string]string{"username": "a!", "password": "SecurePass123"},
			mockSetup:      func(*MockUserRepository) {},
			expectedStatus: fiber.StatusBadRequest,
		},
		{
			name: "Username taken",
			body: map[string]string{"username": "alice", "password": "SecurePass123"},
			mockSetup: func(m *MockUserRepository) {
				m.On("CreateWithProfile", mock.Anything, mock.Anything).
					Return(models.NewValidationError("Username is already taken"))
			},
			expectedStatus: fiber.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)

			resp, body := postJSON(t, newAuthTestApp(repo), "/signup", tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == fiber.StatusCreated {
				assert.NotEmpty(t, body["token"])
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("SecurePass123"), bcrypt.MinCost)
	require.NoError(t, err)
	alice := &models.User{ID: 3, Username: "alice", Password: string(hash)}

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)

		resp, body := postJSON(t, newAuthTestApp(repo), "/login",
			map[string]string{"username": "alice", "password": "SecurePass123"})
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("unknown user and wrong password look the same", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByUsername", mock.Anything, "alice").Return(alice, nil)
		repo.On("GetByUsername", mock.Anything, "ghost").Return(nil, nil)
		app := newAuthTestApp(repo)

		wrongResp, wrongBody := postJSON(t, app, "/login", map[string]string{"username": "alice", "password": "nope-nope-1"})
		ghostResp, ghostBody := postJSON(t, app, "/login", map[string]string{"username": "ghost", "password": "nope-nope-1"})

		assert.Equal(t, fiber.StatusUnauthorized, wrongResp.StatusCode)
		assert.Equal(t, fiber.StatusUnauthorized, ghostResp.StatusCode)
		assert.Equal(t, wrongBody["error"], ghostBody["error"])
	})

	t.Run("missing fields", func(t *testing.T) {
		repo := new(MockUserRepository)
		resp, _ := postJSON(t, newAuthTestApp(repo), "/login", map[string]string{"username": "alice"})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		repo.AssertNotCalled(t, "GetByUsername", mock.Anything, mock.Anything)
	})
}
