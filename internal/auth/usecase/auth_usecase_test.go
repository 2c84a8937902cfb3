package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	authdomain "playtube-backend/internal/auth/domain"
	authdto "playtube-backend/internal/auth/dto"
	"playtube-backend/pkg/config"
	"playtube-backend/pkg/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type fakeUserRepo struct {
	users map[string]*authdomain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*authdomain.User{}}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *authdomain.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	r.users[user.ID.Hex()] = user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*authdomain.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*authdomain.User, error) {
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) SetRefreshToken(ctx context.Context, id, token string) error {
	if u, ok := r.users[id]; ok {
		u.RefreshToken = token
	}
	return nil
}

func (r *fakeUserRepo) ClearRefreshToken(ctx context.Context, id string) error {
	if u, ok := r.users[id]; ok {
		u.RefreshToken = ""
	}
	return nil
}

func (r *fakeUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if u, ok := r.users[id]; ok {
		u.Password = passwordHash
	}
	return nil
}

type fakeUploader struct {
	calls      int
	failFolder string
}

func (f *fakeUploader) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (string, error) {
	f.calls++
	if folder == f.failFolder {
		return "", errors.New("upload failed")
	}
	return "https://cdn.example.com/" + folder + "/" + file.Filename, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 168 * time.Hour,
	}
}

func newTestUsecase(t *testing.T) (AuthUsecase, *fakeUserRepo, *fakeUploader) {
	t.Helper()
	repo := newFakeUserRepo()
	uploader := &fakeUploader{}
	return NewAuthUsecase(repo, uploader, testConfig()), repo, uploader
}

func registerRequest() *authdto.RegisterRequest {
	return &authdto.RegisterRequest{
		FullName: "Test User",
		Email:    "test@example.com",
		Username: "TestUser",
		Password: "password123",
	}
}

func avatarFile() *multipart.FileHeader {
	return &multipart.FileHeader{Filename: "avatar.png"}
}

func requireAPIError(t *testing.T, err error, statusCode int) *httpx.APIError {
	t.Helper()
	var apiErr *httpx.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, statusCode, apiErr.StatusCode)
	return apiErr
}

func TestRegisterMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*authdto.RegisterRequest)
	}{
		{"missing full name", func(r *authdto.RegisterRequest) { r.FullName = "" }},
		{"missing email", func(r *authdto.RegisterRequest) { r.Email = "" }},
		{"missing username", func(r *authdto.RegisterRequest) { r.Username = "" }},
		{"missing password", func(r *authdto.RegisterRequest) { r.Password = "" }},
		{"whitespace full name", func(r *authdto.RegisterRequest) { r.FullName = "   " }},
		{"whitespace password", func(r *authdto.RegisterRequest) { r.Password = "\t " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, repo, uploader := newTestUsecase(t)
			req := registerRequest()
			tt.mutate(req)

			_, err := uc.Register(context.Background(), req, avatarFile(), nil)

			requireAPIError(t, err, 400)
			assert.Empty(t, repo.users, "no user record must be created")
			assert.Zero(t, uploader.calls, "no upload must be performed")
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	uc, repo, uploader := newTestUsecase(t)

	_, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)
	require.NoError(t, err)
	require.Len(t, repo.users, 1)
	uploadsBefore := uploader.calls

	t.Run("same username", func(t *testing.T) {
		req := registerRequest()
		req.Email = "other@example.com"
		_, err := uc.Register(context.Background(), req, avatarFile(), nil)
		requireAPIError(t, err, 409)
	})

	t.Run("same email", func(t *testing.T) {
		req := registerRequest()
		req.Username = "otheruser"
		_, err := uc.Register(context.Background(), req, avatarFile(), nil)
		requireAPIError(t, err, 409)
	})

	assert.Len(t, repo.users, 1, "no new record for duplicate attempts")
	assert.Equal(t, uploadsBefore, uploader.calls, "existence check must precede upload")
}

func TestRegisterMissingAvatar(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)

	_, err := uc.Register(context.Background(), registerRequest(), nil, nil)

	requireAPIError(t, err, 400)
	assert.Empty(t, repo.users)
}

func TestRegisterAvatarUploadFailure(t *testing.T) {
	repo := newFakeUserRepo()
	uploader := &fakeUploader{failFolder: "avatars"}
	uc := NewAuthUsecase(repo, uploader, testConfig())

	_, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)

	requireAPIError(t, err, 400)
	assert.Empty(t, repo.users)
}

func TestRegisterSuccess(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)

	user, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)
	require.NoError(t, err)

	assert.Equal(t, "testuser", user.Username, "username must be stored lowercase")
	assert.Equal(t, "test@example.com", user.Email)
	assert.NotEmpty(t, user.Avatar)
	assert.Empty(t, user.CoverImage)
	assert.NotEqual(t, "password123", user.Password, "password must be stored hashed")

	stored := repo.users[user.ID.Hex()]
	require.NotNil(t, stored)
	assert.Equal(t, "testuser", stored.Username)

	body, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "refreshToken")
}

func TestRegisterCoverUploadFailureTolerated(t *testing.T) {
	repo := newFakeUserRepo()
	uploader := &fakeUploader{failFolder: "covers"}
	uc := NewAuthUsecase(repo, uploader, testConfig())

	cover := &multipart.FileHeader{Filename: "cover.jpg"}
	user, err := uc.Register(context.Background(), registerRequest(), avatarFile(), cover)

	require.NoError(t, err)
	assert.NotEmpty(t, user.Avatar)
	assert.Empty(t, user.CoverImage, "failed cover upload is stored as empty")
}

func TestLogin(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)
	_, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)
	require.NoError(t, err)

	t.Run("missing username and email", func(t *testing.T) {
		_, err := uc.Login(context.Background(), &authdto.LoginRequest{Password: "password123"})
		requireAPIError(t, err, 400)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := uc.Login(context.Background(), &authdto.LoginRequest{Username: "nobody", Password: "password123"})
		requireAPIError(t, err, 404)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := uc.Login(context.Background(), &authdto.LoginRequest{Username: "testuser", Password: "wrong"})
		requireAPIError(t, err, 401)

		for _, u := range repo.users {
			assert.Empty(t, u.RefreshToken, "failed login must not mutate the session slot")
		}
	})

	t.Run("by username", func(t *testing.T) {
		resp, err := uc.Login(context.Background(), &authdto.LoginRequest{Username: "TestUser", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		stored := repo.users[resp.User.ID.Hex()]
		assert.Equal(t, resp.RefreshToken, stored.RefreshToken,
			"persisted refresh token must equal the returned one")
	})

	t.Run("by email", func(t *testing.T) {
		resp, err := uc.Login(context.Background(), &authdto.LoginRequest{Email: "test@example.com", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})
}

func TestRefreshRotation(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)
	_, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)
	require.NoError(t, err)

	resp, err := uc.Login(context.Background(), &authdto.LoginRequest{Username: "testuser", Password: "password123"})
	require.NoError(t, err)

	tokens, err := uc.RefreshTokens(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, tokens.RefreshToken, "rotation must mint a new refresh token")

	stored := repo.users[resp.User.ID.Hex()]
	assert.Equal(t, tokens.RefreshToken, stored.RefreshToken)

	// The pre-rotation token no longer matches the slot.
	_, err = uc.RefreshTokens(context.Background(), resp.RefreshToken)
	apiErr := requireAPIError(t, err, 401)
	assert.Equal(t, "Refresh token is expired or used", apiErr.Message)

	// The rotated token still works.
	_, err = uc.RefreshTokens(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshInvalidToken(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)
	_, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)
	require.NoError(t, err)

	t.Run("absent", func(t *testing.T) {
		_, err := uc.RefreshTokens(context.Background(), "")
		apiErr := requireAPIError(t, err, 401)
		assert.Equal(t, "unauthorized request", apiErr.Message)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := uc.RefreshTokens(context.Background(), "not-a-jwt")
		requireAPIError(t, err, 401)
	})

	for _, u := range repo.users {
		assert.Empty(t, u.RefreshToken, "failed refresh must not mutate the session slot")
	}
}

func TestRefreshExpiredToken(t *testing.T) {
	repo := newFakeUserRepo()
	cfg := testConfig()
	cfg.RefreshTokenExpiry = -time.Minute
	uc := NewAuthUsecase(repo, &fakeUploader{}, cfg)

	_, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)
	require.NoError(t, err)
	resp, err := uc.Login(context.Background(), &authdto.LoginRequest{Username: "testuser", Password: "password123"})
	require.NoError(t, err)

	_, err = uc.RefreshTokens(context.Background(), resp.RefreshToken)
	requireAPIError(t, err, 401)
}

func TestLogout(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)
	_, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)
	require.NoError(t, err)
	resp, err := uc.Login(context.Background(), &authdto.LoginRequest{Username: "testuser", Password: "password123"})
	require.NoError(t, err)

	userID := resp.User.ID.Hex()
	require.NoError(t, uc.Logout(context.Background(), userID))
	assert.Empty(t, repo.users[userID].RefreshToken)

	// Refresh with the pre-logout token must fail: the slot is unset.
	_, err = uc.RefreshTokens(context.Background(), resp.RefreshToken)
	requireAPIError(t, err, 401)

	// Logging out twice is a no-op, not an error.
	require.NoError(t, uc.Logout(context.Background(), userID))
}

func TestChangePassword(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	_, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)
	require.NoError(t, err)
	resp, err := uc.Login(context.Background(), &authdto.LoginRequest{Username: "testuser", Password: "password123"})
	require.NoError(t, err)
	userID := resp.User.ID.Hex()

	t.Run("wrong old password", func(t *testing.T) {
		err := uc.ChangePassword(context.Background(), userID, &authdto.ChangePasswordRequest{
			OldPassword: "wrong",
			NewPassword: "newpassword",
		})
		apiErr := requireAPIError(t, err, 400)
		assert.Equal(t, "Invalid old password", apiErr.Message)
	})

	t.Run("success", func(t *testing.T) {
		err := uc.ChangePassword(context.Background(), userID, &authdto.ChangePasswordRequest{
			OldPassword: "password123",
			NewPassword: "newpassword",
		})
		require.NoError(t, err)

		_, err = uc.Login(context.Background(), &authdto.LoginRequest{Username: "testuser", Password: "password123"})
		requireAPIError(t, err, 401)

		_, err = uc.Login(context.Background(), &authdto.LoginRequest{Username: "testuser", Password: "newpassword"})
		require.NoError(t, err)
	})
}

func TestValidateAccessToken(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	_, err := uc.Register(context.Background(), registerRequest(), avatarFile(), nil)
	require.NoError(t, err)
	resp, err := uc.Login(context.Background(), &authdto.LoginRequest{Username: "testuser", Password: "password123"})
	require.NoError(t, err)

	user, err := uc.ValidateAccessToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)

	_, err = uc.ValidateAccessToken(context.Background(), "garbage")
	requireAPIError(t, err, 401)

	// A refresh token is not a valid access token: different secret.
	_, err = uc.ValidateAccessToken(context.Background(), resp.RefreshToken)
	requireAPIError(t, err, 401)
}
