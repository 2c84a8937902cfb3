package usecase

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	authdomain "playtube-backend/internal/auth/domain"
	authdto "playtube-backend/internal/auth/dto"
	"playtube-backend/internal/auth/repository"
	"playtube-backend/pkg/config"
	"playtube-backend/pkg/httpx"
	"playtube-backend/pkg/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	avatarFolder = "avatars"
	coverFolder  = "covers"
)

type accessClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type refreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"_id"`
}

// authUsecase implements AuthUsecase
type authUsecase struct {
	userRepo repository.UserRepository
	uploader storage.Uploader
	config   *config.Config
}

// NewAuthUsecase creates a new instance of authUsecase
func NewAuthUsecase(userRepo repository.UserRepository, uploader storage.Uploader, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		uploader: uploader,
		config:   cfg,
	}
}

func (u *authUsecase) Register(ctx context.Context, req *authdto.RegisterRequest, avatar, coverImage *multipart.FileHeader) (*authdomain.User, error) {
	for _, field := range []string{req.FullName, req.Email, req.Username, req.Password} {
		if strings.TrimSpace(field) == "" {
			return nil, httpx.BadRequest("All fields are required")
		}
	}

	// Existence check runs before any upload so a duplicate attempt
	// leaves nothing behind in storage.
	existing, err := u.userRepo.FindByUsernameOrEmail(ctx, strings.ToLower(req.Username), req.Email)
	if err != nil {
		return nil, httpx.Internal("something went wrong while registering the user")
	}
	if existing != nil {
		return nil, httpx.Conflict("User with email or username already exists")
	}

	if avatar == nil {
		return nil, httpx.BadRequest("Avatar file is required")
	}

	avatarURL, err := u.uploader.Upload(ctx, avatar, avatarFolder)
	if err != nil || avatarURL == "" {
		return nil, httpx.BadRequest("Avatar file is required")
	}

	// Cover image is optional and its upload failure is tolerated.
	coverImageURL := ""
	if coverImage != nil {
		if url, err := u.uploader.Upload(ctx, coverImage, coverFolder); err == nil {
			coverImageURL = url
		}
	}

	passwordHash, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, httpx.Internal("something went wrong while registering the user")
	}

	user := &authdomain.User{
		FullName:   req.FullName,
		Avatar:     avatarURL,
		CoverImage: coverImageURL,
		Email:      req.Email,
		Password:   passwordHash,
		Username:   strings.ToLower(req.Username),
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, httpx.Internal("something went wrong while registering the user")
	}

	created, err := u.userRepo.FindByID(ctx, user.ID.Hex())
	if err != nil || created == nil {
		return nil, httpx.Internal("something went wrong while registering the user")
	}

	return created, nil
}

func (u *authUsecase) Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.LoginResponse, error) {
	if req.Username == "" && req.Email == "" {
		return nil, httpx.BadRequest("username or email is required")
	}

	user, err := u.userRepo.FindByUsernameOrEmail(ctx, strings.ToLower(req.Username), req.Email)
	if err != nil {
		return nil, httpx.Internal("something went wrong while logging in")
	}
	if user == nil {
		return nil, httpx.NotFound("User does not exist")
	}

	if !repository.CheckPasswordHash(req.Password, user.Password) {
		return nil, httpx.Unauthorized("Invalid user credentials")
	}

	tokens, err := u.issueTokenPair(ctx, user.ID.Hex())
	if err != nil {
		return nil, err
	}

	loggedIn, err := u.userRepo.FindByID(ctx, user.ID.Hex())
	if err != nil || loggedIn == nil {
		return nil, httpx.Internal("something went wrong while logging in")
	}

	return &authdto.LoginResponse{
		User:         loggedIn,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

func (u *authUsecase) Logout(ctx context.Context, userID string) error {
	// Unsetting an absent slot is a no-op, so logout is idempotent.
	if err := u.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return httpx.Internal("something went wrong while logging out")
	}
	return nil
}

func (u *authUsecase) RefreshTokens(ctx context.Context, refreshToken string) (*authdto.TokenPair, error) {
	if refreshToken == "" {
		return nil, httpx.Unauthorized("unauthorized request")
	}

	claims := &refreshClaims{}
	token, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(u.config.RefreshTokenSecret), nil
	})
	if err != nil {
		// The expired/malformed distinction is deliberately collapsed;
		// the verification message is forwarded as-is.
		return nil, httpx.Unauthorized(refreshFailureMessage(err))
	}
	if !token.Valid {
		return nil, httpx.Unauthorized("Invalid refresh token")
	}

	user, err := u.userRepo.FindByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return nil, httpx.Unauthorized("Invalid refresh token")
	}

	// Single-slot session: the presented token must string-equal the
	// persisted one. Two concurrent refreshes with the same still-valid
	// token can both pass this check before either overwrite lands; that
	// race is a known gap with no mitigation here.
	if refreshToken != user.RefreshToken {
		return nil, httpx.Unauthorized("Refresh token is expired or used")
	}

	return u.issueTokenPair(ctx, user.ID.Hex())
}

func refreshFailureMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Invalid refresh token"
	}
	return err.Error()
}

func (u *authUsecase) ChangePassword(ctx context.Context, userID string, req *authdto.ChangePasswordRequest) error {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return httpx.Internal("something went wrong while changing the password")
	}

	if !repository.CheckPasswordHash(req.OldPassword, user.Password) {
		return httpx.BadRequest("Invalid old password")
	}

	passwordHash, err := repository.HashPassword(req.NewPassword)
	if err != nil {
		return httpx.Internal("something went wrong while changing the password")
	}

	if err := u.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return httpx.Internal("something went wrong while changing the password")
	}
	return nil
}

func (u *authUsecase) ValidateAccessToken(ctx context.Context, tokenString string) (*authdomain.User, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(u.config.AccessTokenSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, httpx.Unauthorized("Invalid access token")
	}

	user, err := u.userRepo.FindByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return nil, httpx.Unauthorized("Invalid access token")
	}
	return user, nil
}

// issueTokenPair mints an access and refresh token for the user and
// persists the refresh token into the user's session slot, overwriting
// whatever was there. Failures are reported as a generic server error;
// the cause is not propagated to the caller.
func (u *authUsecase) issueTokenPair(ctx context.Context, userID string) (*authdto.TokenPair, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, httpx.Internal("something went wrong while generating refresh and access tokens")
	}

	accessToken, err := u.signAccessToken(user)
	if err != nil {
		return nil, httpx.Internal("something went wrong while generating refresh and access tokens")
	}

	refreshToken, err := u.signRefreshToken(user)
	if err != nil {
		return nil, httpx.Internal("something went wrong while generating refresh and access tokens")
	}

	if err := u.userRepo.SetRefreshToken(ctx, userID, refreshToken); err != nil {
		return nil, httpx.Internal("something went wrong while generating refresh and access tokens")
	}

	return &authdto.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (u *authUsecase) signAccessToken(user *authdomain.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(u.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		Username: user.Username,
	})
	return token.SignedString([]byte(u.config.AccessTokenSecret))
}

func (u *authUsecase) signRefreshToken(user *authdomain.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			// Unique jti so back-to-back rotations never mint the same
			// string, which would defeat the equality check.
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(u.config.RefreshTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: user.ID.Hex(),
	})
	return token.SignedString([]byte(u.config.RefreshTokenSecret))
}
