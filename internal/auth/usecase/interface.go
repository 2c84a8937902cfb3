package usecase

import (
	"context"
	"mime/multipart"

	authdomain "playtube-backend/internal/auth/domain"
	authdto "playtube-backend/internal/auth/dto"
)

// AuthUsecase defines the interface for auth use cases
type AuthUsecase interface {
	Register(ctx context.Context, req *authdto.RegisterRequest, avatar, coverImage *multipart.FileHeader) (*authdomain.User, error)
	Login(ctx context.Context, req *authdto.LoginRequest) (*authdto.LoginResponse, error)
	Logout(ctx context.Context, userID string) error
	RefreshTokens(ctx context.Context, refreshToken string) (*authdto.TokenPair, error)
	ChangePassword(ctx context.Context, userID string, req *authdto.ChangePasswordRequest) error
	ValidateAccessToken(ctx context.Context, token string) (*authdomain.User, error)
}
