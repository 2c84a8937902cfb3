package delivery

import (
	"mime/multipart"
	"net/http"

	authdomain "playtube-backend/internal/auth/domain"
	authdto "playtube-backend/internal/auth/dto"
	"playtube-backend/internal/auth/usecase"
	"playtube-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

type AuthHandler struct {
	authUsecase usecase.AuthUsecase
}

func NewAuthHandler(authUsecase usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
	}
}

// formFile returns the first file uploaded under the given field, or nil.
func formFile(c *gin.Context, field string) *multipart.FileHeader {
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}

// setSessionCookies sets both token cookies http-only and secure, with
// path/domain/expiry left to defaults.
func setSessionCookies(c *gin.Context, tokens *authdto.TokenPair) {
	c.SetCookie(accessTokenCookie, tokens.AccessToken, 0, "/", "", true, true)
	c.SetCookie(refreshTokenCookie, tokens.RefreshToken, 0, "/", "", true, true)
}

// clearSessionCookies clears both cookies with the same attribute set
// used when setting them; mismatched attributes would leave the cookie
// in place on compliant clients.
func clearSessionCookies(c *gin.Context) {
	c.SetCookie(accessTokenCookie, "", -1, "/", "", true, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", true, true)
}

// POST /api/v1/users/register
func (h *AuthHandler) Register(c *gin.Context) {
	req := &authdto.RegisterRequest{
		FullName: c.PostForm("fullName"),
		Email:    c.PostForm("email"),
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}

	avatar := formFile(c, "avatar")
	coverImage := formFile(c, "coverImage")

	user, err := h.authUsecase.Register(c.Request.Context(), req, avatar, coverImage)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	httpx.JSON(c, http.StatusCreated, user, "User registered successfully")
}

// POST /api/v1/users/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req authdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(httpx.BadRequest("invalid request body"))
		c.Abort()
		return
	}

	resp, err := h.authUsecase.Login(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	setSessionCookies(c, &authdto.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	httpx.JSON(c, http.StatusOK, resp, "User logged in successfully")
}

// POST /api/v1/users/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.Error(httpx.Unauthorized("unauthorized request"))
		c.Abort()
		return
	}

	if err := h.authUsecase.Logout(c.Request.Context(), userID); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	clearSessionCookies(c)
	httpx.JSON(c, http.StatusOK, gin.H{}, "User logged out")
}

// POST /api/v1/users/refresh-token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	incoming, _ := c.Cookie(refreshTokenCookie)
	if incoming == "" {
		var req authdto.RefreshTokenRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			incoming = req.RefreshToken
		}
	}

	tokens, err := h.authUsecase.RefreshTokens(c.Request.Context(), incoming)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	setSessionCookies(c, tokens)
	httpx.JSON(c, http.StatusOK, tokens, "Access token refreshed")
}

// POST /api/v1/users/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		c.Error(httpx.Unauthorized("unauthorized request"))
		c.Abort()
		return
	}

	var req authdto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(httpx.BadRequest("old and new password are required"))
		c.Abort()
		return
	}

	if err := h.authUsecase.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	httpx.JSON(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

// GET /api/v1/users/current-user
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	v, exists := c.Get("user")
	user, ok := v.(*authdomain.User)
	if !exists || !ok {
		c.Error(httpx.Unauthorized("unauthorized request"))
		c.Abort()
		return
	}

	httpx.JSON(c, http.StatusOK, user, "Current user fetched successfully")
}
