package utils

import (
	"context"
	"crypto/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"mpoint-server/models"

	jwtv4 "github.com/golang-jwt/jwt/v4"
	"github.com/go-redis/redis/v8"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
)

var bgContext = context.Background()

// AccessToken is the claim set carried by API access tokens.
type AccessToken struct {
	ID   uint   `json:"ID"`
	Role string `json:"role"`
}

type RefreshTokenInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// CreateTokenPair signs an access/refresh token pair for the user and
// registers the refresh token in Redis so it can be revoked on rotation.
func CreateTokenPair(db *gorm.DB, rdb *redis.Client, id uint) (*jwt.TokenPair, error) {
	accessTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 24*time.Hour)
	refreshTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("REFRESH_TOKEN_SECRET"), 365*24*time.Hour)

	userID := strconv.FormatUint(uint64(id), 10)
	refreshClaims := jwt.Claims{Subject: userID}

	// Embed the role so middleware can gate admin routes without a lookup
	var u models.User
	role := "user"
	if err := db.Select("id, role").First(&u, id).Error; err == nil && u.Role != "" {
		role = u.Role
	}

	accessToken, err := accessTokenSigner.Sign(AccessToken{ID: id, Role: role})
	if err != nil {
		return nil, err
	}

	refreshToken, err := refreshTokenSigner.Sign(refreshClaims)
	if err != nil {
		return nil, err
	}

	var tokenPair jwt.TokenPair
	tokenPair.AccessToken = accessToken
	tokenPair.RefreshToken = refreshToken

	rdb.Set(bgContext, string(refreshToken), "true", 365*24*time.Hour+5*time.Minute)

	return &tokenPair, nil
}

// RotateRefreshToken validates the presented refresh token against Redis,
// revokes it and issues a fresh pair.
func RotateRefreshToken(ctx iris.Context, db *gorm.DB, rdb *redis.Client) {
	token := jwt.GetVerifiedToken(ctx)
	tokenStr := string(token.Token)

	validToken, tokenErr := rdb.Get(bgContext, tokenStr).Result()
	if tokenErr != nil {
		CreateNotFound(ctx)
		return
	}
	if validToken != "true" {
		ctx.StopWithStatus(iris.StatusForbidden)
		return
	}

	rdb.Del(bgContext, tokenStr)
	userID, parseErr := strconv.ParseUint(token.StandardClaims.Subject, 10, 32)
	if parseErr != nil {
		CreateInternalServerError(ctx)
		return
	}

	tokenPair, tokenPairErr := CreateTokenPair(db, rdb, uint(userID))
	if tokenPairErr != nil {
		CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

// GenerateShortToken returns a URL-safe random hex string of n*2 characters.
func GenerateShortToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, n*2)
	for i, v := range b {
		out[i*2] = hexdigits[v>>4]
		out[i*2+1] = hexdigits[v&0x0f]
	}
	return string(out)
}

// AdminSessionCookie is the cookie carrying the admin area session token.
const AdminSessionCookie = "mpoint_admin_session"

// AdminClaims is the claim set of the admin session cookie.
type AdminClaims struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsAdmin   bool   `json:"isAdmin"`
	jwtv4.RegisteredClaims
}

// SignAdminSession issues the signed admin session token (1 day expiry).
func SignAdminSession(user *models.User) (string, error) {
	claims := AdminClaims{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsAdmin:   user.IsAdmin(),
		RegisteredClaims: jwtv4.RegisteredClaims{
			ExpiresAt: jwtv4.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwtv4.NewNumericDate(time.Now()),
		},
	}
	token := jwtv4.NewWithClaims(jwtv4.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("ADMIN_SESSION_SECRET")))
}

// ParseAdminSession verifies the admin session token and returns its claims.
func ParseAdminSession(tokenStr string) (*AdminClaims, error) {
	var claims AdminClaims
	token, err := jwtv4.ParseWithClaims(tokenStr, &claims, func(t *jwtv4.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv4.SigningMethodHMAC); !ok {
			return nil, jwtv4.ErrSignatureInvalid
		}
		return []byte(os.Getenv("ADMIN_SESSION_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwtv4.ErrTokenInvalidClaims
	}
	return &claims, nil
}

// SetAdminSessionCookie attaches the session cookie: HTTP-only, lax, 1 day.
func SetAdminSessionCookie(ctx iris.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     AdminSessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
}

// ClearAdminSessionCookie removes the session cookie on logout.
func ClearAdminSessionCookie(ctx iris.Context) {
	ctx.RemoveCookie(AdminSessionCookie)
}
