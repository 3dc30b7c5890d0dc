package jwt

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/session"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const TokenTypeAccess = "access"

var ErrMalformedClaims = errors.New("malformed token claims")

// Claims is the typed view of an access token's private claims.
type Claims struct {
	UserID    int64
	SessionID string
	Role      user.Role
	IsAdmin   bool
	Type      string
}

type Service interface {
	GenerateAccessToken(sess session.Session) (token string, expiresAt int64, err error)
	ParseClaims(claims map[string]interface{}) (Claims, error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string, expiresAt int64)
	IsTokenRevoked(token string) bool
	PurgeRevoked(now time.Time) int
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
	revokedTokens             map[string]int64 // token -> exp
	mu                        sync.RWMutex
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens:             make(map[string]int64),
	}
}

// GenerateAccessToken signs a token bound to sess. It never outlives the session.
func (j *JWTService) GenerateAccessToken(sess session.Session) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	exp := time.Now().Add(expDuration)
	if !sess.ExpiresAt.IsZero() && sess.ExpiresAt.Before(exp) {
		exp = sess.ExpiresAt
	}
	expiresAt = exp.Unix()

	claims := map[string]interface{}{
		"user_id":    strconv.FormatInt(sess.User.ID, 10),
		"session_id": sess.ID,
		"role":       string(sess.User.Role),
		"is_admin":   sess.User.IsAdmin(),
		"type":       TokenTypeAccess,
		"exp":        expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func (j *JWTService) ParseClaims(claims map[string]interface{}) (Claims, error) {
	var c Claims

	rawID, _ := claims["user_id"].(string)
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return Claims{}, ErrMalformedClaims
	}
	c.UserID = id

	sid, ok := claims["session_id"].(string)
	if !ok || sid == "" {
		return Claims{}, ErrMalformedClaims
	}
	c.SessionID = sid

	role, _ := claims["role"].(string)
	c.Role = user.NormalizeRole(role)
	c.IsAdmin, _ = claims["is_admin"].(bool)
	c.Type, _ = claims["type"].(string)

	return c, nil
}

func (j *JWTService) RevokeToken(token string, expiresAt int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.revokedTokens[token] = expiresAt
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}

// PurgeRevoked forgets revoked tokens that have expired anyway.
func (j *JWTService) PurgeRevoked(now time.Time) int {
	j.mu.Lock()
	defer j.mu.Unlock()

	purged := 0
	for token, exp := range j.revokedTokens {
		if exp <= now.Unix() {
			delete(j.revokedTokens, token)
			purged++
		}
	}
	return purged
}
