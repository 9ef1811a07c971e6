package services

import (
	"errors"
	"time"

	"pedestrian-forecast-api/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService issues and validates operator tokens. There is a single
// operator account configured via ADMIN_EMAIL / ADMIN_PASSWORD_HASH; the
// admin endpoints (reindexing, bulk backfill) sit behind it.
type AuthService struct {
	jwtSecret []byte
	expiryH   int
	admin     config.AdminConfig
}

func NewAuthService(jwtCfg config.JWTConfig, admin config.AdminConfig) *AuthService {
	return &AuthService{
		jwtSecret: []byte(jwtCfg.Secret),
		expiryH:   jwtCfg.ExpiryHours,
		admin:     admin,
	}
}

func (s *AuthService) HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

func (s *AuthService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Login verifies the operator credential and returns a signed token.
func (s *AuthService) Login(email, password string) (string, error) {
	if s.admin.Email == "" || s.admin.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}
	if email != s.admin.Email || !s.CheckPassword(s.admin.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}
	return s.GenerateToken(email, "admin")
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (s *AuthService) GenerateToken(email, role string) (string, error) {
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(
				time.Duration(s.expiryH) * time.Hour,
			)),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.jwtSecret, nil
		},
	)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
