package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type JWT struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type Claims struct {
	UserID  uint `json:"user_id"`
	Refresh bool `json:"refresh,omitempty"`
	jwt.RegisteredClaims
}

func NewJWT(secretKey string, accessTTL, refreshTTL time.Duration) *JWT {
	return &JWT{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (j *JWT) GenerateAccessToken(userID uint) (string, error) {
	return j.generate(userID, j.accessTTL, false)
}

func (j *JWT) GenerateRefreshToken(userID uint) (string, error) {
	return j.generate(userID, j.refreshTTL, true)
}

func (j *JWT) generate(userID uint, ttl time.Duration, refresh bool) (string, error) {
	claims := &Claims{
		UserID:  userID,
		Refresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

func (j *JWT) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
