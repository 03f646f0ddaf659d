package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// RoleOperator is the only role that may trigger generation runs.
const RoleOperator = "operator"

const tokenTTL = 24 * time.Hour

var jwtSecret []byte

// InitAuth sets the HMAC key used to sign and verify tokens.
func InitAuth(key string) {
	jwtSecret = []byte(key)
}

// HashPassword returns the hex SHA-256 digest of password.
func HashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:])
}

// SimpleHash hashes password with salt into the "sha256$salt$hash" form.
func SimpleHash(password string, salt string) string {
	if salt == "" {
		salt = "69dc6ee0"
	}
	hash := sha256.Sum256([]byte(password + salt))
	return fmt.Sprintf("sha256$%s$%s", salt, hex.EncodeToString(hash[:]))
}

// VerifyPassword checks password against a stored value that is either a bare
// SHA-256 digest, a salted "sha256$salt$hash" string, or plain text.
func VerifyPassword(password string, stored string) bool {
	if parts := strings.Split(stored, "$"); len(parts) == 3 && parts[0] == "sha256" {
		return constantEqual(SimpleHash(password, parts[1]), stored)
	}
	if constantEqual(HashPassword(password), stored) {
		return true
	}
	return constantEqual(password, stored)
}

func constantEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// GenerateToken signs a token for the named operator.
func GenerateToken(username, role string) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"id":       username,
		"username": username,
		"role":     role,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		Logger.Error().Err(err).Msg("sign token failed")
		return "", err
	}

	Logger.Info().
		Str("username", username).
		Int("length", len(tokenString)).
		Msg("token issued")
	return tokenString, nil
}

// ParseToken verifies tokenString and returns its claims.
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
