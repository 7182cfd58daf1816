package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var jwtSecret []byte

func init() {
	// Random fallback so an unconfigured deployment still issues coherent
	// tokens; they just won't survive a restart. SetSecret replaces this.
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		log.Fatal("Failed to generate random JWT secret")
	}
	jwtSecret = randomBytes
}

// SetSecret installs the configured signing secret. An empty secret keeps
// the random per-process fallback.
func SetSecret(secret string) {
	if secret == "" {
		log.Println("WARNING: JWT secret not set! Using random secret (tokens will not persist across restarts)")
		return
	}
	if len(secret) < 32 {
		log.Println("WARNING: JWT secret is too short (should be at least 32 characters)")
	}
	jwtSecret = []byte(secret)
}

// Claims carry the identity-provider's view of the caller: a wallet address
// plus standard registered claims.
type Claims struct {
	WalletAddress string `json:"wallet_address"`
	jwt.RegisteredClaims
}

// GenerateToken creates a bearer credential bound to a wallet address.
func GenerateToken(walletAddress string) (string, error) {
	now := time.Now()
	claims := Claims{
		WalletAddress: walletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "scoutpost",
			Subject:   walletAddress,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// Operator API keys have the form "<name>.<secret>"; only the bcrypt hash of
// the secret is stored.
func NewOperatorKey(name string) (plaintext, hash string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", err
	}
	secret := base64.URLEncoding.EncodeToString(bytes)
	h, err := bcrypt.GenerateFromPassword([]byte(secret), 12)
	if err != nil {
		return "", "", err
	}
	return name + "." + secret, string(h), nil
}

// SplitOperatorKey separates an API key into its name and secret parts.
func SplitOperatorKey(key string) (name, secret string, ok bool) {
	i := strings.IndexByte(key, '.')
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

func CheckOperatorSecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
