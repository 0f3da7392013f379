package reward

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
)

var (
	ErrIssuerStatus     = errors.New("reward: issuer returned an error status")
	ErrUnknownChallenge = errors.New("reward: unknown challenge")
	ErrInvalidReceipt   = errors.New("reward: invalid receipt")
	ErrNoSecret         = errors.New("reward: signing secret is empty")
)

// receiptIssuer is the iss claim of every receipt.
const receiptIssuer = "lift-off"

// Claims is the payload of a reward receipt.
type Claims struct {
	Flag      string          `json:"flag"`
	Challenge string          `json:"challenge"`
	Outcome   anomaly.Outcome `json:"outcome"`
	Score     int             `json:"score"`
	jwt.RegisteredClaims
}

// sign creates an HS256 receipt.
func sign(secret []byte, claims Claims, subject string, now time.Time, ttl time.Duration) (string, error) {
	claims.Issuer = receiptIssuer
	claims.Subject = subject
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify checks a receipt's signature and expiry and returns its claims.
func Verify(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(receiptIssuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceipt, err)
	}
	if !token.Valid {
		return nil, ErrInvalidReceipt
	}
	if claims.Flag == "" {
		return nil, fmt.Errorf("%w: flag missing", ErrInvalidReceipt)
	}
	return claims, nil
}
