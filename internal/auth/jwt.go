package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation failures, one sentinel per failure mode so callers
// can map them to stable API error codes.
var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenUnsupported = errors.New("token uses an unsupported signing method")
)

// Claims is the decoded payload of a session token. Validity is proven
// entirely by signature plus expiry; nothing is stored server-side.
type Claims struct {
	UserID int64  `json:"-"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type JWTAuthenticator struct {
	secret []byte
	iss    string
}

func NewJWTAuthenticator(secret, iss string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret), iss: iss}
}

// GenerateToken issues a self-contained HS512 token carrying the user's
// id, email and role, valid from now until now+validity.
func (a *JWTAuthenticator) GenerateToken(userID int64, email, role string, validity time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    a.iss,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(a.secret)
}

// ValidateToken verifies the signature and expiry of a presented token
// and returns its decoded claims. A token is rejected from exactly its
// expiry instant onward.
func (a *JWTAuthenticator) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
			return nil, ErrTokenUnsupported
		}
		return a.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenUnsupported):
			return nil, ErrTokenUnsupported
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	claims.UserID = userID

	return claims, nil
}
