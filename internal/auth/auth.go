package auth

import "time"

type Authenticator interface {
	GenerateToken(userID int64, email, role string, validity time.Duration) (string, error)
	ValidateToken(token string) (*Claims, error)
}
