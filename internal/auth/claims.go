package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// idClaims are the parts of a Firebase ID token the client uses.
type idClaims struct {
	UserID string
	Email  string
	Expiry time.Time
}

// parseIDToken reads the claims without verifying the signature.
func parseIDToken(tokenStr string) (*idClaims, error) {
	parser := new(jwt.Parser)
	token, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse id token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse id token: unexpected claims type")
	}

	out := &idClaims{}
	if uid, ok := claims["user_id"].(string); ok {
		out.UserID = uid
	} else if sub, ok := claims["sub"].(string); ok {
		out.UserID = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.Expiry = time.Unix(int64(exp), 0)
	}
	if out.UserID == "" {
		return nil, fmt.Errorf("parse id token: no user id claim")
	}
	return out, nil
}
