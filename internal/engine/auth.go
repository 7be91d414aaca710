package engine

import "github.com/millwork-io/shoptrak/internal/utils"

// JWTAuthorizer checks admin session tokens. Satisfies Authorizer.
type JWTAuthorizer struct {
	Secret string
}

// IsAdmin reports whether the token carries a valid admin session.
func (a JWTAuthorizer) IsAdmin(token string) bool {
	if token == "" {
		return false
	}
	claims, err := utils.ValidateToken(token, a.Secret)
	if err != nil {
		return false
	}
	role, _ := claims["role"].(string)
	return role == "admin"
}
