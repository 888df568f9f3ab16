package supabase

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried by Supabase API keys.
const (
	RoleAnon        = "anon"
	RoleServiceRole = "service_role"
)

// KeyRole returns the role claim of a JWT API key. The signature is not
// checked; the project does that on every request.
func KeyRole(key string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return "", fmt.Errorf("api key is not a JWT: %w", err)
	}
	role, _ := claims["role"].(string)
	return role, nil
}
