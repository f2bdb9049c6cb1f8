package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/krishkrishna03/techex-sub003/internal/domain/model"
)

var TokenAuth *jwtauth.JWTAuth

// InitJWT configures verification of tokens issued by the main application.
func InitJWT(secret []byte) {
	TokenAuth = jwtauth.New("HS256", secret, nil)
}

// GenerateToken signs a token the same way the issuing application does.
// This service never hands tokens out; it exists for tooling and tests.
func GenerateToken(p model.Principal, ttl time.Duration) (string, error) {
	if TokenAuth == nil {
		return "", errors.New("jwt not initialized")
	}
	claims := map[string]any{
		"user_id": p.UserID,
		"role":    p.Role,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	if p.Email != "" {
		claims["email"] = p.Email
	}
	if p.Name != "" {
		claims["name"] = p.Name
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// PrincipalFromClaims extracts the caller. user_id and role are mandatory.
func PrincipalFromClaims(claims map[string]any) (model.Principal, error) {
	id, err := GetUserIDFromClaims(claims)
	if err != nil {
		return model.Principal{}, err
	}
	role, err := GetUserRoleFromClaims(claims)
	if err != nil {
		return model.Principal{}, err
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return model.Principal{UserID: id, Role: role, Email: email, Name: name}, nil
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return "", errors.New("role claim is missing or not a string")
	}
	switch role {
	case model.RoleMasterAdmin, model.RoleCollegeAdmin, model.RoleFaculty, model.RoleStudent:
		return role, nil
	}
	return "", errors.New("role claim has an unknown value")
}
