package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"propertydeals-backend/internal/pkg/validation"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrCredentialsRequired = errors.New("Username and password are required")
	ErrInvalidCredentials  = errors.New("Invalid username or password")
	ErrNotAuthenticated    = errors.New("Not authenticated")
	ErrNotConfigured       = errors.New("Operator login is not configured")
)

// RoleOperator is the only session role; it may submit ledger transactions.
const RoleOperator = "operator"

// Operator is the object stored in session and returned by /me.
type Operator struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Authenticator checks operator credentials (config-backed in production, doubles in tests).
type Authenticator interface {
	Authenticate(username, password string) (*Operator, error)
}

// StaticOperator is a single operator account configured by OPERATOR_USERNAME and
// OPERATOR_PASSWORD_HASH (bcrypt).
type StaticOperator struct {
	Username     string
	PasswordHash string
}

func (s *StaticOperator) Authenticate(username, password string) (*Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	if s.Username == "" || s.PasswordHash == "" {
		return nil, ErrNotConfigured
	}
	if !validation.IsValidUsername(username) {
		return nil, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.Username)) == 1
	// bcrypt runs for unknown usernames too.
	passErr := bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password))
	if !userOK || passErr != nil {
		return nil, ErrInvalidCredentials
	}
	return &Operator{Username: s.Username, Role: RoleOperator}, nil
}

// VerifyOperator validates the session user and returns the shape for /me.
func VerifyOperator(sessionUser interface{}) (*Operator, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	username, _ := m["username"].(string)
	if username == "" {
		return nil, ErrNotAuthenticated
	}
	role, _ := m["role"].(string)
	if role != RoleOperator {
		return nil, ErrNotAuthenticated
	}
	return &Operator{Username: username, Role: role}, nil
}
