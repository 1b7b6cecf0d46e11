package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/salesdesk/crm-api/internal/config"
	"github.com/salesdesk/crm-api/internal/domain"
)

// Verification errors
var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token is expired")
	ErrUnknownRole  = errors.New("token carries an unknown role")
)

// Claims is the payload this API expects from the external credential
// service. Tokens are never issued here, only verified.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HS256 bearer tokens issued by the credential service
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a new JWTVerifier from configuration
func NewJWTVerifier(cfg *config.JWTConfig) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// Verify parses and validates a bearer token and returns the caller's
// identity. Unknown role values are rejected here so every downstream
// policy check fails closed.
func (v *JWTVerifier) Verify(tokenString string) (*UserContext, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	userID, err := parseSubject(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	role := domain.Role(claims.Role)
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}

	return &UserContext{
		UserID: userID,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   role,
	}, nil
}

func parseSubject(sub string) (uint, error) {
	if sub == "" {
		return 0, errors.New("missing sub claim")
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("non-numeric sub claim %q", sub)
	}
	if id == 0 {
		return 0, errors.New("sub claim must be a positive id")
	}
	return uint(id), nil
}
