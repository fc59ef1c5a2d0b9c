package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/inkdesk/storefront/internal/domain"
	"github.com/inkdesk/storefront/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type principalKey struct{}

// Claims are issued by the auth service. Subject is the user's ObjectID hex.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func withPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// TokenVerifier validates HS256 bearer tokens.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (v *TokenVerifier) Verify(raw string) (domain.Principal, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", service.ErrUnauthorized, err)
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: token subject is not a user id", service.ErrUnauthorized)
	}

	role := domain.Role(claims.Role)
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	return domain.Principal{UserID: userID, Role: role}, nil
}

// tokenFromRequest reads the bearer header, falling back to the token cookie.
func tokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", fmt.Errorf("%w: malformed authorization header", service.ErrUnauthorized)
		}
		return strings.TrimSpace(token), nil
	}
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	return "", fmt.Errorf("%w: missing credentials", service.ErrUnauthorized)
}

var errNoPrincipal = errors.New("no authenticated principal in context")
