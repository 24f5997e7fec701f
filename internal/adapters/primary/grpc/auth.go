package grpc

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user_id"}

// TokenVerifier checks RS256 access tokens issued by the identity service.
// It only holds the public key: this service never signs anything.
type TokenVerifier struct {
	publicKey *rsa.PublicKey
}

func NewTokenVerifier(publicKeyPEM []byte) (*TokenVerifier, error) {
	pub, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return &TokenVerifier{publicKey: pub}, nil
}

// Verify returns the token subject, which is the user id.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}

// UnaryAuthInterceptor puts the caller's user id in the context.
// No authorization header means an anonymous visitor; a bad one is rejected.
// A nil verifier treats every caller as anonymous.
func UnaryAuthInterceptor(v *TokenVerifier) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if v == nil {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		values := md.Get("authorization")
		if len(values) == 0 || values[0] == "" {
			return handler(ctx, req)
		}

		tokenStr, ok := strings.CutPrefix(values[0], "Bearer ")
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "invalid token format")
		}

		userID, err := v.Verify(tokenStr)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		return handler(context.WithValue(ctx, userCtxKey, userID), req)
	}
}

// UserIDFromContext returns "" for anonymous callers.
func UserIDFromContext(ctx context.Context) string {
	raw, _ := ctx.Value(userCtxKey).(string)
	return raw
}
