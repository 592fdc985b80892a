// Package session supplies the bearer credential used on every records API
// call. Sources are consulted on each call; nothing caches the token value.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/rsms-admin/internal"
)

// Source yields the current credential. An empty token with a nil error
// means "no credential available".
type Source interface {
	Token(ctx context.Context) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// Static always returns the same token.
type Static string

func (s Static) Token(context.Context) (string, error) { return string(s), nil }

// File reads the token from disk on every call, so a rotated file takes
// effect on the next request.
type File struct {
	Path string
}

func (f File) Token(context.Context) (string, error) {
	if f.Path == "" {
		return "", nil
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Save writes token to the file with owner-only permissions.
func (f File) Save(token string) error {
	if f.Path == "" {
		return errors.New("token file path is empty")
	}
	return os.WriteFile(f.Path, []byte(token+"\n"), 0o600)
}

// Env reads the named environment variable on every call.
type Env string

func (e Env) Token(context.Context) (string, error) {
	if e == "" {
		return "", nil
	}
	return strings.TrimSpace(os.Getenv(string(e))), nil
}

type ctxKey struct{}

// WithToken attaches a per-request credential to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKey{}, token)
}

// TokenFromContext returns the credential attached with WithToken.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(ctxKey{}).(string)
	return token
}

// FromContext reads the credential forwarded by the caller of an HTTP request.
func FromContext() Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		return TokenFromContext(ctx), nil
	})
}

// Chain returns the first non-empty token among sources.
func Chain(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context) (string, error) {
		for _, s := range sources {
			if s == nil {
				continue
			}
			token, err := s.Token(ctx)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	})
}

// Resolve reads the token from src and rejects missing or expired ones
// before any request is sent.
func Resolve(ctx context.Context, src Source) (string, error) {
	if src == nil {
		return "", internal.ErrMissingToken
	}
	token, err := src.Token(ctx)
	if err != nil {
		return "", internal.NewUnauthorizedError(internal.ErrMissingToken.Message, internal.ErrCodeMissingToken).WithCause(err)
	}
	if err := Check(token); err != nil {
		return "", err
	}
	return token, nil
}

var parser = jwt.NewParser()

// Check rejects an empty token and a JWT whose exp claim has passed.
// Signatures are not verified here; tokens that are not JWTs pass.
func Check(token string) error {
	return checkAt(token, time.Now())
}

func checkAt(token string, now time.Time) error {
	if strings.TrimSpace(token) == "" {
		return internal.ErrMissingToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if !now.Before(exp.Time) {
		return internal.ErrTokenExpired
	}
	return nil
}

// Subject names the holder of token from its username, email or sub claim.
func Subject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, key := range []string{"username", "email", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
