// Package auth resolves the dashboard viewer from incoming requests.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"

	dashboard "github.com/goliatone/go-gridboard/components/dashboard"
	"github.com/goliatone/go-gridboard/pkg/logger"
)

// ErrNoToken is returned by TokenFromContext when the request carried no bearer token.
var ErrNoToken = errors.New("auth: no bearer token in context")

// Verifier turns a bearer token into a viewer.
type Verifier interface {
	Verify(ctx context.Context, token string) (dashboard.ViewerContext, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (dashboard.ViewerContext, error)

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, token string) (dashboard.ViewerContext, error) {
	return f(ctx, token)
}

type tokenKey struct{}

// ContextWithToken stores the raw bearer token so outgoing calls can forward it.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token stored by the middleware. Its signature
// matches the token sources of the finance client and the remote store.
func TokenFromContext(ctx context.Context) (string, error) {
	token, _ := ctx.Value(tokenKey{}).(string)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Middleware verifies the bearer token and stores the viewer and the token
// on the request context.
func Middleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			viewer, err := verifier.Verify(r.Context(), token)
			if err != nil || viewer.UserID == "" {
				logger.FromContext(r.Context()).Warn("token verification failed", "error", err)
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}
			if viewer.Locale == "" {
				viewer.Locale = preferredLocale(r)
			}
			ctx := dashboard.ContextWithViewer(r.Context(), viewer)
			ctx = ContextWithToken(ctx, token)
			_, ctx = logger.With(ctx, logger.FieldUserID, viewer.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HeaderMiddleware trusts the X-User-ID header set by an upstream gateway.
// Only use it behind a proxy that strips client supplied values.
func HeaderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID == "" {
			http.Error(w, "missing X-User-ID header", http.StatusUnauthorized)
			return
		}
		ctx := dashboard.ContextWithViewer(r.Context(), dashboard.ViewerContext{UserID: userID, Locale: preferredLocale(r)})
		if token, ok := bearerToken(r); ok {
			ctx = ContextWithToken(ctx, token)
		}
		_, ctx = logger.With(ctx, logger.FieldUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Anonymous serves every request as a single fixed viewer. Intended for
// local development.
func Anonymous(viewer dashboard.ViewerContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(dashboard.ContextWithViewer(r.Context(), viewer)))
		})
	}
}

// FirebaseVerifier verifies Firebase ID tokens.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier initializes the Firebase app from the ambient
// Google credentials.
func NewFirebaseVerifier(ctx context.Context) (*FirebaseVerifier, error) {
	app, err := firebase.NewApp(ctx, nil)
	if err != nil {
		return nil, err
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	return &FirebaseVerifier{client: client}, nil
}

// Verify implements Verifier.
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (dashboard.ViewerContext, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return dashboard.ViewerContext{}, err
	}
	viewer := dashboard.ViewerContext{UserID: decoded.UID}
	if locale, ok := decoded.Claims["locale"].(string); ok {
		viewer.Locale = locale
	}
	return viewer, nil
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// preferredLocale returns the primary language tag of Accept-Language.
func preferredLocale(r *http.Request) string {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(header, ",")[0])
	first = strings.Split(first, ";")[0]
	return strings.ToLower(strings.Split(first, "-")[0])
}
