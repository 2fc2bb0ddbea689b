// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/angelamos/blux-portal/internal/core"
)

const IdentityKey contextKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	ID       int64
	Username string
	Role     string
}

type CredentialVerifier interface {
	VerifyCredentials(
		ctx context.Context,
		username, password string,
	) (*Identity, error)
}

// ExtractCredentials parses a Basic credential pair from the Authorization
// header. A missing header and a malformed one surface as distinct errors.
func ExtractCredentials(r *http.Request) (string, string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "", core.UnauthorizedError("missing credentials")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "basic") {
		return "", "", core.MalformedCredentialsError()
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", core.MalformedCredentialsError()
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found || username == "" {
		return "", "", core.MalformedCredentialsError()
	}

	return username, password, nil
}

func Authenticator(verifier CredentialVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, err := ExtractCredentials(r)
			if err != nil {
				core.JSONError(w, err)
				return
			}

			identity, err := verifier.VerifyCredentials(
				r.Context(),
				username,
				password,
			)
			if err != nil {
				core.JSONError(w, core.UnauthorizedError("invalid credentials"))
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())

			if identity == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[identity.Role]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff admits admins and owners.
func RequireStaff(next http.Handler) http.Handler {
	return RequireRole("admin", "owner")(next)
}

func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return identity
	}
	return nil
}

func GetUsername(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.Username
	}
	return ""
}

func GetUserRole(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.Role
	}
	return ""
}
