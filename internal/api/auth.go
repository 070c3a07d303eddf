package api

import (
	"fmt"
	"net/http"
	"strings"

	"hookloop/internal/auth"
)

// tenantFromRequest resolves the bearer credential to the caller's tenant.
// The capture and replay endpoints never call this; list, stats and any
// other tenant-scoped read does. Failures satisfy
// errors.Is(err, auth.ErrUnauthorized).
func (s *Server) tenantFromRequest(r *http.Request) (int64, error) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return 0, fmt.Errorf("%w: missing bearer credential", auth.ErrUnauthorized)
	}
	tok := strings.TrimSpace(authz[len("Bearer "):])
	pr, err := s.Auth.Verify(tok)
	if err != nil {
		return 0, err
	}
	return pr.TenantID, nil
}
