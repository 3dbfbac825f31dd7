package models

import "fmt"

// Role is the canonical role enumeration. It replaces the two enumerations the
// platform historically carried (a three-role permissions table and a two-role
// routing check) with a single type plus an explicit capability table.
type Role string

const (
	RoleUsuario Role = "usuario"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a stored or client-provided role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUsuario, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q: %w", s, ErrValidation)
	}
}

// Capability is a named permission checked server-side by resource handlers.
// The access gate only looks at the coarse Role; handlers re-verify the
// specific capability on every mutating operation.
type Capability string

const (
	CapRegisterStartup       Capability = "canRegisterStartup"
	CapSubmitPostulacion     Capability = "canSubmitPostulacion"
	CapAnswerImpact          Capability = "canAnswerImpact"
	CapUploadDocuments       Capability = "canUploadDocuments"
	CapManageConvocatorias   Capability = "canManageConvocatorias"
	CapViewStartupDirectory  Capability = "canViewStartupDirectory"
	CapReviewPostulaciones   Capability = "canReviewPostulaciones"
	CapEvaluatePostulaciones Capability = "canEvaluatePostulaciones"
	CapManageUsers           Capability = "canManageUsers"
	CapViewStatistics        Capability = "canViewStatistics"
)

// capabilities is the single source of truth mapping roles to what they may do.
// Admins inherit every user capability.
var capabilities = map[Role]map[Capability]bool{
	RoleUsuario: {
		CapRegisterStartup:   true,
		CapSubmitPostulacion: true,
		CapAnswerImpact:      true,
		CapUploadDocuments:   true,
	},
	RoleAdmin: {
		CapRegisterStartup:       true,
		CapSubmitPostulacion:     true,
		CapAnswerImpact:          true,
		CapUploadDocuments:       true,
		CapManageConvocatorias:   true,
		CapViewStartupDirectory:  true,
		CapReviewPostulaciones:   true,
		CapEvaluatePostulaciones: true,
		CapManageUsers:           true,
		CapViewStatistics:        true,
	},
}

// HasCapability reports whether the role holds the named capability.
func (r Role) HasCapability(cap Capability) bool {
	caps, ok := capabilities[r]
	if !ok {
		return false
	}
	return caps[cap]
}

// Authorize returns ErrForbidden unless the claims carry a registered user
// whose role holds the capability. Handlers call this at the top of every
// protected operation, re-affirming the gate's decision instead of trusting it.
func Authorize(claims *Claims, cap Capability) error {
	if claims == nil {
		return fmt.Errorf("no session: %w", ErrUnauthenticated)
	}
	if !claims.IsRegistered {
		return fmt.Errorf("registration required: %w", ErrUnregistered)
	}
	if !claims.Role.HasCapability(cap) {
		return fmt.Errorf("role %s lacks %s: %w", claims.Role, cap, ErrForbidden)
	}
	return nil
}
