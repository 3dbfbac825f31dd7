package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"usuario", "admin"} {
		role, err := ParseRole(valid)
		assert.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	for _, invalid := range []string{"", "ADMIN", "fundador", "miembro", "superuser"} {
		_, err := ParseRole(invalid)
		assert.ErrorIs(t, err, ErrValidation, invalid)
	}
}

func TestAdminInheritsUserCapabilities(t *testing.T) {
	userCaps := []Capability{
		CapRegisterStartup, CapSubmitPostulacion, CapAnswerImpact, CapUploadDocuments,
	}
	for _, cap := range userCaps {
		assert.True(t, RoleUsuario.HasCapability(cap), string(cap))
		assert.True(t, RoleAdmin.HasCapability(cap), string(cap))
	}
}

func TestUsuarioLacksAdminCapabilities(t *testing.T) {
	adminOnly := []Capability{
		CapManageConvocatorias, CapViewStartupDirectory, CapReviewPostulaciones,
		CapEvaluatePostulaciones, CapManageUsers, CapViewStatistics,
	}
	for _, cap := range adminOnly {
		assert.False(t, RoleUsuario.HasCapability(cap), string(cap))
		assert.True(t, RoleAdmin.HasCapability(cap), string(cap))
	}
}

func TestAuthorize(t *testing.T) {
	t.Run("NilClaims", func(t *testing.T) {
		assert.ErrorIs(t, Authorize(nil, CapRegisterStartup), ErrUnauthenticated)
	})

	t.Run("UnregisteredUser", func(t *testing.T) {
		claims := &Claims{UserID: "u1", Role: RoleUsuario, IsRegistered: false}
		assert.ErrorIs(t, Authorize(claims, CapRegisterStartup), ErrUnregistered)
	})

	t.Run("MissingCapability", func(t *testing.T) {
		claims := &Claims{UserID: "u1", Role: RoleUsuario, IsRegistered: true}
		assert.ErrorIs(t, Authorize(claims, CapManageUsers), ErrForbidden)
	})

	t.Run("Allowed", func(t *testing.T) {
		claims := &Claims{UserID: "u1", Role: RoleUsuario, IsRegistered: true}
		assert.NoError(t, Authorize(claims, CapSubmitPostulacion))
	})

	t.Run("UnknownRoleDeniedEverything", func(t *testing.T) {
		claims := &Claims{UserID: "u1", Role: Role("ghost"), IsRegistered: true}
		assert.ErrorIs(t, Authorize(claims, CapRegisterStartup), ErrForbidden)
	})
}
