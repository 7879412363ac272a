package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

func TestPolicyTransitions(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	cases := []struct {
		role   model.Role
		target model.Status
		want   bool
	}{
		{model.RoleStaff, model.StatusPaymentVerified, true},
		{model.RoleStaff, model.StatusDelivered, true},
		{model.RoleStaff, model.StatusCancelled, true},
		{model.RoleCustomer, model.StatusCancelled, true},
		{model.RoleCustomer, model.StatusPendingPayment, true},
		{model.RoleCustomer, model.StatusPaymentVerified, false},
		{model.RoleCustomer, model.StatusInProduction, false},
		{model.RoleCustomer, model.StatusDelivered, false},
		{model.RoleSystem, model.StatusQualityCheck, true},
		{model.RoleSystem, model.StatusCancelled, false},
		{model.RoleSystem, model.StatusDelivered, false},
	}
	for _, c := range cases {
		got, err := p.CanTransition(c.role, c.target)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s -> %s", c.role, c.target)
	}
}

func TestPolicyCapabilities(t *testing.T) {
	p, err := NewPolicy()
	require.NoError(t, err)

	cases := []struct {
		role   model.Role
		object string
		action string
		want   bool
	}{
		{model.RoleStaff, "queue", "assign", true},
		{model.RoleStaff, "queue", "substatus", true},
		{model.RoleSystem, "queue", "substatus", true},
		{model.RoleSystem, "queue", "assign", false},
		{model.RoleCustomer, "queue", "assign", false},
		{model.RoleCustomer, "queue", "substatus", false},
		{model.RoleStaff, "tailor", "manage", true},
		{model.RoleCustomer, "tailor", "manage", false},
		{model.RoleStaff, "notice", "send", true},
		{model.RoleSystem, "notice", "send", false},
	}
	for _, c := range cases {
		got, err := p.Can(c.role, c.object, c.action)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s %s:%s", c.role, c.object, c.action)
	}
}
