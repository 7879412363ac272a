// Package lifecycle owns the order state machine: which statuses follow which,
// who may move an order, and every side effect a transition carries.
package lifecycle

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"github.com/Kaashmalik/laraibcreative-platform-sub005/internal/model"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

// rbacRules is the full permission table. Subjects are roles, objects are
// either a transition target ("status:<target>") or a named capability.
var rbacRules = [][]string{
	// Staff run the whole lifecycle, including fixing payments over the counter.
	{"staff", "status:pending-payment", "transition"},
	{"staff", "status:payment-verified", "transition"},
	{"staff", "status:payment-failed", "transition"},
	{"staff", "status:in-production", "transition"},
	{"staff", "status:quality-check", "transition"},
	{"staff", "status:ready-for-dispatch", "transition"},
	{"staff", "status:out-for-delivery", "transition"},
	{"staff", "status:delivered", "transition"},
	{"staff", "status:cancelled", "transition"},

	// Customers may cancel their own orders and resubmit payment.
	{"customer", "status:cancelled", "transition"},
	{"customer", "status:pending-payment", "transition"},

	// The platform itself only ever moves finished production to quality check.
	{"system", "status:quality-check", "transition"},

	{"staff", "queue", "assign"},
	{"staff", "queue", "substatus"},
	{"system", "queue", "substatus"},
	{"staff", "tailor", "manage"},
	{"staff", "notice", "send"},
}

// Policy answers authorization questions. It is immutable after construction
// and safe for concurrent use.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("parse rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("build enforcer: %w", err)
	}
	if _, err := e.AddPolicies(rbacRules); err != nil {
		return nil, fmt.Errorf("load rbac rules: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

// CanTransition reports whether the role may move any order into target.
// Ownership and state checks are the Authority's business, not the Policy's.
func (p *Policy) CanTransition(role model.Role, target model.Status) (bool, error) {
	return p.enforcer.Enforce(string(role), "status:"+string(target), "transition")
}

// Can checks a named capability such as ("queue", "assign").
func (p *Policy) Can(role model.Role, object, action string) (bool, error) {
	return p.enforcer.Enforce(string(role), object, action)
}
