package view

// Scope carries the variables available to a component while it renders.
// Scopes form a hierarchy: a component spawns child scopes to pass variables
// to the components it renders.
type Scope interface {
	// Spawn creates a child scope initialized with vars.
	Spawn(vars map[string]any) Scope

	// Vars provides access to the variables stored in the scope.
	Vars() map[string]any
}

// BaseScope is a base implementation of the Scope interface. For extra
// functionality it can be embedded in a custom scope.
type BaseScope struct {
	vars map[string]any
}

var _ Scope = (*BaseScope)(nil)

func NewScope(vars map[string]any) *BaseScope {
	if vars == nil {
		vars = map[string]any{}
	}
	return &BaseScope{vars: vars}
}

// Spawn creates a child scope. Parent variables are visible in the child unless
// vars shadows them.
func (s *BaseScope) Spawn(vars map[string]any) Scope {
	merged := make(map[string]any, len(s.vars)+len(vars))
	for k, v := range s.vars {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return &BaseScope{vars: merged}
}

func (s *BaseScope) Vars() map[string]any {
	return s.vars
}
