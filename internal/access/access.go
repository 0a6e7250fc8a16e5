/*

This file contains the role-check gate the vault consults before any
privileged operation. The engine does not store roles itself; it only needs a
predicate answering "does this caller hold this role".

*/

package access

// Role identifies a privileged capability on the vault.
type Role string

const (
	// RoleManager gates fee configuration and emergency liquidity recovery.
	RoleManager Role = "MANAGER"
	// RoleCurator gates adding and removing strategies.
	RoleCurator Role = "CURATOR"
	// RoleAllocator gates caps, queue ordering and reallocation.
	RoleAllocator Role = "ALLOCATOR"
)

// Gate is the permission collaborator the vault consults on every
// state-mutating admin entry point.
type Gate interface {
	HasRole(role Role, caller string) bool
}

// StaticGate is a map-backed Gate for tests and simulation runs.
type StaticGate struct {
	grants map[Role]map[string]bool
}

// NewStaticGate creates an empty gate with no grants.
func NewStaticGate() *StaticGate {
	return &StaticGate{grants: make(map[Role]map[string]bool)}
}

// Grant gives caller the role. Returns the gate for chained setup.
func (g *StaticGate) Grant(role Role, caller string) *StaticGate {
	if g.grants[role] == nil {
		g.grants[role] = make(map[string]bool)
	}
	g.grants[role][caller] = true
	return g
}

// Revoke removes the role from caller.
func (g *StaticGate) Revoke(role Role, caller string) {
	delete(g.grants[role], caller)
}

// HasRole reports whether caller holds role.
func (g *StaticGate) HasRole(role Role, caller string) bool {
	return g.grants[role][caller]
}
