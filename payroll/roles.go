package payroll

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// RoleKind is decided once, when a role name is loaded.
type RoleKind int

const (
	RoleStandard RoleKind = iota
	RoleOnCall
)

type Role struct {
	ID   RoleID
	Name string
	Kind RoleKind
}

// NewRole tags the role from its resolved name. Only the exact name
// OnCallRoleName marks on-call.
func NewRole(id RoleID, name string) Role {
	kind := RoleStandard
	if name == OnCallRoleName {
		kind = RoleOnCall
	}
	return Role{ID: id, Name: name, Kind: kind}
}

func (r Role) IsOnCall() bool { return r.Kind == RoleOnCall }

// RoleLookup returns the loaded role for an id.
type RoleLookup func(RoleID) Role

// RoleNamer resolves a role id to its display name.
type RoleNamer interface {
	RoleName(ctx context.Context, id RoleID) (string, error)
}

// =============================================================================
// ROLE CATALOG - Roles loaded once per run
// =============================================================================

// RoleCatalog memoizes role resolution for one run. Safe for concurrent use.
type RoleCatalog struct {
	namer RoleNamer
	warn  func(Warning)

	mu    sync.Mutex
	roles map[RoleID]Role
}

func NewRoleCatalog(namer RoleNamer, warn func(Warning)) *RoleCatalog {
	return &RoleCatalog{namer: namer, warn: warn, roles: make(map[RoleID]Role)}
}

// Load resolves every id not seen yet. Resolution failures fall back to
// "Role <id>" and are reported as warnings.
func (c *RoleCatalog) Load(ctx context.Context, ids ...RoleID) {
	for _, id := range ids {
		if _, ok := c.get(id); ok {
			continue
		}
		c.put(c.resolve(ctx, id))
	}
}

// Lookup returns the loaded role. Unloaded ids resolve to a standard
// placeholder so classification never blocks on I/O.
func (c *RoleCatalog) Lookup(id RoleID) Role {
	if role, ok := c.get(id); ok {
		return role
	}
	return placeholderRole(id)
}

// Roles returns every loaded role.
func (c *RoleCatalog) Roles() []Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Role, 0, len(c.roles))
	for _, r := range c.roles {
		out = append(out, r)
	}
	SortRoles(out)
	return out
}

func (c *RoleCatalog) resolve(ctx context.Context, id RoleID) Role {
	if id == 0 {
		return NewRole(0, "Unknown Role")
	}
	if c.namer == nil {
		return placeholderRole(id)
	}
	name, err := c.namer.RoleName(ctx, id)
	if err != nil {
		if c.warn != nil {
			c.warn(Warning{Kind: WarnRole, Message: fmt.Sprintf("role %d name unavailable, using placeholder: %v", id, err)})
		}
		return placeholderRole(id)
	}
	if strings.TrimSpace(name) == "" {
		return placeholderRole(id)
	}
	return NewRole(id, name)
}

func (c *RoleCatalog) get(id RoleID) (Role, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.roles[id]
	return r, ok
}

func (c *RoleCatalog) put(r Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.roles[r.ID]; !ok {
		c.roles[r.ID] = r
	}
}

func placeholderRole(id RoleID) Role {
	if id == 0 {
		return NewRole(0, "Unknown Role")
	}
	return NewRole(id, fmt.Sprintf("Role %d", id))
}
