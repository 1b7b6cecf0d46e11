// Package policy holds the pure access decisions shared by every service.
// Decisions depend only on the caller's role and id and the record's
// assignment or ownership field; nothing here touches the database.
//
// Unknown roles deny everything.
package policy

import "github.com/salesdesk/crm-api/internal/domain"

// Scope restricts list and search queries to the caller's own records.
// Repositories must apply it as a WHERE filter before row retrieval;
// post-filtering would leak counts.
type Scope struct {
	// Restricted is true when queries must be limited to UserID's records
	Restricted bool
	// UserID is the caller to restrict to when Restricted is set
	UserID uint
}

// ScopeFor returns the list scope for a caller. Admins and managers read
// everything; sales only their own records. Unknown roles get an
// impossible scope (restricted to user 0, which never owns anything).
func ScopeFor(role domain.Role, callerID uint) Scope {
	switch role {
	case domain.RoleAdmin, domain.RoleManager:
		return Scope{}
	case domain.RoleSales:
		return Scope{Restricted: true, UserID: callerID}
	}
	return Scope{Restricted: true}
}

// CanRead decides read access to a single record with the given
// assignment/ownership field. A nil assignee means the record is
// unassigned, which sales cannot see.
func CanRead(role domain.Role, callerID uint, assignee *uint) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleSales:
		return assignee != nil && *assignee == callerID
	}
	return false
}

// CanWrite decides write access to a single record. The rule matches
// CanRead: sales may only touch records assigned or owned by themselves.
func CanWrite(role domain.Role, callerID uint, assignee *uint) bool {
	return CanRead(role, callerID, assignee)
}

// CanAssign decides who may set the assignment field on leads and
// customers. Sales users receive assignments, they never hand them out.
func CanAssign(role domain.Role) bool {
	return role == domain.RoleAdmin || role == domain.RoleManager
}

// CanDelete decides hard-delete access for leads and customers.
func CanDelete(role domain.Role) bool {
	return role == domain.RoleAdmin || role == domain.RoleManager
}

// CanDeleteDeal decides deal deletion: admins and managers delete any
// deal, sales only their own.
func CanDeleteDeal(role domain.Role, callerID, ownerID uint) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleSales:
		return ownerID == callerID
	}
	return false
}

// CanUpdateDeal decides active-deal updates. Stage progression including
// the won/lost close is reserved for the owning sales user; admins and
// managers create, view and delete but do not drive the pipeline.
func CanUpdateDeal(role domain.Role, callerID, ownerID uint) bool {
	return role == domain.RoleSales && ownerID == callerID
}

// CanChangeUserRole decides who may change another user's role.
func CanChangeUserRole(role domain.Role) bool {
	return role == domain.RoleAdmin
}

// CanCreateDependent decides whether the caller may attach a dependent
// record (followup, note, deal) to a customer with the given assignment.
// Sales need the customer assigned to themselves; an unassigned customer
// blocks dependent creation until an admin or manager assigns it.
func CanCreateDependent(role domain.Role, callerID uint, customerAssignee *uint) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleManager:
		return true
	case domain.RoleSales:
		return customerAssignee != nil && *customerAssignee == callerID
	}
	return false
}
