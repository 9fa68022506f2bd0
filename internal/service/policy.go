package service

import (
	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/repository"
)

// ScopeFor returns the rows an identity may list: everything for admins,
// only their own rows for everyone else.
func ScopeFor(id domain.Identity) repository.Scope {
	if id.IsAdmin() {
		return repository.Scope{All: true}
	}
	return repository.Scope{OwnerID: id.ID}
}

// CanView applies the same rule as ScopeFor to a single record owned by ownerID.
func CanView(id domain.Identity, ownerID int64) bool {
	scope := ScopeFor(id)
	return scope.All || scope.OwnerID == ownerID
}

func requireAdmin(id domain.Identity) error {
	if !id.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
