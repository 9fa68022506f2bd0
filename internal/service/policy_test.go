package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"equipment-monitor/internal/domain"
	"equipment-monitor/internal/repository"
)

func TestScopeFor(t *testing.T) {
	admin := domain.Identity{ID: 1, Role: domain.RoleAdmin}
	eng := domain.Identity{ID: 7, Role: domain.RoleEngineer}

	assert.Equal(t, repository.Scope{All: true}, ScopeFor(admin))
	assert.Equal(t, repository.Scope{OwnerID: 7}, ScopeFor(eng))
	assert.Equal(t, repository.Scope{}, ScopeFor(domain.Identity{}))
}

func TestCanView(t *testing.T) {
	admin := domain.Identity{ID: 1, Role: domain.RoleAdmin}
	eng := domain.Identity{ID: 7, Role: domain.RoleEngineer}

	assert.True(t, CanView(admin, 7))
	assert.True(t, CanView(eng, 7))
	assert.False(t, CanView(eng, 8))
	assert.False(t, CanView(domain.Identity{ID: 7, Role: "unknown"}, 8))
}
