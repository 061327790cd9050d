package services

import (
	"testing"

	"nutriplan-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnterpriseOfPicksEarliestMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnterpriseService(db)

	require.NoError(t, db.Create(&models.Enterprise{ID: "ent1", Name: "First Org", CreatedBy: "boss1"}).Error)
	require.NoError(t, db.Create(&models.Enterprise{ID: "ent2", Name: "Second Org", CreatedBy: "boss2"}).Error)
	require.NoError(t, db.Create(&models.OrganizationUser{EnterpriseID: "ent1", UserID: "u1", Role: "member"}).Error)
	require.NoError(t, db.Create(&models.OrganizationUser{EnterpriseID: "ent2", UserID: "u1", Role: "member"}).Error)

	// dual membership: the first-joined enterprise is the authoring home
	got := svc.EnterpriseOf("u1")
	require.NotNil(t, got)
	assert.Equal(t, "ent1", *got)

	assert.Nil(t, svc.EnterpriseOf("nobody"))
}

func TestIsOrgAdminRoles(t *testing.T) {
	db := newTestDB(t)
	svc := NewEnterpriseService(db)

	require.NoError(t, db.Create(&models.Enterprise{ID: "ent1", Name: "Org", CreatedBy: "boss"}).Error)
	memberships := []models.OrganizationUser{
		{EnterpriseID: "ent1", UserID: "adm", Role: "admin"},
		{EnterpriseID: "ent1", UserID: "mem", Role: "member"},
	}
	require.NoError(t, db.Create(&memberships).Error)

	ok, _ := svc.IsOrgAdmin("boss", "ent1")
	assert.True(t, ok, "enterprise owner")
	ok, _ = svc.IsOrgAdmin("adm", "ent1")
	assert.True(t, ok, "admin member")
	ok, _ = svc.IsOrgAdmin("mem", "ent1")
	assert.False(t, ok, "regular member")
	ok, _ = svc.IsOrgAdmin("ghost", "ent1")
	assert.False(t, ok, "non-member")
	ok, _ = svc.IsOrgAdmin("adm", "nope")
	assert.False(t, ok, "unknown enterprise")
}
