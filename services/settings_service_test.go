package services

import (
	"testing"
	"time"

	"nutriplan-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSettingsService(t *testing.T) *SettingsService {
	return NewSettingsService(newTestDB(t), newTestLogger(), nil)
}

func TestUpsertThenGetCurrent(t *testing.T) {
	svc := newSettingsService(t)

	res, err := svc.Upsert("u1", "health_profile", map[string]any{"age": 30.0, "goal": "heal"}, nil)
	require.NoError(t, err)
	assert.True(t, res.HistorySaved)
	assert.NoError(t, res.HistoryError)
	assert.Equal(t, []string{"age", "goal"}, res.ChangedFields)
	assert.Equal(t, 1, res.Settings.Revision)

	cur, err := svc.GetCurrent("u1", "health_profile")
	require.NoError(t, err)
	assert.Equal(t, "heal", cur.SettingsData["goal"])
	assert.Equal(t, 30.0, cur.SettingsData["age"])
}

func TestUpsertValidation(t *testing.T) {
	svc := newSettingsService(t)

	_, err := svc.Upsert("", "health_profile", map[string]any{"a": 1.0}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Upsert("u1", "", map[string]any{"a": 1.0}, nil)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Upsert("u1", "health_profile", map[string]any{}, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpsertDiffAndHistoryChain(t *testing.T) {
	svc := newSettingsService(t)

	_, err := svc.Upsert("u1", "health_profile", map[string]any{"age": 30.0, "goal": "heal"}, nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	res, err := svc.Upsert("u1", "health_profile", map[string]any{"age": 31.0, "goal": "heal"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"age"}, res.ChangedFields)
	assert.Equal(t, 2, res.Settings.Revision)
	time.Sleep(5 * time.Millisecond)

	// dropping a key tags it as removed
	res, err = svc.Upsert("u1", "health_profile", map[string]any{"age": 31.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"goal" + RemovedSuffix}, res.ChangedFields)

	entries, err := svc.GetHistory("u1", "health_profile", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// most recent first
	assert.Equal(t, []string{"goal" + RemovedSuffix}, []string(entries[0].ChangedFields))
	assert.Equal(t, []string{"age"}, []string(entries[1].ChangedFields))
	assert.Equal(t, []string{"age", "goal"}, []string(entries[2].ChangedFields))

	// the oldest entry has no previous document
	assert.Empty(t, entries[2].PreviousSettingsData)
	assert.Equal(t, 30.0, entries[1].PreviousSettingsData["age"])
	assert.Equal(t, "heal", entries[1].PreviousSettingsData["goal"])
	assert.Equal(t, "u1", entries[0].CreatedBy)
}

func TestUpsertIdenticalDocIsIdempotent(t *testing.T) {
	svc := newSettingsService(t)
	doc := map[string]any{"age": 30.0}

	_, err := svc.Upsert("u1", "health_profile", doc, nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	res, err := svc.Upsert("u1", "health_profile", doc, nil)
	require.NoError(t, err)
	assert.Empty(t, res.ChangedFields)

	entries, err := svc.GetHistory("u1", "health_profile", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Empty(t, []string(entries[0].ChangedFields))
}

func TestGetHistoryLimit(t *testing.T) {
	svc := newSettingsService(t)
	for i := 0; i < 4; i++ {
		_, err := svc.Upsert("u1", "health_profile", map[string]any{"age": float64(30 + i)}, nil)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	entries, err := svc.GetHistory("u1", "health_profile", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 33.0, entries[0].SettingsData["age"])
	assert.Equal(t, 32.0, entries[1].SettingsData["age"])
}

func TestUpsertRevisionConflict(t *testing.T) {
	svc := newSettingsService(t)

	res, err := svc.Upsert("u1", "health_profile", map[string]any{"age": 30.0}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, res.Settings.Revision)

	rev := 1
	res, err = svc.Upsert("u1", "health_profile", map[string]any{"age": 31.0}, &rev)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Settings.Revision)

	// a second writer still holding revision 1 loses
	_, err = svc.Upsert("u1", "health_profile", map[string]any{"age": 99.0}, &rev)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	cur, err := svc.GetCurrent("u1", "health_profile")
	require.NoError(t, err)
	assert.Equal(t, 31.0, cur.SettingsData["age"])
}

func TestUpsertSurvivesHistoryFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(db, newTestLogger(), nil)

	// simulate a broken history store
	require.NoError(t, db.Migrator().DropTable(&models.UserSettingsHistory{}))

	res, err := svc.Upsert("u1", "health_profile", map[string]any{"age": 30.0}, nil)
	require.NoError(t, err)
	assert.False(t, res.HistorySaved)
	assert.ErrorIs(t, res.HistoryError, ErrHistoryWrite)

	// the settings write itself landed
	cur, err := svc.GetCurrent("u1", "health_profile")
	require.NoError(t, err)
	assert.Equal(t, 30.0, cur.SettingsData["age"])
}

func TestGetCurrentFallsBackToHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewSettingsService(db, newTestLogger(), nil)

	_, err := svc.Upsert("u1", "health_profile", map[string]any{"goal": "heal"}, nil)
	require.NoError(t, err)

	// store and log diverge: the settings row vanishes, the log survives
	require.NoError(t, db.Where("user_id = ?", "u1").Delete(&models.UserSettings{}).Error)

	cur, err := svc.GetCurrent("u1", "health_profile")
	require.NoError(t, err)
	assert.Equal(t, "heal", cur.SettingsData["goal"])
}

func TestGetCurrentNotFound(t *testing.T) {
	svc := newSettingsService(t)
	_, err := svc.GetCurrent("u1", "health_profile")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsTypesAreIndependent(t *testing.T) {
	svc := newSettingsService(t)

	_, err := svc.Upsert("u1", "health_profile", map[string]any{"age": 30.0}, nil)
	require.NoError(t, err)
	_, err = svc.Upsert("u1", "notifications", map[string]any{"email": true}, nil)
	require.NoError(t, err)

	cur, err := svc.GetCurrent("u1", "notifications")
	require.NoError(t, err)
	assert.Equal(t, true, cur.SettingsData["email"])
	assert.NotContains(t, cur.SettingsData, "age")

	entries, err := svc.GetHistory("u1", "health_profile", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDeleteSettingsKeepsHistory(t *testing.T) {
	svc := newSettingsService(t)

	_, err := svc.Upsert("u1", "health_profile", map[string]any{"age": 30.0}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete("u1", "health_profile"))
	assert.ErrorIs(t, svc.Delete("u1", "health_profile"), ErrNotFound)

	entries, err := svc.GetHistory("u1", "health_profile", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDeleteHistoryEntryScopedToOwner(t *testing.T) {
	svc := newSettingsService(t)

	_, err := svc.Upsert("u1", "health_profile", map[string]any{"age": 30.0}, nil)
	require.NoError(t, err)

	entries, err := svc.GetHistory("u1", "health_profile", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// another user cannot delete u1's audit row
	assert.ErrorIs(t, svc.DeleteHistoryEntry("u2", entries[0].ID), ErrNotFound)

	require.NoError(t, svc.DeleteHistoryEntry("u1", entries[0].ID))
	entries, err = svc.GetHistory("u1", "health_profile", 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryForUsersFiltersArtifacts(t *testing.T) {
	svc := newSettingsService(t)

	// a client that stored an array as a mapping produces numeric keys
	_, err := svc.Upsert("u1", "health_profile", map[string]any{"0": "a", "1": "b", "goal": "heal"}, nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Upsert("u2", "health_profile", map[string]any{"age": 30.0}, nil)
	require.NoError(t, err)

	entries, err := svc.HistoryForUsers([]string{"u1", "u2"}, "health_profile", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "u2", entries[0].UserID)
	assert.Equal(t, []string{"age"}, []string(entries[0].ChangedFields))
	assert.Equal(t, "u1", entries[1].UserID)
	assert.Equal(t, []string{"goal"}, []string(entries[1].ChangedFields))

	empty, err := svc.HistoryForUsers(nil, "health_profile", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
