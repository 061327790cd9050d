package services

import (
	"errors"
	"fmt"
	"time"

	"nutriplan-backend/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SettingsService orchestrates the current-value store and the append-only
// history log. The settings write is the operation the caller waits on; the
// history append is best-effort and never fails the request.
type SettingsService struct {
	db  *gorm.DB
	log *logrus.Logger
	rt  *RealtimeHub // optional
}

func NewSettingsService(db *gorm.DB, log *logrus.Logger, rt *RealtimeHub) *SettingsService {
	return &SettingsService{db: db, log: log, rt: rt}
}

type UpsertResult struct {
	Settings      *models.UserSettings `json:"settings"`
	ChangedFields []string             `json:"changed_fields"`
	// HistorySaved is false when the settings row landed but the audit row
	// did not. The save itself still succeeded; callers surface a warning.
	// HistoryError carries the wrapped ErrHistoryWrite cause for logging.
	HistorySaved bool  `json:"history_saved"`
	HistoryError error `json:"-"`
}

// Upsert saves the document for (ownerID, settingsType), computes the diff
// against the previous document, and appends a history entry.
//
// expectedRevision, when non-nil, must match the stored revision or the
// write is rejected with ErrRevisionConflict; pass nil for plain
// last-write-wins.
func (s *SettingsService) Upsert(ownerID, settingsType string, doc map[string]any, expectedRevision *int) (*UpsertResult, error) {
	if ownerID == "" || settingsType == "" {
		return nil, fmt.Errorf("%w: owner and settings_type are required", ErrValidation)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: settings data cannot be empty", ErrValidation)
	}

	// Read the current document before writing; its snapshot feeds the diff
	// and the history entry's previous_settings_data.
	var existing models.UserSettings
	err := s.db.Where("user_id = ? AND settings_type = ?", ownerID, settingsType).First(&existing).Error
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var prior map[string]any
	if exists {
		prior = map[string]any(existing.SettingsData)
	}
	changed := ChangedFields(prior, doc)

	var saved models.UserSettings
	if exists {
		if expectedRevision != nil {
			// Conditional update: lose the race, lose the write.
			res := s.db.Model(&models.UserSettings{}).
				Where("id = ? AND revision = ?", existing.ID, *expectedRevision).
				Updates(map[string]any{
					"settings_data": datatypes.JSONMap(doc),
					"revision":      gorm.Expr("revision + 1"),
				})
			if res.Error != nil {
				return nil, fmt.Errorf("%w: %v", ErrPersistence, res.Error)
			}
			if res.RowsAffected == 0 {
				return nil, ErrRevisionConflict
			}
		} else {
			existing.SettingsData = datatypes.JSONMap(doc)
			existing.Revision++
			if err := s.db.Save(&existing).Error; err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
			}
		}
		if err := s.db.Where("id = ?", existing.ID).First(&saved).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	} else {
		saved = models.UserSettings{
			UserID:       ownerID,
			SettingsType: settingsType,
			SettingsData: datatypes.JSONMap(doc),
			Revision:     1,
		}
		if err := s.db.Create(&saved).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}

	result := &UpsertResult{Settings: &saved, ChangedFields: changed, HistorySaved: true}

	// Best-effort history append. A failure here must not fail the request
	// and must not roll back the settings write.
	entry := models.UserSettingsHistory{
		ID:                   uuid.New().String(),
		UserID:               ownerID,
		SettingsType:         settingsType,
		SettingsData:         datatypes.JSONMap(doc),
		PreviousSettingsData: datatypes.JSONMap(prior),
		ChangedFields:        changed,
		CreatedBy:            ownerID,
		CreatedAt:            time.Now().UTC(),
	}
	if err := s.db.Create(&entry).Error; err != nil {
		result.HistorySaved = false
		result.HistoryError = fmt.Errorf("%w: %v", ErrHistoryWrite, err)
		s.log.WithFields(logrus.Fields{
			"user_id":       ownerID,
			"settings_type": settingsType,
			"error":         result.HistoryError.Error(),
		}).Warn("settings saved but history append failed")
	}

	if s.rt != nil {
		s.rt.Broadcast(ownerID, map[string]any{
			"kind":           "settings.updated",
			"settings_type":  settingsType,
			"changed_fields": DisplayFields(changed),
		})
	}

	return result, nil
}

// GetCurrent returns the live document for (ownerID, settingsType). When the
// settings row is missing but history exists, the newest history entry is
// promoted instead: some deployments derive current state from the log, and
// the duality survives store/log divergence.
func (s *SettingsService) GetCurrent(ownerID, settingsType string) (*models.UserSettings, error) {
	if ownerID == "" || settingsType == "" {
		return nil, fmt.Errorf("%w: owner and settings_type are required", ErrValidation)
	}

	var settings models.UserSettings
	err := s.db.Where("user_id = ? AND settings_type = ?", ownerID, settingsType).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	entries, herr := s.GetHistory(ownerID, settingsType, 1)
	if herr == nil && len(entries) > 0 {
		return &models.UserSettings{
			UserID:       ownerID,
			SettingsType: settingsType,
			SettingsData: entries[0].SettingsData,
			UpdatedAt:    entries[0].CreatedAt,
		}, nil
	}
	return nil, ErrNotFound
}

// GetHistory returns history entries most-recent-first. limit <= 0 falls
// back to the default of 50.
func (s *SettingsService) GetHistory(ownerID, settingsType string, limit int) ([]models.UserSettingsHistory, error) {
	if ownerID == "" || settingsType == "" {
		return nil, fmt.Errorf("%w: owner and settings_type are required", ErrValidation)
	}
	if limit <= 0 {
		limit = 50
	}

	var entries []models.UserSettingsHistory
	err := s.db.
		Where("user_id = ? AND settings_type = ?", ownerID, settingsType).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return entries, nil
}

// Delete removes the current document for (ownerID, settingsType). History
// entries are kept; they are only removable one by one via
// DeleteHistoryEntry.
func (s *SettingsService) Delete(ownerID, settingsType string) error {
	if ownerID == "" || settingsType == "" {
		return fmt.Errorf("%w: owner and settings_type are required", ErrValidation)
	}
	res := s.db.Where("user_id = ? AND settings_type = ?", ownerID, settingsType).Delete(&models.UserSettings{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteHistoryEntry erases a single history record. The owner id is part of
// the predicate so one user can never delete another user's audit rows.
func (s *SettingsService) DeleteHistoryEntry(ownerID, recordID string) error {
	if ownerID == "" || recordID == "" {
		return fmt.Errorf("%w: owner and record id are required", ErrValidation)
	}
	res := s.db.Where("id = ? AND user_id = ?", recordID, ownerID).Delete(&models.UserSettingsHistory{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// HistoryForUsers returns the newest history entries across a set of owners,
// for the enterprise audit feed. Numeric-index artifacts are filtered out of
// changed_fields here because this result is display-bound.
func (s *SettingsService) HistoryForUsers(userIDs []string, settingsType string, limit int) ([]models.UserSettingsHistory, error) {
	if len(userIDs) == 0 {
		return []models.UserSettingsHistory{}, nil
	}
	if limit <= 0 {
		limit = 100
	}

	var entries []models.UserSettingsHistory
	err := s.db.
		Where("user_id IN ? AND settings_type = ?", userIDs, settingsType).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	for i := range entries {
		entries[i].ChangedFields = DisplayFields(entries[i].ChangedFields)
	}
	return entries, nil
}
