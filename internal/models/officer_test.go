package models_test

import (
	"forensiai/backend/internal/models"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// TestOfficerBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestOfficerBeforeCreate_GeneratesUUID(t *testing.T) {
	// Arrange
	officer := &models.OfficerRow{BadgeID: "B-1021", Name: "Det. Reyes", Role: "investigator"}
	assert.Empty(t, officer.ID, "Officer ID should be empty before BeforeCreate")

	// Act
	err := officer.BeforeCreate(nil) // nil *gorm.DB is acceptable for this hook

	// Assert
	assert.NoError(t, err)
	parsed, parseErr := uuid.Parse(officer.ID)
	assert.NoError(t, parseErr, "Officer ID must be a valid UUID string")
	assert.NotEqual(t, uuid.Nil, parsed)
}

// TestOfficerBeforeCreate_PreservesExistingID verifies that the hook doesn't overwrite an existing ID.
func TestOfficerBeforeCreate_PreservesExistingID(t *testing.T) {
	existingID := uuid.New().String()
	officer := &models.OfficerRow{ID: existingID, Name: "Sgt. Okafor"}

	err := officer.BeforeCreate(nil)

	assert.NoError(t, err)
	assert.Equal(t, existingID, officer.ID)
}

// TestRowStructTags catches accidental removal of keys the store depends on.
func TestRowStructTags(t *testing.T) {
	mediaType := reflect.TypeOf(models.MediaRow{})

	idField, found := mediaType.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")

	caseField, found := mediaType.FieldByName("CaseID")
	assert.True(t, found)
	assert.Contains(t, caseField.Tag.Get("gorm"), "primaryKey", "evidence ids are unique only within a case")

	fkField, found := mediaType.FieldByName("Case")
	assert.True(t, found)
	assert.Contains(t, fkField.Tag.Get("gorm"), "OnDelete:CASCADE", "evidence must cascade with its case")
}

func TestAllRows_TableNames(t *testing.T) {
	expected := []string{
		models.TableCases, models.TableOfficers, models.TableCalls, models.TableMessages,
		models.TableLocations, models.TableMedia, models.TableTeamMessages, models.TableActivity,
		models.TableInsights, models.TableAIChat,
	}

	var names []string
	for _, row := range models.AllRows() {
		tabler, ok := row.(interface{ TableName() string })
		assert.True(t, ok, "%T must declare TableName", row)
		names = append(names, tabler.TableName())
	}

	assert.Equal(t, expected, names)
}
