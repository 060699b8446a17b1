package validation

import (
	"strings"
	"testing"
	"time"

	"guildkeeper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		email string
		ok    bool
	}{
		{"a@test.com", true},
		{"first.last+tag@guild.example.org", true},
		{"", false},
		{"no-at-sign", false},
		{"user@nodot", false},
		{"user@@double.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a@test.com", NormalizeEmail("  A@Test.COM "))
}

func TestValidateLength(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateLength("name", "Ana", 2, 50))
	assert.NoError(t, ValidateLength("name", "Đo", 2, 50))
	assert.Error(t, ValidateLength("name", "A", 2, 50))
	assert.Error(t, ValidateLength("name", strings.Repeat("x", 51), 2, 50))
	assert.Error(t, ValidateMaxLength("description", strings.Repeat("x", 201), 200))
	assert.NoError(t, ValidateMaxLength("description", "", 200))
}

func TestValidateHexColor(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateHexColor("#3B82F6"))
	assert.NoError(t, ValidateHexColor("#abcdef"))
	assert.Error(t, ValidateHexColor("3B82F6"))
	assert.Error(t, ValidateHexColor("#3B82F"))
	assert.Error(t, ValidateHexColor("#GGGGGG"))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("1990-01-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("1995-05-15T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 1995, d.Year())

	_, err = ParseDate("15.05.1995")
	assert.Error(t, err)
}

func TestErrors(t *testing.T) {
	t.Parallel()

	var errs Errors
	assert.NoError(t, errs.Err())

	errs.Add(nil)
	errs.Add(ValidateEmail("bad"))
	errs.Addf("%s is required", "name")

	err := errs.Err()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Len(t, appErr.Details, 2)
	assert.Contains(t, appErr.Message, "name is required")
}
