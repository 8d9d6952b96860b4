package validation

import (
	"strings"
	"testing"

	"versize/internal/models"

	"github.com/stretchr/testify/assert"
)

func validFields() map[string]string {
	return map[string]string{
		models.FieldOOCName:    "Al",
		models.FieldContact:    "@al",
		models.FieldICIdentity: "Tony Marino 1234",
		models.FieldHistory:    "Two years with the Lucchese",
		models.FieldMotivation: "Looking for a long-term family",
	}
}

func TestValidateApplication(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(map[string]string)
		want   []string
	}{
		{"Valid", func(map[string]string) {}, nil},
		{"Name Too Short", func(f map[string]string) { f[models.FieldOOCName] = "A" }, []string{"name must be at least 2 characters"}},
		{"Name Padded", func(f map[string]string) { f[models.FieldOOCName] = "  A  " }, []string{"name must be at least 2 characters"}},
		{"Unicode Name", func(f map[string]string) { f[models.FieldOOCName] = "Жа" }, nil},
		{"Contact Without Marker", func(f map[string]string) { f[models.FieldContact] = "al" }, []string{"discord must contain @ or #"}},
		{"Contact Legacy Tag", func(f map[string]string) { f[models.FieldContact] = "al#0001" }, nil},
		{"IC Too Short", func(f map[string]string) { f[models.FieldICIdentity] = "Al" }, []string{"IC name must be at least 3 characters"}},
		{"History Too Short", func(f map[string]string) { f[models.FieldHistory] = "short" }, []string{"history must be at least 10 characters"}},
		{"Motivation Missing", func(f map[string]string) { delete(f, models.FieldMotivation) }, []string{"motivation is required"}},
		{"Too Long", func(f map[string]string) { f[models.FieldHistory] = strings.Repeat("x", MaxFieldLength+1) }, []string{"history must be at most 1024 characters"}},
		{
			"Several Problems In Form Order",
			func(f map[string]string) {
				f[models.FieldMotivation] = "meh"
				f[models.FieldOOCName] = ""
				f[models.FieldContact] = "nope"
			},
			[]string{"name is required", "discord must contain @ or #", "motivation must be at least 10 characters"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.mutate(f)
			assert.Equal(t, tt.want, ValidateApplication(f))
		})
	}
}

func TestNormalizeFields(t *testing.T) {
	t.Parallel()
	out := NormalizeFields(map[string]string{
		models.FieldOOCName: "  Al ",
		"unexpected":        "dropped",
	})
	assert.Equal(t, "Al", out[models.FieldOOCName])
	assert.NotContains(t, out, "unexpected")
	assert.Contains(t, out, models.FieldMotivation)
}

func TestValidateApplication_OptionalFields(t *testing.T) {
	t.Parallel()
	fields := validFields()
	delete(fields, models.FieldHistory)

	assert.Equal(t, []string{"history is required"}, ValidateApplication(fields, OptionalFields(models.ApplicationSourceForm)...))
	assert.Empty(t, ValidateApplication(fields, OptionalFields(models.ApplicationSourceWebhook)...))

	fields[models.FieldHistory] = "short"
	assert.Equal(t, []string{"history must be at least 10 characters"},
		ValidateApplication(fields, OptionalFields(models.ApplicationSourceWebhook)...))
}
