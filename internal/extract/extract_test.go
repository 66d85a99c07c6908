package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractScansOnlyUserTurns(t *testing.T) {
	turns := []Turn{
		{Role: RoleAssistant, Text: "My name is Clinic-Mate, how can I help?"},
		{Role: RoleUser, Text: "Hi, my name is John Smith"},
	}

	got, ok := Extract(turns, FieldName)
	assert.True(t, ok)
	assert.Equal(t, "John Smith", got)
}

func TestExtractFirstMatchWins(t *testing.T) {
	turns := []Turn{
		{Role: RoleUser, Text: "I was born on 01/15/1980"},
		{Role: RoleUser, Text: "my birthday is 02/20/1990"},
	}

	got, ok := Extract(turns, FieldDOB)
	assert.True(t, ok)
	assert.Equal(t, "01/15/1980", got)
}

func TestExtractFields(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field Field
		want  string
	}{
		{"dob colon form", "DOB: 03/04/1975", FieldDOB, "03/04/1975"},
		{"dob month name", "I was born on January 15, 1980", FieldDOB, "January 15, 1980"},
		{"phone dotted", "you can call me at 555.123.4567", FieldPhone, "555.123.4567"},
		{"phone parenthesized", "My phone number is (555) 123-4567", FieldPhone, "(555) 123-4567"},
		{"email", "my email is John.Smith@Example.COM", FieldEmail, "John.Smith@Example.COM"},
		{"insurance provider", "I'm covered by Blue Cross", FieldInsurance, "Blue Cross"},
		{"insurance id", "my policy number: AB-12345", FieldInsuranceID, "AB-12345"},
		{"complaint", "I'm here because of chest pain and shortness of breath.", FieldComplaint, "chest pain and shortness of breath"},
		{"address", "I live at 12 Elm St, Springfield", FieldAddress, "12 Elm St, Springfield"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract([]Turn{{Role: RoleUser, Text: tt.text}}, tt.field)
			assert.True(t, ok, "expected a match")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractNoMatch(t *testing.T) {
	turns := []Turn{{Role: RoleUser, Text: "I'd like to book an appointment"}}

	_, ok := Extract(turns, FieldDOB)
	assert.False(t, ok)

	_, ok = Extract(turns, Field("favorite_color"))
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", Normalize("555.123.4567", FieldPhone))
	assert.Equal(t, "555-1234", Normalize("555-1234", FieldPhone), "non-10-digit input passes through")
	assert.Equal(t, "john.smith@example.com", Normalize("John.Smith@Example.COM", FieldEmail))
	assert.Equal(t, "John Smith", Normalize("john SMITH", FieldName))
	assert.Equal(t, "Blue Cross", Normalize("blue cross", FieldInsurance))
	assert.Equal(t, "12 Elm St", Normalize("12 Elm St", FieldAddress), "addresses pass through untouched")
	assert.Equal(t, "", Normalize("", FieldPhone))
}
