package validate

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=employee manager"`
	Day   string `json:"day" validate:"omitempty,date"`
}

func TestStructMessages(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{name: "missing name", in: sample{Email: "a@b.co"}, want: "Field 'name' is required"},
		{name: "short name", in: sample{Name: "A", Email: "a@b.co"}, want: "Field 'name' must be at least 2 characters"},
		{name: "bad email", in: sample{Name: "Ann", Email: "nope"}, want: "Field 'email' must be a valid email"},
		{name: "bad role", in: sample{Name: "Ann", Email: "a@b.co", Role: "admin"}, want: "Field 'role' must be one of [employee manager]"},
		{name: "bad date", in: sample{Name: "Ann", Email: "a@b.co", Day: "2024-13-01"}, want: "Field 'day' must be a date in YYYY-MM-DD format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, FormatError(err))
		})
	}

	assert.NoError(t, Struct(sample{Name: "Ann", Email: "a@b.co", Role: "manager", Day: "2024-02-29"}))
}

func TestFormatErrorDecoding(t *testing.T) {
	assert.Equal(t, "Request body is empty", FormatError(io.EOF))

	var s sample
	err := json.Unmarshal([]byte(`{"name": 5}`), &s)
	require.Error(t, err)
	assert.Equal(t, "Field 'name' should be of type string", FormatError(err))
}

func TestIsDate(t *testing.T) {
	assert.True(t, IsDate("2024-01-31"))
	assert.False(t, IsDate("2024-1-31"))
	assert.False(t, IsDate("2024-02-30"))
	assert.False(t, IsDate(""))
}
