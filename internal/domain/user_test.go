package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_FullName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"both names", User{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com"}, "Ann Lee"},
		{"first only", User{FirstName: "Ann", Email: "ann@example.com"}, "Ann"},
		{"last only", User{LastName: "Lee", Email: "ann@example.com"}, "Lee"},
		{"email fallback", User{Email: "ann@example.com"}, "ann@example.com"},
		{"nothing", User{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.FullName())
		})
	}
}

func TestProfileInput_OmitsNilFields(t *testing.T) {
	city := "Riga"
	data, err := json.Marshal(ProfileInput{City: &city})
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Riga"}`, string(data))
}

func TestCoursePatch_ExplicitFalse(t *testing.T) {
	published := false
	data, err := json.Marshal(CoursePatch{IsPublished: &published})
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_published":false}`, string(data))
}
