package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/coursehub/pkg/errors"
)

type testStruct struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,min=4,max=8"`
	Limit int    `validate:"gte=0,lte=100"`
}

type messageStruct struct {
	Text       string `validate:"required_without=Attachment"`
	Attachment string
}

func TestValidate_Success(t *testing.T) {
	err := Validate(testStruct{Email: "student@example.com", Code: "123456", Limit: 10})
	assert.NoError(t, err)
}

func TestValidate_MissingRequired(t *testing.T) {
	err := Validate(testStruct{Code: "123456"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["Email"])
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestValidate_InvalidEmail(t *testing.T) {
	err := Validate(testStruct{Email: "not-an-email", Code: "123456"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["Email"])
}

func TestValidate_OutOfRange(t *testing.T) {
	err := Validate(testStruct{Email: "a@b.co", Code: "123456", Limit: 500})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Limit"], "100")
}

func TestValidate_RequiredWithout(t *testing.T) {
	assert.NoError(t, Validate(messageStruct{Attachment: "file.pdf"}))
	assert.NoError(t, Validate(messageStruct{Text: "hi"}))

	err := Validate(messageStruct{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Text'")
	assert.Contains(t, err.Error(), "Attachment")
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(testStruct{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Email'")
	assert.Contains(t, err.Error(), "field 'Code'")
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("course id", "42", "required"))

	err := Var("course id", "", "required")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "course id is required")
}
