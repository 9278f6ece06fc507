// AngelaMos | 2026
// errors_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Username        string `json:"username"         validate:"required,username"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"eqfield=Password"`
	Currency        string `json:"currency"         validate:"omitempty,iso4217"`
}

func TestValidationFieldsUsesJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Struct(signupForm{
		Username:        "bad name!",
		Email:           "nope",
		Password:        "short",
		PasswordConfirm: "other",
		Currency:        "XYZ1",
	})
	require.Error(t, err)

	fields := ValidationFields(err)
	assert.Equal(t, map[string]string{
		"username":         "may contain only letters, digits and @.+-_",
		"email":            "must be a valid email address",
		"password":         "must be at least 8",
		"password_confirm": "must match password",
		"currency":         "must be an ISO 4217 currency code",
	}, fields)
}

func TestValidationFieldsAcceptsValidInput(t *testing.T) {
	err := NewValidator().Struct(signupForm{
		Username:        "ada.l@home+1",
		Email:           "ada@example.com",
		Password:        "correct horse",
		PasswordConfirm: "correct horse",
		Currency:        "EUR",
	})
	assert.NoError(t, err)
}

func TestValidationFieldsNonValidatorError(t *testing.T) {
	fields := ValidationFields(errors.New("unexpected EOF"))
	assert.Equal(t, map[string]string{"body": "unexpected EOF"}, fields)
}

func TestPgCodeHelpers(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})
	syntax := &pgconn.PgError{Code: "22P02"}

	assert.True(t, IsDuplicateKeyError(dup))
	assert.False(t, IsDuplicateKeyError(fk))
	assert.True(t, IsForeignKeyError(fk))
	assert.True(t, IsInvalidSyntaxError(syntax))
	assert.False(t, IsInvalidSyntaxError(errors.New("plain")))
}

func TestAppErrorUnwrapsToSentinel(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFoundError("memory"))

	assert.ErrorIs(t, err, ErrNotFound)
	appErr, ok := AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.Equal(t, "memory not found", appErr.Message)

	assert.ErrorIs(t, IntegrityError(), ErrDuplicateKey)
	assert.ErrorIs(t, ProtectedError("plan in use"), ErrProtected)
}

func TestJSONErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, FieldError("format", "must be csv or json"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "must be csv or json", body.Error.Fields["format"])
}

func TestJSONErrorHidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestPaginatedTotalPages(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2}, 2, 10, 21)

	var body Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotNil(t, body.Meta)
	assert.Equal(t, 3, body.Meta.TotalPages)
}
