package httpx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("entry: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("team link: %w", ErrDuplicate), http.StatusConflict},
		{fmt.Errorf("locked: %w", ErrConflict), http.StatusConflict},
		{fmt.Errorf("amount: %w", ErrValidation), http.StatusBadRequest},
		{fmt.Errorf("denied: %w", ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("session: %w", ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("pg: connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	}

	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("pg: password=hunter2"))
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

type payload struct {
	Title string `json:"title" validate:"required,max=5"`
}

func decode(body string) (payload, error) {
	var p payload
	err := DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &p)
	return p, err
}

func TestDecodeJSON(t *testing.T) {
	p, err := decode(`{"title":"North"}`)
	require.NoError(t, err)
	assert.Equal(t, "North", p.Title)

	for _, body := range []string{``, `{"title":`, `{"title":"a","extra":1}`, `{"title":"a"}{"title":"b"}`} {
		_, err := decode(body)
		assert.ErrorIs(t, err, ErrValidation, body)
	}

	_, err = decode(`{"title":"` + strings.Repeat("x", MaxBodyBytes) + `"}`)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidatorReportsFields(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(payload{Title: "ok"}))

	err := v.Struct(payload{Title: "too long"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "Title: max=5")

	err = v.Struct(payload{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "Title: required")
}
