package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func doAuthed(t *testing.T, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	m := NewTriggerAuthMiddleware(testSecret)
	reached := false
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/queue/process", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, reached
}

func TestTriggerAuth(t *testing.T) {
	t.Run("valid secret passes", func(t *testing.T) {
		rec, reached := doAuthed(t, "Bearer "+testSecret)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		rec, reached := doAuthed(t, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("wrong scheme rejected", func(t *testing.T) {
		rec, reached := doAuthed(t, "Basic "+testSecret)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		rec, reached := doAuthed(t, "Bearer wrong-secret")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("secret prefix rejected", func(t *testing.T) {
		rec, reached := doAuthed(t, "Bearer "+testSecret[:16])
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})
}
