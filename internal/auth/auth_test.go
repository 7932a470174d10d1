package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	s := NewService(nil, "test-secret")

	token, err := s.GenerateToken(&User{ID: 42, Email: "a@example.com"})
	require.NoError(t, err)

	userID, err := ParseToken(token, "test-secret")
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	s := NewService(nil, "test-secret")

	token, err := s.GenerateToken(&User{ID: 42})
	require.NoError(t, err)

	_, err = ParseToken(token, "other-secret")
	require.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token", "test-secret")
	require.Error(t, err)
}

func TestJWTMiddleware(t *testing.T) {
	s := NewService(nil, "test-secret")
	token, err := s.GenerateToken(&User{ID: 7})
	require.NoError(t, err)

	e := echo.New()
	next := func(c echo.Context) error {
		require.Equal(t, int64(7), UserID(c))
		return c.NoContent(http.StatusOK)
	}
	handler := JWTMiddleware("test-secret")(next)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestWorkerKeyMiddleware(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	handler := WorkerKeyMiddleware("worker-secret")(next)

	t.Run("correct key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Worker-Key", "worker-secret")
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Worker-Key", "guess")
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPasswordValidation(t *testing.T) {
	InitSecurity()

	cases := []struct {
		password string
		ok       bool
	}{
		{"Passw0rd", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
	}
	for _, tc := range cases {
		err := Validate.Var(tc.password, "password")
		if tc.ok {
			require.NoError(t, err, tc.password)
		} else {
			require.Error(t, err, tc.password)
		}
	}
}
