package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	require.Empty(t, BearerToken(r))

	// The scheme must be followed by a space before the token.
	r.Header.Set("Authorization", "Bearerabc.def.ghi")
	require.Empty(t, BearerToken(r))

	r.Header.Set("Authorization", "Bearer abc.def.ghi")
	require.Equal(t, "abc.def.ghi", BearerToken(r))
}

func TestAuthCookieRoundTrip(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	SetAuthCookie(w, "accessToken", "tok", 15*time.Minute)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	require.Equal(t, "accessToken", c.Name)
	require.Equal(t, "tok", c.Value)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)
	require.Equal(t, int((15 * time.Minute).Seconds()), c.MaxAge)

	w = httptest.NewRecorder()
	ClearAuthCookie(w, "accessToken")
	cookies = w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)
}

func TestWriteFailureEnvelope(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	WriteFailure(w, http.StatusConflict, "User with email or username already exists.")

	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.False(t, resp.Success)
	require.Equal(t, "User with email or username already exists.", resp.Message)
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	t.Parallel()

	cfg := RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}
	handler := Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		RateLimit(cfg, func(r *http.Request) string { return "fixed-key" }),
	)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestIPKeyExtractorPrefersForwardedFor(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	require.Equal(t, "10.0.0.1", IPKeyExtractor(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	require.Equal(t, "10.0.0.2", IPKeyExtractor(r))

	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	require.Equal(t, "10.0.0.3", IPKeyExtractor(r))
}
