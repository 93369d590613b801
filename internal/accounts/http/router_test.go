package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	httpapi "github.com/clipfeedhq/clipfeed/internal/accounts/http"
	"github.com/clipfeedhq/clipfeed/internal/accounts/media"
	"github.com/clipfeedhq/clipfeed/internal/accounts/service"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store/drivers/memory"
	"github.com/clipfeedhq/clipfeed/pkg/jwtx"
)

type stubUploader struct{}

func (stubUploader) Upload(_ context.Context, key string, _ media.File) (string, error) {
	return "https://media.test/clipfeed-media/" + key, nil
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st := memory.NewStore()
	keys := jwtx.Keys{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
	}

	router := httpapi.NewRouter("test", st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router.AuthService = &service.AuthService{
		Store:    st,
		Issuer:   &jwtx.Issuer{Keys: keys},
		Verifier: &jwtx.Verifier{Keys: keys},
	}
	router.UserService = &service.UserService{
		Store:    st,
		Media:    stubUploader{},
		HashCost: 4,
	}
	router.AccessTTL = jwtx.DefaultAccessTTL
	router.RefreshTTL = jwtx.DefaultRefreshTTL
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.Equal(t, resp.StatusCode, env.StatusCode)
	return env
}

func registerForm(t *testing.T, fullName, username, email, password string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("fullName", fullName))
	require.NoError(t, mw.WriteField("username", username))
	require.NoError(t, mw.WriteField("email", email))
	require.NoError(t, mw.WriteField("password", password))

	fw, err := mw.CreateFormFile("avatar", "face.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)

	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func registerUser(t *testing.T, srv *httptest.Server, username, email string) {
	t.Helper()

	body, contentType := registerForm(t, "Casey Jones", username, email, "hunter22")
	resp, err := http.Post(srv.URL+"/v1/users/register", contentType, body)
	require.NoError(t, err)

	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusCreated, env.StatusCode)
	require.True(t, env.Success)
}

func login(t *testing.T, srv *httptest.Server, username, password string) *http.Response {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(srv.URL+"/v1/users/login", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterAndLoginFlow(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "casey", "casey@example.com")

	resp := login(t, srv, "casey", "hunter22")
	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)
	require.True(t, env.Success)

	var data struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Avatar   string `json:"avatar"`
		} `json:"user"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "casey", data.User.Username)
	require.NotEmpty(t, data.User.Avatar)
	require.NotEmpty(t, data.AccessToken)
	require.NotEmpty(t, data.RefreshToken)

	// Password material never crosses the boundary.
	require.NotContains(t, string(env.Data), "password")
	require.NotContains(t, string(env.Data), "refresh_token")

	access := cookieByName(resp, "accessToken")
	require.NotNil(t, access)
	require.True(t, access.HttpOnly)
	refresh := cookieByName(resp, "refreshToken")
	require.NotNil(t, refresh)
	require.True(t, refresh.HttpOnly)
}

func TestLoginFailureEnvelope(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "casey", "casey@example.com")

	resp := login(t, srv, "casey", "wrong-password")
	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusUnauthorized, env.StatusCode)
	require.False(t, env.Success)
	require.Equal(t, "Invalid user credentials.", env.Message)

	resp = login(t, srv, "nobody", "hunter22")
	env = decodeEnvelope(t, resp)
	require.Equal(t, http.StatusNotFound, env.StatusCode)
}

func TestMeRequiresAccessToken(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "casey", "casey@example.com")

	resp, err := http.Get(srv.URL + "/v1/users/me")
	require.NoError(t, err)
	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusUnauthorized, env.StatusCode)

	loginResp := login(t, srv, "casey", "hunter22")
	loginEnv := decodeEnvelope(t, loginResp)
	var tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(loginEnv.Data, &tokens))

	// Bearer header path.
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/users/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	env = decodeEnvelope(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)

	// A refresh token must not pass the gate.
	req.Header.Set("Authorization", "Bearer "+tokens.RefreshToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	env = decodeEnvelope(t, resp)
	require.Equal(t, http.StatusUnauthorized, env.StatusCode)
}

func TestExpiredAccessTokenOnGatedRoute(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "casey", "casey@example.com")

	loginResp := login(t, srv, "casey", "hunter22")
	loginEnv := decodeEnvelope(t, loginResp)
	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(loginEnv.Data, &data))

	// An access token for a real user whose lifetime has already elapsed,
	// signed with the live access secret so only the expiry is at fault.
	now := time.Now().UTC()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   data.User.ID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(now.Add(-30 * time.Minute)),
	})
	signed, err := expired.SignedString([]byte("access-secret-for-tests"))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/users/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+signed)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusUnauthorized, env.StatusCode)
	require.False(t, env.Success)
	require.Empty(t, env.Data)
}

func TestRefreshRotationOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "casey", "casey@example.com")

	loginResp := login(t, srv, "casey", "hunter22")
	loginEnv := decodeEnvelope(t, loginResp)
	var tokens struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(loginEnv.Data, &tokens))

	refreshOnce := func(token string) *http.Response {
		payload, _ := json.Marshal(map[string]string{"refreshToken": token})
		resp, err := http.Post(srv.URL+"/v1/users/refresh", "application/json", bytes.NewReader(payload))
		require.NoError(t, err)
		return resp
	}

	resp := refreshOnce(tokens.RefreshToken)
	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)

	var rotated struct {
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &rotated))
	require.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// Replaying the consumed token is rejected.
	resp = refreshOnce(tokens.RefreshToken)
	env = decodeEnvelope(t, resp)
	require.Equal(t, http.StatusUnauthorized, env.StatusCode)
	require.Equal(t, "Refresh token is expired or already used.", env.Message)
}

func TestChangePasswordOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "casey", "casey@example.com")

	loginResp := login(t, srv, "casey", "hunter22")
	loginEnv := decodeEnvelope(t, loginResp)
	var tokens struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(loginEnv.Data, &tokens))

	payload := strings.NewReader(`{"oldPassword":"hunter22","newPassword":"next22"}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/users/change-password", payload)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)

	// Old password no longer works, new one does.
	resp = login(t, srv, "casey", "hunter22")
	env = decodeEnvelope(t, resp)
	require.Equal(t, http.StatusUnauthorized, env.StatusCode)

	resp = login(t, srv, "casey", "next22")
	env = decodeEnvelope(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)
}

func TestLogoutClearsSession(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "casey", "casey@example.com")

	loginResp := login(t, srv, "casey", "hunter22")
	loginEnv := decodeEnvelope(t, loginResp)
	var tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(loginEnv.Data, &tokens))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/users/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)

	access := cookieByName(resp, "accessToken")
	require.NotNil(t, access)
	require.Empty(t, access.Value)

	// The surrendered refresh token can no longer be redeemed.
	payload, _ := json.Marshal(map[string]string{"refreshToken": tokens.RefreshToken})
	resp, err = http.Post(srv.URL+"/v1/users/refresh", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	env = decodeEnvelope(t, resp)
	require.Equal(t, http.StatusUnauthorized, env.StatusCode)
}

func TestUpdateAvatarOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "casey", "casey@example.com")

	loginResp := login(t, srv, "casey", "hunter22")
	loginEnv := decodeEnvelope(t, loginResp)
	var tokens struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(loginEnv.Data, &tokens))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", "new-face.webp")
	require.NoError(t, err)
	_, err = fw.Write([]byte("webp-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/v1/users/avatar", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)

	var data struct {
		Avatar string `json:"avatar"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.True(t, strings.HasSuffix(data.Avatar, ".webp"))
}

func TestDuplicateRegistrationConflict(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "casey", "casey@example.com")

	body, contentType := registerForm(t, "Casey Jones", "casey", "other@example.com", "hunter22")
	resp, err := http.Post(srv.URL+"/v1/users/register", contentType, body)
	require.NoError(t, err)
	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusConflict, env.StatusCode)
	require.False(t, env.Success)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/livez")
	require.NoError(t, err)
	env := decodeEnvelope(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)

	resp, err = http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	env = decodeEnvelope(t, resp)
	require.Equal(t, http.StatusOK, env.StatusCode)
}
