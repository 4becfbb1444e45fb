package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mack/direct-chat/internal/api/handlers"
	"github.com/mack/direct-chat/internal/domain"
	"github.com/mack/direct-chat/internal/testutil"
)

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestAuthAPI_Register(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name       string
		body       map[string]string
		setup      func()
		wantStatus int
	}{
		{
			name:       "successful registration",
			body:       map[string]string{"email": "new@test.local", "password": "password123"},
			wantStatus: http.StatusOK,
		},
		{
			name: "duplicate email",
			body: map[string]string{"email": "taken@test.local", "password": "password123"},
			setup: func() {
				testutil.NewUserBuilder().WithEmail("taken@test.local").Build(t, ts.DB.DB)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid email",
			body:       map[string]string{"email": "not-an-email", "password": "password123"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "weak password",
			body:       map[string]string{"email": "weak@test.local", "password": "short"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing fields",
			body:       map[string]string{"email": "new2@test.local"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}

			resp := postJSON(t, ts.APIURL("/auth/register"), tt.body)
			testutil.AssertStatusCode(t, resp, tt.wantStatus)

			if tt.wantStatus != http.StatusOK {
				return
			}

			var authResp handlers.AuthResponse
			testutil.AssertJSONResponse(t, resp, &authResp)
			assert.Equal(t, tt.body["email"], authResp.User.Email)
			assert.Equal(t, "new", authResp.User.DisplayName)
			assert.False(t, authResp.User.EmailVerified)
			assert.NotEmpty(t, authResp.AccessToken)
			assert.NotEmpty(t, authResp.RefreshToken)
		})
	}
}

func TestAuthAPI_LoginUnverified(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, rawPassword := testutil.NewUserBuilder().
		WithEmail("pending@test.local").
		Unverified().
		Build(t, ts.DB.DB)

	resp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"email":    user.Email,
		"password": rawPassword,
	})
	testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "verify your email")
}

func TestAuthAPI_VerifyEmailFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"email":    "flow@test.local",
		"password": "password123",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var authResp handlers.AuthResponse
	testutil.AssertJSONResponse(t, resp, &authResp)

	var vt domain.VerificationToken
	require.NoError(t, ts.DB.DB.First(&vt, "purpose = ?", domain.TokenPurposeVerifyEmail).Error)

	verifyResp, err := http.Get(ts.APIURL("/auth/verify-email?token=" + vt.Token))
	require.NoError(t, err)
	defer verifyResp.Body.Close()
	testutil.AssertStatusCode(t, verifyResp, http.StatusOK)

	// Login now succeeds and reports the account verified.
	loginResp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"email":    "flow@test.local",
		"password": "password123",
	})
	testutil.AssertStatusCode(t, loginResp, http.StatusOK)

	var loggedIn handlers.AuthResponse
	testutil.AssertJSONResponse(t, loginResp, &loggedIn)
	assert.True(t, loggedIn.User.EmailVerified)
	assert.True(t, loggedIn.User.Online)
}

func TestAuthAPI_MeAndLogout(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var me handlers.UserResponse
	testutil.AssertJSONResponse(t, resp, &me)
	assert.Equal(t, user.ID.String(), me.ID)
	assert.Equal(t, user.Email, me.Email)

	// Logout clears the session and marks the user offline.
	req = testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/auth/logout"), nil, token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	updated, err := ts.Repos.User.GetByID(req.Context(), user.ID)
	require.NoError(t, err)
	assert.False(t, updated.Online)
}

func TestAuthAPI_MeRequiresToken(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp, err := http.Get(ts.APIURL("/auth/me"))
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
}

func TestAuthAPI_PasswordReset(t *testing.T) {
	ts := testutil.NewTestServer(t)

	user, _ := testutil.NewUserBuilder().
		WithEmail("forgot@test.local").
		WithPassword("oldpassword").
		Build(t, ts.DB.DB)

	resp := postJSON(t, ts.APIURL("/auth/reset-password"), map[string]string{"email": user.Email})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var vt domain.VerificationToken
	require.NoError(t, ts.DB.DB.First(&vt, "user_id = ? AND purpose = ?",
		user.ID, domain.TokenPurposeResetPassword).Error)

	confirmResp := postJSON(t, ts.APIURL("/auth/reset-password/confirm"), map[string]string{
		"token":       vt.Token,
		"newPassword": "brandnewpassword",
	})
	testutil.AssertStatusCode(t, confirmResp, http.StatusOK)

	// The old password no longer works, the new one does.
	oldResp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"email":    user.Email,
		"password": "oldpassword",
	})
	testutil.AssertStatusCode(t, oldResp, http.StatusUnauthorized)

	newResp := postJSON(t, ts.APIURL("/auth/login"), map[string]string{
		"email":    user.Email,
		"password": "brandnewpassword",
	})
	testutil.AssertStatusCode(t, newResp, http.StatusOK)
}

func TestAuthAPI_ResetUnknownEmail(t *testing.T) {
	ts := testutil.NewTestServer(t)

	resp := postJSON(t, ts.APIURL("/auth/reset-password"), map[string]string{"email": "nobody@test.local"})
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}
