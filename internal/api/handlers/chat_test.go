package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mack/direct-chat/internal/api/handlers"
	"github.com/mack/direct-chat/internal/domain"
	"github.com/mack/direct-chat/internal/testutil"
)

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestChatAPI_SendAndFetch(t *testing.T) {
	ts := testutil.NewTestServer(t)

	alice, aliceToken := testutil.NewUserBuilder().WithEmail("alice@test.local").BuildAndAuthenticate(t, ts)
	bob, bobToken := testutil.NewUserBuilder().WithEmail("bob@test.local").BuildAndAuthenticate(t, ts)

	req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/messages"),
		handlers.SendMessageRequest{ReceiverID: bob.ID.String(), Text: "hello bob"}, aliceToken)
	resp := doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var sent domain.Message
	testutil.AssertJSONResponse(t, resp, &sent)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, alice.ID, sent.SenderID)
	assert.Equal(t, bob.ID, sent.ReceiverID)

	// Both participants see the same conversation.
	for _, tc := range []struct {
		name   string
		token  string
		peerID string
	}{
		{"sender view", aliceToken, bob.ID.String()},
		{"receiver view", bobToken, alice.ID.String()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodGet,
				ts.APIURL("/conversations/"+tc.peerID), nil, tc.token)
			resp := doRequest(t, req)
			testutil.AssertStatusCode(t, resp, http.StatusOK)

			var conv handlers.ConversationResponse
			testutil.AssertJSONResponse(t, resp, &conv)
			require.Len(t, conv.Messages, 1)
			assert.Equal(t, sent.ID, conv.Messages[0].ID)
			assert.Equal(t, alice.Email, conv.Messages[0].SenderEmail)
			testutil.AssertConversationOrdered(t, conv.Messages)
		})
	}
}

func TestChatAPI_SendValidation(t *testing.T) {
	ts := testutil.NewTestServer(t)

	alice, aliceToken := testutil.NewUserBuilder().WithEmail("alice@test.local").BuildAndAuthenticate(t, ts)
	bob, _ := testutil.NewUserBuilder().WithEmail("bob@test.local").Build(t, ts.DB.DB)

	tests := []struct {
		name       string
		body       handlers.SendMessageRequest
		wantStatus int
	}{
		{
			name:       "whitespace-only text",
			body:       handlers.SendMessageRequest{ReceiverID: bob.ID.String(), Text: "   "},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "self message",
			body:       handlers.SendMessageRequest{ReceiverID: alice.ID.String(), Text: "hi"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed receiver id",
			body:       handlers.SendMessageRequest{ReceiverID: "not-a-uuid", Text: "hi"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown receiver",
			body:       handlers.SendMessageRequest{ReceiverID: "00000000-0000-0000-0000-000000000001", Text: "hi"},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.APIURL("/messages"), tt.body, aliceToken)
			resp := doRequest(t, req)
			testutil.AssertStatusCode(t, resp, tt.wantStatus)
		})
	}
}

func TestChatAPI_Delete(t *testing.T) {
	ts := testutil.NewTestServer(t)

	alice, aliceToken := testutil.NewUserBuilder().WithEmail("alice@test.local").BuildAndAuthenticate(t, ts)
	bob, bobToken := testutil.NewUserBuilder().WithEmail("bob@test.local").BuildAndAuthenticate(t, ts)

	message := testutil.NewMessageBuilder().From(alice).To(bob).WithText("oops").Build(t, ts.DB.DB)

	t.Run("receiver cannot delete", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodDelete,
			ts.APIURL("/messages/"+message.ID), nil, bobToken)
		resp := doRequest(t, req)
		testutil.AssertStatusCode(t, resp, http.StatusForbidden)
	})

	t.Run("sender deletes", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodDelete,
			ts.APIURL("/messages/"+message.ID), nil, aliceToken)
		resp := doRequest(t, req)
		testutil.AssertStatusCode(t, resp, http.StatusOK)

		// Gone from the receiver's view as well.
		req = testutil.CreateAuthenticatedRequest(t, http.MethodGet,
			ts.APIURL("/conversations/"+alice.ID.String()), nil, bobToken)
		resp = doRequest(t, req)

		var conv handlers.ConversationResponse
		testutil.AssertJSONResponse(t, resp, &conv)
		testutil.AssertNotContainsText(t, conv.Messages, "oops")
	})

	t.Run("unknown message", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodDelete,
			ts.APIURL("/messages/nope"), nil, aliceToken)
		resp := doRequest(t, req)
		testutil.AssertStatusCode(t, resp, http.StatusNotFound)
	})
}

func TestChatAPI_VerifiedEmailGate(t *testing.T) {
	ts := testutil.NewTestServer(t)

	// An unverified account holds a valid session (registration issues one)
	// but must be turned away from the chat surface.
	resp := postJSON(t, ts.APIURL("/auth/register"), map[string]string{
		"email":    "pending@test.local",
		"password": "password123",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var authResp handlers.AuthResponse
	testutil.AssertJSONResponse(t, resp, &authResp)
	token := authResp.AccessToken

	for _, tc := range []struct {
		name   string
		method string
		path   string
	}{
		{"directory", http.MethodGet, "/users"},
		{"conversation", http.MethodGet, "/conversations/00000000-0000-0000-0000-000000000001"},
		{"send", http.MethodPost, "/messages"},
		{"profile", http.MethodGet, "/profile/"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.CreateAuthenticatedRequest(t, tc.method, ts.APIURL(tc.path), nil, token)
			resp := doRequest(t, req)
			testutil.AssertStatusCode(t, resp, http.StatusForbidden)
		})
	}

	// The session itself still works outside the gate.
	req := testutil.CreateAuthenticatedRequest(t, http.MethodGet, ts.APIURL("/auth/me"), nil, token)
	meResp := doRequest(t, req)
	testutil.AssertStatusCode(t, meResp, http.StatusOK)
}
