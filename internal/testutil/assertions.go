package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mack/direct-chat/internal/service"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies error response with expected status and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	// Error responses are plain text in this API
	assert.Contains(t, string(body), expectedMessage, "error message mismatch")
}

// AssertConversationOrdered verifies the snapshot is non-decreasing by
// (timestamp, id)
func AssertConversationOrdered(t *testing.T, messages []service.ConversationMessage) {
	t.Helper()

	for i := 1; i < len(messages); i++ {
		prev, cur := messages[i-1], messages[i]
		if prev.Timestamp.After(cur.Timestamp) {
			t.Fatalf("conversation out of order at %d: %v after %v", i, prev.Timestamp, cur.Timestamp)
		}
		if prev.Timestamp.Equal(cur.Timestamp) {
			assert.Less(t, prev.ID, cur.ID, "equal-timestamp messages must be ordered by id")
		}
	}
}

// AssertContainsText verifies a message with the given text exists in a snapshot
func AssertContainsText(t *testing.T, messages []service.ConversationMessage, text string) {
	t.Helper()
	for _, m := range messages {
		if m.Text == text {
			return
		}
	}
	t.Fatalf("message %q not found in conversation", text)
}

// AssertNotContainsText verifies no message with the given text exists in a snapshot
func AssertNotContainsText(t *testing.T, messages []service.ConversationMessage, text string) {
	t.Helper()
	for _, m := range messages {
		if m.Text == text {
			t.Fatalf("message %q should not be in conversation", text)
		}
	}
}
