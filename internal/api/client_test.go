package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", zap.NewNop())
}

func TestListConversations(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/conversations/", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"conversations": []map[string]any{
				{"id": "c1", "title": "Newest", "created_at": "2024-06-01T10:00:00Z", "updated_at": "2024-06-15T10:00:00Z"},
				{"id": "c2", "title": "Older", "created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-02T10:00:00Z"},
			},
		})
	}))

	got, err := client.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "Newest", got[0].Title)
}

func TestAsk(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/message/c1", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What is decree 70/2023?", body["question"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"answer":         "It deregulates several markets.",
			"interaction_id": 42,
			"source_documents": []map[string]any{
				{"id": 1, "filename": "decreto_70_2023.pdf", "uploaded_at": "2024-01-02T00:00:00Z"},
			},
		})
	}))

	answer, err := client.Ask(context.Background(), "c1", "What is decree 70/2023?")
	require.NoError(t, err)
	assert.Equal(t, "It deregulates several markets.", answer.Text)
	assert.Equal(t, int64(42), answer.InteractionID)
	require.Len(t, answer.SourceDocuments, 1)
	assert.Equal(t, "decreto_70_2023.pdf", answer.SourceDocuments[0].Filename)
}

func TestListMessagesOptionalFields(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"role": "user", "content": "q"},
			{"role": "assistant", "content": "a", "interactionId": 7, "feedback": true}
		]`))
	}))

	msgs, err := client.ListMessages(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Nil(t, msgs[0].InteractionID)
	assert.Nil(t, msgs[0].Feedback)
	require.NotNil(t, msgs[1].InteractionID)
	assert.Equal(t, int64(7), *msgs[1].InteractionID)
	require.NotNil(t, msgs[1].Feedback)
	assert.True(t, *msgs[1].Feedback)
}

func TestSubmitFeedback(t *testing.T) {
	var got feedbackRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/feedback", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, client.SubmitFeedback(context.Background(), 42, true))
	assert.Equal(t, int64(42), got.InteractionID)
	assert.True(t, got.IsPositive)
}

func TestErrorDetailSurfaced(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "Conversation not found"}`))
	}))

	_, err := client.ListMessages(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Conversation not found")
}

func TestUnauthorizedSentinel(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.ListConversations(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUploadDocumentsPartialResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decreto_70_2023.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "decreto_70_2023.pdf", files[0].Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"successful_uploads": []map[string]any{
				{"id": 10, "filename": "decreto_70_2023.pdf", "uploaded_at": "2024-06-15T00:00:00Z"},
			},
			"failed_uploads": []map[string]string{
				{"filename": "dup.pdf", "error": "Document with this filename already exists."},
			},
		})
	}))

	result, err := client.UploadDocuments(context.Background(), []string{path})
	require.NoError(t, err)
	require.Len(t, result.Accepted, 1)
	assert.Equal(t, int64(10), result.Accepted[0].ID)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "dup.pdf", result.Rejected[0].Filename)
}

func TestRenameAndDelete(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			assert.Equal(t, "/api/v1/conversations/c1", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "c1", "title": "Renamed",
				"created_at": "2024-06-01T10:00:00Z", "updated_at": "2024-06-15T10:00:00Z",
			})
		case http.MethodDelete:
			assert.Equal(t, "/api/v1/conversations/c2", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Conversation deleted"})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))

	conv, err := client.RenameConversation(context.Background(), "c1", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", conv.Title)

	require.NoError(t, client.DeleteConversation(context.Background(), "c2"))
}
