package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, 5*time.Second), server
}

func TestWebSocketURL(t *testing.T) {
	client := New("http://localhost:8000", time.Second)
	u, err := client.WebSocketURL("abc-123")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8000/ws/chat/abc-123", u)

	client = New("https://chat.example.com/api/", time.Second)
	u, err = client.WebSocketURL("abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://chat.example.com/api/ws/chat/abc", u)
}

func TestCurrentChatID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/chat_id", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "success", "chat_id": "abc"})
	})

	id, err := client.CurrentChatID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestNewChat(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/new", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"chat_id": "fresh"})
	})

	id, err := client.NewChat(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", id)
}

func TestRenameChatBody(t *testing.T) {
	var got map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/rename", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	})

	require.NoError(t, client.RenameChat(context.Background(), "abc", "My chat"))
	assert.Equal(t, map[string]string{"chat_id": "abc", "new_name": "My chat"}, got)
}

func TestDeleteChat(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/chat/abc", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	})

	assert.NoError(t, client.DeleteChat(context.Background(), "abc"))
}

func TestClearChats(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/chats/clear", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"new_chat_id": "fresh", "cleared_count": 3})
	})

	id, count, err := client.ClearChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", id)
	assert.Equal(t, 3, count)
}

func TestMetadataFallsBackToChatID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"name": "Chat ab"})
	})

	metadata, err := client.Metadata(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", metadata.ChatID)
	assert.Equal(t, "Chat ab", metadata.Name)
}

func TestSourcesAndSelection(t *testing.T) {
	var posted []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sources":
			json.NewEncoder(w).Encode(map[string][]string{"sources": {"a.pdf", "b.md"}})
		case "/selected_sources":
			if r.Method == http.MethodPost {
				require.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
				return
			}
			json.NewEncoder(w).Encode(map[string][]string{"sources": {"a.pdf"}})
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	sources, err := client.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.md"}, sources)

	selected, err := client.SelectedSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, selected)

	require.NoError(t, client.SetSelectedSources(ctx, []string{"b.md"}))
	assert.Equal(t, []string{"b.md"}, posted)
}

func TestModels(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/available_models":
			json.NewEncoder(w).Encode(map[string][]string{"models": {"llama3", "mistral"}})
		case "/selected_model":
			json.NewEncoder(w).Encode(map[string]string{"model": "llama3"})
		default:
			http.NotFound(w, r)
		}
	})

	ctx := context.Background()
	models, err := client.AvailableModels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3", "mistral"}, models)

	model, err := client.SelectedModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "llama3", model)
}

func TestErrorDetailSurfaced(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Chat abc not found"})
	})

	err := client.DeleteChat(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Chat abc not found")
}
