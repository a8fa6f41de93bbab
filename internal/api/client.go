// Package api is the REST client for the chat backend's configuration
// and conversation-management surface. Conversation identifiers are
// opaque; everything here is thin I/O around the engine in
// internal/stream and internal/transcript.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client talks to one backend instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the backend at baseURL (e.g.
// "http://localhost:8000").
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// WebSocketURL returns the stream endpoint for a conversation, derived
// from the REST base URL.
func (c *Client) WebSocketURL(chatID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parsing base url")
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/chat/" + url.PathEscape(chatID)
	return u.String(), nil
}

// ChatMetadata describes one conversation.
type ChatMetadata struct {
	ChatID string `json:"chat_id"`
	Name   string `json:"name"`
}

// CurrentChatID returns the backend's active conversation, creating one
// server-side if none exists.
func (c *Client) CurrentChatID(ctx context.Context) (string, error) {
	var resp struct {
		ChatID string `json:"chat_id"`
	}
	if err := c.get(ctx, "/chat_id", &resp); err != nil {
		return "", err
	}
	return resp.ChatID, nil
}

// SetCurrentChatID makes chatID the backend's active conversation.
func (c *Client) SetCurrentChatID(ctx context.Context, chatID string) error {
	body := map[string]string{"chat_id": chatID}
	return c.post(ctx, "/chat_id", body, nil)
}

// NewChat creates a conversation and makes it current.
func (c *Client) NewChat(ctx context.Context) (string, error) {
	var resp struct {
		ChatID string `json:"chat_id"`
	}
	if err := c.post(ctx, "/chat/new", nil, &resp); err != nil {
		return "", err
	}
	return resp.ChatID, nil
}

// ListChats returns every conversation identifier.
func (c *Client) ListChats(ctx context.Context) ([]string, error) {
	var resp struct {
		Chats []string `json:"chats"`
	}
	if err := c.get(ctx, "/chats", &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// Metadata returns the display name for one conversation.
func (c *Client) Metadata(ctx context.Context, chatID string) (*ChatMetadata, error) {
	metadata := &ChatMetadata{}
	if err := c.get(ctx, "/chat/"+url.PathEscape(chatID)+"/metadata", metadata); err != nil {
		return nil, err
	}
	if metadata.ChatID == "" {
		metadata.ChatID = chatID
	}
	return metadata, nil
}

// RenameChat sets a conversation's display name.
func (c *Client) RenameChat(ctx context.Context, chatID, name string) error {
	body := map[string]string{"chat_id": chatID, "new_name": name}
	return c.post(ctx, "/chat/rename", body, nil)
}

// DeleteChat removes one conversation and its messages.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	return c.delete(ctx, "/chat/"+url.PathEscape(chatID))
}

// ClearChats removes every conversation; the backend creates and
// returns a fresh one.
func (c *Client) ClearChats(ctx context.Context) (newChatID string, cleared int, err error) {
	var resp struct {
		NewChatID    string `json:"new_chat_id"`
		ClearedCount int    `json:"cleared_count"`
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/chats/clear", nil)
	if err != nil {
		return "", 0, errors.Wrap(err, "building request")
	}
	if err := c.do(req, &resp); err != nil {
		return "", 0, err
	}
	return resp.NewChatID, resp.ClearedCount, nil
}

// Sources returns every ingested document source.
func (c *Client) Sources(ctx context.Context) ([]string, error) {
	return c.getSources(ctx, "/sources")
}

// SelectedSources returns the sources currently used for retrieval.
func (c *Client) SelectedSources(ctx context.Context) ([]string, error) {
	return c.getSources(ctx, "/selected_sources")
}

// SetSelectedSources replaces the retrieval source selection.
func (c *Client) SetSelectedSources(ctx context.Context, sources []string) error {
	if sources == nil {
		sources = []string{}
	}
	return c.post(ctx, "/selected_sources", sources, nil)
}

// AvailableModels returns every model the backend can serve.
func (c *Client) AvailableModels(ctx context.Context) ([]string, error) {
	var resp struct {
		Models []string `json:"models"`
	}
	if err := c.get(ctx, "/available_models", &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// SelectedModel returns the model currently in use.
func (c *Client) SelectedModel(ctx context.Context) (string, error) {
	var resp struct {
		Model string `json:"model"`
	}
	if err := c.get(ctx, "/selected_model", &resp); err != nil {
		return "", err
	}
	return resp.Model, nil
}

// SetSelectedModel switches the backend to model.
func (c *Client) SetSelectedModel(ctx context.Context, model string) error {
	body := map[string]string{"model": model}
	return c.post(ctx, "/selected_model", body, nil)
}

func (c *Client) getSources(ctx context.Context, path string) ([]string, error) {
	var resp struct {
		Sources []string `json:"sources"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Sources, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshaling body")
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("%s %s: %s", req.Method, req.URL.Path, errorDetail(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s response", req.URL.Path)
	}
	return nil
}

// errorDetail extracts FastAPI's {"detail": "..."} shape, falling back
// to the status line.
func errorDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
			return fmt.Sprintf("%s (%s)", payload.Detail, resp.Status)
		}
	}
	return resp.Status
}
