// Package api is the HTTP client for the decree Q&A service. Every
// call is a single round trip that either fully completes or fully
// fails; nothing is streamed.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnauthorized marks a 401: the stored token is missing or expired.
var ErrUnauthorized = errors.New("not authenticated")

const defaultTimeout = 60 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

func (c *Client) ListConversations(ctx context.Context) ([]Conversation, error) {
	var out conversationList
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/conversations/", nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

func (c *Client) CreateConversation(ctx context.Context, title string) (Conversation, error) {
	var out Conversation
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/conversations/", conversationRequest{Title: title}, &out)
	return out, err
}

func (c *Client) RenameConversation(ctx context.Context, id, title string) (Conversation, error) {
	var out Conversation
	err := c.doJSON(ctx, http.MethodPatch, "/api/v1/conversations/"+url.PathEscape(id), conversationRequest{Title: title}, &out)
	return out, err
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/conversations/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]ThreadMessage, error) {
	var out []ThreadMessage
	path := "/api/v1/conversations/" + url.PathEscape(conversationID) + "/messages"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Ask(ctx context.Context, conversationID, question string) (Answer, error) {
	var out Answer
	path := "/api/v1/chat/message/" + url.PathEscape(conversationID)
	err := c.doJSON(ctx, http.MethodPost, path, messageRequest{Question: question}, &out)
	return out, err
}

func (c *Client) SubmitFeedback(ctx context.Context, interactionID int64, positive bool) error {
	return c.doJSON(ctx, http.MethodPost, "/api/v1/chat/feedback", feedbackRequest{
		InteractionID: interactionID,
		IsPositive:    positive,
	}, nil)
}

func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var out []Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/documents/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteAllDocuments(ctx context.Context) ([]Document, error) {
	var out []Document
	if err := c.doJSON(ctx, http.MethodDelete, "/api/v1/documents/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadDocuments submits a batch of local files as one multipart
// request and returns the service's per-file verdict verbatim.
func (c *Client) UploadDocuments(ctx context.Context, paths []string) (UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, path := range paths {
		if err := appendFilePart(mw, path); err != nil {
			return UploadResult{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("finalize upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/documents/", &body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out UploadResult
	if err := c.send(req, &out); err != nil {
		return UploadResult{}, err
	}
	return out, nil
}

func appendFilePart(mw *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	part, err := mw.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create upload part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy upload data: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send executes one round trip and logs a single wide event for it.
func (c *Client) send(req *http.Request, out any) error {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		c.logger.Warn("request failed", append(fields, zap.Error(err))...)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	fields = append(fields, zap.Int("status", resp.StatusCode))
	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("request unauthorized", fields...)
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("request rejected", fields...)
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, responseDetail(resp))
	}
	c.logger.Debug("request completed", fields...)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func responseDetail(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var d errorDetail
		if json.Unmarshal(raw, &d) == nil && d.Detail != "" {
			return d.Detail
		}
	}
	return resp.Status
}
