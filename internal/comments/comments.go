// Package comments reads and writes creation comments on the hosted backend.
package comments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const commentsPath = "/rest/v1/comments"

// ErrNotConfigured is returned when no endpoint or key is set.
var ErrNotConfigured = errors.New("comment service is not configured, set comments.url and comments.key")

// Comment is one row of the comments table.
type Comment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	CreationID      string    `json:"creation_id"`
	Content         string    `json:"content"`
	ParentCommentID *string   `json:"parent_comment_id"`
	IsEdited        bool      `json:"is_edited"`
	LikeCount       int       `json:"like_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsReply reports whether the comment answers another comment.
func (c Comment) IsReply() bool {
	return c.ParentCommentID != nil && *c.ParentCommentID != ""
}

// Client is the comment service contract. Backend failures are returned to
// the caller unchanged.
type Client interface {
	List(ctx context.Context, creationID string) ([]Comment, error)
	Add(ctx context.Context, userID, creationID, content, parentID string) error
}

type newComment struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	CreationID      string  `json:"creation_id"`
	Content         string  `json:"content"`
	ParentCommentID *string `json:"parent_comment_id,omitempty"`
}

// HTTPClient talks to a PostgREST endpoint.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	newID      func() string
}

// NewHTTPClient creates a client for the service at baseURL.
func NewHTTPClient(baseURL, apiKey string) (*HTTPClient, error) {
	if baseURL == "" || apiKey == "" {
		return nil, ErrNotConfigured
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		newID:      uuid.NewString,
	}, nil
}

// List returns the comments on a creation, oldest first.
func (c *HTTPClient) List(ctx context.Context, creationID string) ([]Comment, error) {
	if creationID == "" {
		return nil, fmt.Errorf("creation id cannot be empty")
	}

	query := url.Values{}
	query.Set("creation_id", "eq."+creationID)
	query.Set("order", "created_at")
	endpoint := c.baseURL + commentsPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var out []Comment
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}

	log.Debug().Str("creation", creationID).Int("count", len(out)).Msg("Listed comments")
	return out, nil
}

// Add posts a comment. parentID is optional.
func (c *HTTPClient) Add(ctx context.Context, userID, creationID, content, parentID string) error {
	switch {
	case userID == "":
		return fmt.Errorf("user id cannot be empty")
	case creationID == "":
		return fmt.Errorf("creation id cannot be empty")
	case strings.TrimSpace(content) == "":
		return fmt.Errorf("comment content cannot be empty")
	}

	body := newComment{
		ID:         c.newID(),
		UserID:     userID,
		CreationID: creationID,
		Content:    content,
	}
	if parentID != "" {
		body.ParentCommentID = &parentID
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+commentsPath, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	log.Debug().Str("creation", creationID).Str("id", body.ID).Msg("Added comment")
	return nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	Hint    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("comment service error: status %d", e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Code != "" {
		msg += " (code " + e.Code + ")"
	}
	if e.Hint != "" {
		msg += ", hint: " + e.Hint
	}
	return msg
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Hint    string `json:"hint"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	apiErr := &APIError{Status: resp.StatusCode}
	if json.Unmarshal(data, &body) == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		apiErr.Hint = body.Hint
	}
	return apiErr
}
