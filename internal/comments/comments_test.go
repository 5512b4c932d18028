package comments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewHTTPClient(server.URL+"/", "anon-key")
	require.NoError(t, err)
	c.newID = func() string { return "comment-1" }
	return c
}

func TestNewHTTPClient(t *testing.T) {
	_, err := NewHTTPClient("", "key")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewHTTPClient("https://example.supabase.co", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHTTPClient_List(t *testing.T) {
	t.Run("returns comments", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, commentsPath, r.URL.Path)
			assert.Equal(t, "eq.creation-9", r.URL.Query().Get("creation_id"))
			assert.Equal(t, "created_at", r.URL.Query().Get("order"))
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))
			assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[
				{"id":"a","user_id":"u1","creation_id":"creation-9","content":"Luminous work","parent_comment_id":null,"like_count":2,"created_at":"2026-01-02T03:04:05Z"},
				{"id":"b","user_id":"u2","creation_id":"creation-9","content":"Agreed","parent_comment_id":"a","created_at":"2026-01-02T04:04:05Z"}
			]`))
		})

		list, err := c.List(context.Background(), "creation-9")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Luminous work", list[0].Content)
		assert.Equal(t, 2, list[0].LikeCount)
		assert.False(t, list[0].IsReply())
		assert.True(t, list[1].IsReply())
	})

	t.Run("backend errors propagate", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"code":"PGRST301","message":"JWT expired","hint":"refresh the key"}`))
		})

		_, err := c.List(context.Background(), "creation-9")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
		assert.Equal(t, "PGRST301", apiErr.Code)
		assert.Equal(t, "comment service error: status 401: JWT expired (code PGRST301), hint: refresh the key", err.Error())
	})

	t.Run("empty creation id", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})
		_, err := c.List(context.Background(), "")
		assert.Error(t, err)
	})
}

func TestHTTPClient_Add(t *testing.T) {
	t.Run("posts a reply", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, commentsPath, r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{
				"id":                "comment-1",
				"user_id":           "u1",
				"creation_id":       "creation-9",
				"content":           "Stand firm.",
				"parent_comment_id": "a",
			}, body)
			w.WriteHeader(http.StatusCreated)
		})

		require.NoError(t, c.Add(context.Background(), "u1", "creation-9", "Stand firm.", "a"))
	})

	t.Run("top-level comment omits the parent", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.NotContains(t, body, "parent_comment_id")
			w.WriteHeader(http.StatusCreated)
		})

		require.NoError(t, c.Add(context.Background(), "u1", "creation-9", "First light", ""))
	})

	t.Run("backend errors propagate", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"code":"23505","message":"duplicate key"}`))
		})

		err := c.Add(context.Background(), "u1", "creation-9", "again", "")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "23505", apiErr.Code)
	})

	t.Run("input validation", func(t *testing.T) {
		c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})
		assert.Error(t, c.Add(context.Background(), "", "c", "x", ""))
		assert.Error(t, c.Add(context.Background(), "u", "", "x", ""))
		assert.Error(t, c.Add(context.Background(), "u", "c", "  ", ""))
	})
}

func TestThreads(t *testing.T) {
	parent := func(id string) *string { return &id }
	list := []Comment{
		{ID: "a", Content: "root one"},
		{ID: "b", Content: "root two"},
		{ID: "c", Content: "reply to a", ParentCommentID: parent("a")},
		{ID: "d", Content: "reply to c", ParentCommentID: parent("c")},
		{ID: "e", Content: "orphan", ParentCommentID: parent("gone")},
	}

	threads := Threads(list)
	require.Len(t, threads, 3)

	assert.Equal(t, "a", threads[0].Comment.ID)
	require.Len(t, threads[0].Replies, 2)
	assert.Equal(t, "c", threads[0].Replies[0].ID)
	assert.Equal(t, "d", threads[0].Replies[1].ID)

	assert.Equal(t, "b", threads[1].Comment.ID)
	assert.Empty(t, threads[1].Replies)
	assert.Equal(t, "e", threads[2].Comment.ID)

	t.Run("reply listed before its root", func(t *testing.T) {
		threads := Threads([]Comment{
			{ID: "r", ParentCommentID: parent("a")},
			{ID: "a"},
		})
		require.Len(t, threads, 1)
		assert.Equal(t, "a", threads[0].Comment.ID)
		assert.Len(t, threads[0].Replies, 1)
	})
}
