package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/push", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pushToken":"tok_abc"}`))
	}))
	defer srv.Close()

	c := NewWithToken(srv.URL, "secret")
	resp, err := c.PushToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok_abc", resp.PushToken)
}

func TestWorkspaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/workspaces", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"workspaces":[{"id":"ws_a","name":"web","chartName":"web-chart"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.Workspaces(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Workspaces, 1)
	assert.Equal(t, "ws_a", resp.Workspaces[0].ID)
	assert.Equal(t, "web-chart", resp.Workspaces[0].ChartName)
}

func TestSubmitMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/workspaces/ws_a/messages", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messageId":"msg_1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.SubmitMessage(context.Background(), "ws_a", &SubmitMessageRequest{Prompt: "add an ingress"})
	require.NoError(t, err)
	assert.Equal(t, "msg_1", resp.MessageID)
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
	}))
	defer srv.Close()

	c := NewWithToken(srv.URL, "expired")
	_, err := c.PushToken(context.Background())
	require.Error(t, err)

	apiErr, ok := err.(*Error)
	require.True(t, ok, "expected *api.Error, got %T", err)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid token")
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.False(t, IsStatus(err, http.StatusNotFound))
}

func TestProceedPlan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/plans/plan_1/proceed", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"planId":"plan_1","status":"applied"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.ProceedPlan(context.Background(), "plan_1")
	require.NoError(t, err)
	assert.Equal(t, "applied", resp.Status)
}
