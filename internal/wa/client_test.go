package wa_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atacadocell/backend-atacado/internal/wa"
)

func TestSendTextPostsPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "Bearer secreto", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := wa.NewClient(srv.URL, "secreto", time.Second, 3, time.Millisecond)
	require.NoError(t, c.SendText(context.Background(), "5511999990000", "olá"))
	require.Equal(t, "5511999990000", got["phone"])
	require.Equal(t, "olá", got["message"])
}

func TestSendTextRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := wa.NewClient(srv.URL, "", time.Second, 3, time.Millisecond)
	require.NoError(t, c.SendText(context.Background(), "5511999990000", "olá"))
	require.Equal(t, int32(2), calls.Load())
}

func TestSendTextFailsAfterAttemptsExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := wa.NewClient(srv.URL, "", time.Second, 3, time.Millisecond)
	err := c.SendText(context.Background(), "5511999990000", "olá")
	require.Error(t, err)
	require.Equal(t, int32(3), calls.Load())
}

func TestSendTextUnconfigured(t *testing.T) {
	var c *wa.Client
	require.ErrorIs(t, c.SendText(context.Background(), "x", "y"), wa.ErrNotConfigured)
}
