package notify

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

func TestWebhookChannel_Send(t *testing.T) {
	var received Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "")
	alert := &Alert{
		Title:      "push service alert - PUSH ERROR",
		Type:       "push",
		Message:    "publish failed",
		Timestamp:  time.Now(),
		ErrorCount: 3,
	}

	require.NoError(t, ch.Send(context.Background(), alert))
	assert.Equal(t, "push", received.Type)
	assert.Equal(t, 3, received.ErrorCount)
}

func TestWebhookChannel_SendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := NewWebhookChannel(srv.URL, "")
	err := ch.Send(context.Background(), &Alert{Type: "crawl"})
	assert.Error(t, err)
}

func TestWebhookChannel_Validate(t *testing.T) {
	ch := NewWebhookChannel("", "")
	assert.Error(t, ch.Send(context.Background(), &Alert{}))
}
