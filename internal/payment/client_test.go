package payment

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "foodbridge/pkg/domain-errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_Authorize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/authorizations", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"reference":"auth-123","status":"authorized"}`))
	})

	auth, err := c.Authorize(context.Background(), 2500, "USD")
	require.NoError(t, err)
	assert.Equal(t, "auth-123", auth.Reference)
	assert.Equal(t, "authorized", auth.Status)
}

func TestClient_AuthorizeDeclined(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	_, err := c.Authorize(context.Background(), 2500, "USD")
	assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
}

func TestClient_CircuitOpensOnRepeatedOutage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 5; i++ {
		_, err := c.Authorize(context.Background(), 100, "USD")
		assert.True(t, dErrors.Is(err, dErrors.CodeExternalService))
	}

	assert.True(t, c.breaker.IsOpen())
	_, err := c.Authorize(context.Background(), 100, "USD")
	assert.True(t, dErrors.Is(err, dErrors.CodeExternalService), "open circuit fails fast")
}
