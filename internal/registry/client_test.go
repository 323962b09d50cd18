package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL, 5*time.Second, nil)
	t.Cleanup(client.CloseIdleConnections)
	return client, srv
}

func TestDo_JSONBodyAndHeaders(t *testing.T) {
	var gotAuth, gotKey, gotContentType string
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-Api-Key")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})

	resp, err := client.Post(context.Background(), "/api/v1/echo",
		WithBearer("tok123"), WithAPIKey("key456"),
		WithJSON(map[string]any{"hello": "world"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "key456", gotKey)
	assert.Equal(t, "application/json", gotContentType)
}

func TestDo_QueryParameters(t *testing.T) {
	var gotQuery string
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("limit")
		w.Write([]byte(`{}`))
	})

	_, err := client.Get(context.Background(), "/api/v1/things", WithQuery("limit", "10"))
	require.NoError(t, err)
	assert.Equal(t, "10", gotQuery)
}

func TestDo_RedirectNotFollowed(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/verify-email" {
			http.Redirect(w, r, "/verification-failed", http.StatusSeeOther)
			return
		}
		w.Write([]byte(`{}`))
	})

	resp, err := client.Get(context.Background(), "/api/v1/auth/verify-email")
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestDo_ContextCancelled(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Get(ctx, "/api/v1/anything")
	assert.Error(t, err)
}

func TestResponse_Accessors(t *testing.T) {
	resp := &Response{
		StatusCode: 400,
		Body:       []byte(`{"detail":"bad input","id":"abc","count":3}`),
	}

	assert.Equal(t, "bad input", resp.Detail())
	assert.True(t, resp.HasFields("id", "count"))
	assert.False(t, resp.HasFields("id", "missing"))

	v, ok := resp.Field("id")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "abc", out.ID)
}

func TestResponse_EmptyBody(t *testing.T) {
	resp := &Response{StatusCode: 204}
	assert.Nil(t, resp.JSON())
	assert.Empty(t, resp.Detail())
	assert.Error(t, resp.Decode(&struct{}{}))
}

func TestHealthy(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	ok, msg := client.Healthy(context.Background(), "/health")
	assert.True(t, ok)
	assert.Contains(t, msg, "ONLINE")
}

func TestHealthy_Offline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewClient(srv.URL, time.Second, nil)

	ok, msg := client.Healthy(context.Background(), "/health")
	assert.False(t, ok)
	assert.Contains(t, msg, "OFFLINE")
}

func TestHealthy_DegradedButResponding(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	// A 404 on the base URL still counts as reachable.
	ok, _ := client.Healthy(context.Background(), "/health")
	assert.True(t, ok)
}

func TestLogin_FormEncoding(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "dev@example.com", r.PostFormValue("username"))
		assert.Equal(t, "password", r.PostFormValue("grant_type"))
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer"}`))
	})

	tok, err := client.Login(context.Background(), "dev@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
}

func TestLogin_Rejected(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"incorrect email or password"}`))
	})

	_, err := client.Login(context.Background(), "dev@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect email or password")
}

func TestTransfer_RequiresTransactionID(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"completed"}`))
	})

	_, err := client.Transfer(context.Background(), "did:cos:sender", TransferRequest{
		ReceiverAgentID: "did:cos:receiver",
		Amount:          "10.0",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction_id")
}

func TestPeekClaims(t *testing.T) {
	// Unsigned-but-well-formed token; PeekClaims never verifies signatures.
	const token = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
		"eyJzdWIiOiJkZXYtMTIzIiwicm9sZSI6ImRldmVsb3BlciJ9." +
		"c2lnbmF0dXJl"

	claims, err := PeekClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "dev-123", claims.Subject)
	assert.Equal(t, "developer", claims.Role)
}

func TestPeekClaims_Garbage(t *testing.T) {
	_, err := PeekClaims("not-a-jwt")
	assert.Error(t, err)
}
