package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/wizard"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/initiate", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] == "busy@example.com" {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"please wait","retry_after_seconds":42}`))
			return
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"step":"otp"}`))
	})
	mux.HandleFunc("POST /auth/login/verify-otp", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["otp"] != "123456" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid or expired code"}`))
			return
		}
		w.Write([]byte(`{"step":"password","challenge":"ch-1"}`))
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"jwt-token"}`))
	})
	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer jwt-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		w.Write([]byte(`{"id":"adm_1","email":"ops@example.com","display_name":"Ops"}`))
	})
	mux.HandleFunc("GET /api/v1/tenants/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("id,name\n" + r.URL.Query().Get("status") + ",Acme\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_DrivesWizard(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "", zerolog.Nop())
	w := wizard.New(c)
	ctx := context.Background()

	w.SetEmail("ops@example.com")
	require.NoError(t, w.SubmitEmail(ctx))
	assert.Equal(t, wizard.StepOTP, w.Step())

	w.Paste(0, "123456")
	require.NoError(t, w.SubmitOTP(ctx))
	assert.Equal(t, wizard.StepPassword, w.Step())

	w.SetPassword("secret123")
	require.NoError(t, w.SubmitPassword(ctx))
	assert.Equal(t, wizard.StepDone, w.Step())
	assert.Equal(t, "jwt-token", w.Token())
}

func TestClient_InitiateCooldown(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "", zerolog.Nop())

	err := c.Initiate(context.Background(), "busy@example.com")
	var cd *wizard.CooldownError
	require.True(t, errors.As(err, &cd))
	assert.Equal(t, 42*time.Second, cd.RetryAfter)
}

func TestClient_APIError(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "", zerolog.Nop())

	_, err := c.VerifyOTP(context.Background(), "ops@example.com", "000000")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid or expired code", apiErr.Message)

	_, err = c.Me(context.Background())
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_MeAndExport(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", "jwt-token", zerolog.Nop())

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", me.Email)

	var buf bytes.Buffer
	n, err := c.Export(context.Background(), "tenants", url.Values{"status": {"active"}}, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "id,name\nactive,Acme\n", buf.String())
}

func TestSession_RoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)

	want := &Session{APIURL: "http://localhost:8090", Email: "ops@example.com", Token: "tok"}
	require.NoError(t, SaveSession(want))

	got, err := LoadSession()
	require.NoError(t, err)
	assert.Equal(t, want.Token, got.Token)
	assert.Equal(t, want.APIURL, got.APIURL)

	require.NoError(t, ClearSession())
	_, err = LoadSession()
	assert.ErrorIs(t, err, ErrNoSession)
	require.NoError(t, ClearSession())
}
