package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"

	mw "github.com/edvin/saasadmin/internal/api/middleware"
	"github.com/edvin/saasadmin/internal/core"
)

const validID = "ten_1234567890"

// newRequest builds a JSON request. A string body is sent as-is so tests
// can post malformed JSON.
func newRequest(method, target string, body any) *http.Request {
	var rd io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		buf, _ := json.Marshal(b)
		rd = bytes.NewReader(buf)
	}
	r := httptest.NewRequest(method, target, rd)
	r.Header.Set("Content-Type", "application/json")
	return r
}

// withURLParams sets chi route params, given as key/value pairs.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func errorBody(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return body
}

func withIdentity(r *http.Request, id *mw.Identity) *http.Request {
	return r.WithContext(mw.WithIdentity(r.Context(), id))
}

func withAdmin(r *http.Request) *http.Request {
	return withIdentity(r, &mw.Identity{
		Kind:   mw.KindAdmin,
		ID:     "adm_1",
		Email:  "root@example.com",
		Scopes: []string{core.ScopeAll},
	})
}

func withAPIKey(r *http.Request, scopes ...string) *http.Request {
	return withIdentity(r, &mw.Identity{
		Kind:   mw.KindAPIKey,
		ID:     "key_1",
		Email:  "api-key:ci",
		Scopes: scopes,
	})
}
