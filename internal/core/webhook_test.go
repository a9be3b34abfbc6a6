package core

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/saasadmin/internal/model"
)

func webhookScan(w model.Webhook) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = w.ID
		*(dest[1].(*string)) = w.URL
		*(dest[2].(*[]string)) = w.Events
		*(dest[3].(*string)) = w.Secret
		*(dest[4].(*bool)) = w.Active
		*(dest[5].(*string)) = w.Description
		*(dest[6].(*time.Time)) = fixedTime
		*(dest[7].(*time.Time)) = fixedTime
		return nil
	}
}

// receiver records deliveries and checks their signature.
type receiver struct {
	mu       sync.Mutex
	secret   string
	status   int
	events   []WebhookEvent
	badSigns int
}

func (r *receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	mac := hmac.New(sha256.New, []byte(r.secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))

	var ev WebhookEvent
	_ = json.Unmarshal(body, &ev)

	r.mu.Lock()
	if req.Header.Get(SignatureHeader) != want {
		r.badSigns++
	}
	r.events = append(r.events, ev)
	r.mu.Unlock()

	if r.status != 0 {
		w.WriteHeader(r.status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func TestSign(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte(`{"a":1}`))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), Sign([]byte(`{"a":1}`), "secret"))
	assert.NotEqual(t, Sign([]byte(`{"a":1}`), "secret"), Sign([]byte(`{"a":1}`), "other"))
}

func TestWebhookService_Create(t *testing.T) {
	db := &mockDB{}
	svc := NewWebhookService(db, nil, zerolog.Nop())
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(tag("INSERT 0 1"), nil)

	w := &model.Webhook{URL: "https://hooks.example.com/in", Events: []string{"*"}}
	secret, err := svc.Create(ctx, w)
	require.NoError(t, err)
	assert.Contains(t, secret, "whsec_")
	assert.True(t, w.Active)

	_, err = svc.Create(ctx, &model.Webhook{URL: "ftp://example.com", Events: []string{"*"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, &model.Webhook{URL: "https://example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWebhookService_Dispatch_OnlySubscribers(t *testing.T) {
	recv := &receiver{secret: "s3cret"}
	srv := httptest.NewServer(recv)
	defer srv.Close()

	db := &mockDB{}
	svc := NewWebhookService(db, srv.Client(), zerolog.Nop())
	ctx := context.Background()

	rows := newMockRows(
		webhookScan(model.Webhook{ID: "whk_1", URL: srv.URL, Events: []string{model.EventInvoicePaid}, Secret: "s3cret", Active: true}),
		webhookScan(model.Webhook{ID: "whk_2", URL: srv.URL, Events: []string{model.EventTenantCreated}, Secret: "s3cret", Active: true}),
		webhookScan(model.Webhook{ID: "whk_3", URL: srv.URL, Events: []string{"*"}, Secret: "s3cret", Active: true}),
	)
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any(nil)).Return(rows, nil)

	deliveries, err := svc.Dispatch(ctx, model.EventInvoicePaid, map[string]string{"id": "inv_1"})
	require.NoError(t, err)
	require.Len(t, deliveries, 2)
	assert.Equal(t, "whk_1", deliveries[0].WebhookID)
	assert.Equal(t, "whk_3", deliveries[1].WebhookID)
	for _, d := range deliveries {
		assert.True(t, d.Success)
		assert.Equal(t, http.StatusNoContent, d.StatusCode)
	}

	recv.mu.Lock()
	defer recv.mu.Unlock()
	assert.Len(t, recv.events, 2)
	assert.Zero(t, recv.badSigns)
	assert.Equal(t, model.EventInvoicePaid, recv.events[0].Event)
}

func TestWebhookService_Test_Failure(t *testing.T) {
	recv := &receiver{secret: "s3cret", status: http.StatusInternalServerError}
	srv := httptest.NewServer(recv)
	defer srv.Close()

	db := &mockDB{}
	svc := NewWebhookService(db, srv.Client(), zerolog.Nop())
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), []any{"whk_1"}).
		Return(&mockRow{scanFunc: webhookScan(model.Webhook{ID: "whk_1", URL: srv.URL, Events: []string{model.EventTenantCreated}, Secret: "s3cret"})})

	d, err := svc.Test(ctx, "whk_1")
	require.NoError(t, err)
	assert.False(t, d.Success)
	assert.Equal(t, http.StatusInternalServerError, d.StatusCode)
	assert.Equal(t, model.EventWebhookTest, d.Event)
	assert.Contains(t, d.Error, "500")
}

func TestWebhookService_PublishThenWait(t *testing.T) {
	recv := &receiver{secret: "s3cret"}
	srv := httptest.NewServer(recv)
	defer srv.Close()

	db := &mockDB{}
	svc := NewWebhookService(db, srv.Client(), zerolog.Nop())
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any(nil)).Return(newMockRows(
		webhookScan(model.Webhook{ID: "whk_1", URL: srv.URL, Events: []string{"*"}, Secret: "s3cret", Active: true}),
	), nil)

	svc.Publish(context.Background(), model.EventTenantCreated, map[string]string{"id": "ten_1"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))

	recv.mu.Lock()
	defer recv.mu.Unlock()
	require.Len(t, recv.events, 1)
	assert.Equal(t, model.EventTenantCreated, recv.events[0].Event)
}
