package core

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/saasadmin/internal/model"
	"github.com/edvin/saasadmin/internal/platform"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Signature"

// WebhookEvent is the JSON body posted to subscribers.
type WebhookEvent struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookService stores webhook subscriptions and delivers events to them.
// It implements Publisher.
type WebhookService struct {
	db     DB
	client *http.Client
	logger zerolog.Logger

	pending sync.WaitGroup
}

func NewWebhookService(db DB, client *http.Client, logger zerolog.Logger) *WebhookService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookService{db: db, client: client, logger: logger.With().Str("component", "webhooks").Logger()}
}

func validateWebhook(w *model.Webhook) error {
	u, err := url.Parse(w.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("url must be an absolute http(s) URL")
	}
	if len(w.Events) == 0 {
		return invalid("at least one event is required")
	}
	return nil
}

func newSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return "whsec_" + hex.EncodeToString(b), nil
}

// Create stores a webhook. An empty secret is generated and returned once.
func (s *WebhookService) Create(ctx context.Context, w *model.Webhook) (string, error) {
	if err := validateWebhook(w); err != nil {
		return "", err
	}
	if w.Secret == "" {
		secret, err := newSecret()
		if err != nil {
			return "", err
		}
		w.Secret = secret
	}
	now := time.Now()
	w.ID = platform.NewName("whk_")
	w.Active = true
	w.CreatedAt, w.UpdatedAt = now, now

	_, err := s.db.Exec(ctx,
		`INSERT INTO webhooks (id, url, events, secret, active, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.URL, w.Events, w.Secret, w.Active, w.Description, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return "", dbErr("create webhook", err)
	}
	return w.Secret, nil
}

const webhookColumns = `id, url, events, secret, active, description, created_at, updated_at`

func scanWebhook(row interface{ Scan(...any) error }, w *model.Webhook) error {
	return row.Scan(&w.ID, &w.URL, &w.Events, &w.Secret, &w.Active, &w.Description, &w.CreatedAt, &w.UpdatedAt)
}

func (s *WebhookService) GetByID(ctx context.Context, id string) (*model.Webhook, error) {
	var w model.Webhook
	if err := scanWebhook(s.db.QueryRow(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE id = $1`, id), &w); err != nil {
		return nil, dbErr(fmt.Sprintf("get webhook %s", id), err)
	}
	return &w, nil
}

func (s *WebhookService) List(ctx context.Context) ([]model.Webhook, error) {
	return s.list(ctx, `SELECT `+webhookColumns+` FROM webhooks ORDER BY created_at DESC`)
}

func (s *WebhookService) list(ctx context.Context, sql string) ([]model.Webhook, error) {
	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	defer rows.Close()

	var hooks []model.Webhook
	for rows.Next() {
		var w model.Webhook
		if err := scanWebhook(rows, &w); err != nil {
			return nil, fmt.Errorf("scan webhook: %w", err)
		}
		hooks = append(hooks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhooks: %w", err)
	}
	return hooks, nil
}

// Update stores url, events, description and active. The secret is only
// replaced when a new one is given.
func (s *WebhookService) Update(ctx context.Context, w *model.Webhook) error {
	if err := validateWebhook(w); err != nil {
		return err
	}
	w.UpdatedAt = time.Now()
	tag, err := s.db.Exec(ctx,
		`UPDATE webhooks SET url = $2, events = $3, active = $4, description = $5,
		        secret = COALESCE(NULLIF($6, ''), secret), updated_at = $7
		 WHERE id = $1`,
		w.ID, w.URL, w.Events, w.Active, w.Description, w.Secret, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update webhook %s: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update webhook %s: %w", w.ID, ErrNotFound)
	}
	return nil
}

func (s *WebhookService) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM webhooks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete webhook %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete webhook %s: %w", id, ErrNotFound)
	}
	return nil
}

// Test sends a webhook.test event to one webhook and reports the outcome.
func (s *WebhookService) Test(ctx context.Context, id string) (*model.WebhookDelivery, error) {
	w, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := s.deliver(ctx, *w, newEvent(model.EventWebhookTest, map[string]string{"webhook_id": w.ID}))
	return &d, nil
}

func newEvent(event string, data any) WebhookEvent {
	return WebhookEvent{ID: platform.NewID(), Event: event, Timestamp: time.Now().UTC(), Data: data}
}

// Publish delivers the event to subscribers in the background.
func (s *WebhookService) Publish(ctx context.Context, event string, data any) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := s.Dispatch(ctx, event, data); err != nil {
			s.logger.Warn().Err(err).Str("event", event).Msg("webhook dispatch failed")
		}
	}()
}

// Wait blocks until background deliveries finish or ctx is done.
func (s *WebhookService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch delivers the event to every active subscriber concurrently and
// returns one delivery per subscriber in subscription order.
func (s *WebhookService) Dispatch(ctx context.Context, event string, data any) ([]model.WebhookDelivery, error) {
	hooks, err := s.list(ctx, `SELECT `+webhookColumns+` FROM webhooks WHERE active ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	var targets []model.Webhook
	for _, w := range hooks {
		if w.Subscribes(event) {
			targets = append(targets, w)
		}
	}

	ev := newEvent(event, data)
	deliveries := make([]model.WebhookDelivery, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, w := range targets {
		g.Go(func() error {
			deliveries[i] = s.deliver(gctx, w, ev)
			return nil
		})
	}
	_ = g.Wait()

	for _, d := range deliveries {
		if !d.Success {
			s.logger.Warn().Str("webhook_id", d.WebhookID).Str("event", event).
				Int("status", d.StatusCode).Str("error", d.Error).Msg("webhook delivery failed")
		}
	}
	return deliveries, nil
}

func (s *WebhookService) deliver(ctx context.Context, w model.Webhook, ev WebhookEvent) model.WebhookDelivery {
	start := time.Now()
	d := s.post(ctx, w, ev)
	d.Duration = time.Since(start)
	return d
}

func (s *WebhookService) post(ctx context.Context, w model.Webhook, ev WebhookEvent) model.WebhookDelivery {
	d := model.WebhookDelivery{WebhookID: w.ID, Event: ev.Event}

	payload, err := json.Marshal(ev)
	if err != nil {
		d.Error = fmt.Sprintf("encode event: %v", err)
		return d
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		d.Error = fmt.Sprintf("build request: %v", err)
		return d
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event", ev.Event)
	req.Header.Set("X-Event-ID", ev.ID)
	req.Header.Set(SignatureHeader, Sign(payload, w.Secret))

	resp, err := s.client.Do(req)
	if err != nil {
		d.Error = err.Error()
		return d
	}
	resp.Body.Close()

	d.StatusCode = resp.StatusCode
	d.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !d.Success {
		d.Error = fmt.Sprintf("non-2xx status %d", resp.StatusCode)
	}
	return d
}
