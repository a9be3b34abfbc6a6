// Package health polls platform dependencies on a fixed tick and keeps a
// short history of the results.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/saasadmin/internal/metrics"
)

// Overall and per-component statuses.
const (
	StatusUp       = "up"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// HistorySize is how many snapshots are kept.
const HistorySize = 120

// Probe checks one component. Critical components take the platform down
// when they fail; the rest only degrade it.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// ComponentStatus is the result of one probe.
type ComponentStatus struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Critical  bool    `json:"critical"`
	LatencyMS float64 `json:"latency_ms"`
	Error     string  `json:"error,omitempty"`
}

// Snapshot is one polling round.
type Snapshot struct {
	Status     string            `json:"status"`
	Components []ComponentStatus `json:"components"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// Overall folds component results into a platform status.
func Overall(components []ComponentStatus) string {
	status := StatusUp
	for _, c := range components {
		if c.Status == StatusUp {
			continue
		}
		if c.Critical {
			return StatusDown
		}
		status = StatusDegraded
	}
	return status
}

// Monitor runs probes on a cron tick. Polling can be switched on and off
// while the process runs.
type Monitor struct {
	probes   []Probe
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	cron *cron.Cron

	mu      sync.Mutex
	entry   cron.EntryID
	polling bool
	history []Snapshot
	subs    map[chan Snapshot]struct{}
}

func NewMonitor(logger zerolog.Logger, interval time.Duration, probes ...Probe) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timeout := 5 * time.Second
	if interval < 2*timeout {
		timeout = interval / 2
	}
	sorted := append([]Probe(nil), probes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Monitor{
		probes:   sorted,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With().Str("component", "health").Logger(),
		now:      time.Now,
		cron:     cron.New(),
		subs:     map[chan Snapshot]struct{}{},
	}
}

// Start begins polling and runs one round right away.
func (m *Monitor) Start(ctx context.Context) error {
	m.cron.Start()
	if err := m.SetPolling(true); err != nil {
		return err
	}
	go m.Check(ctx)
	return nil
}

// Stop halts the cron scheduler and waits for a running round to finish.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
}

// SetPolling adds or removes the cron entry.
func (m *Monitor) SetPolling(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if enabled == m.polling {
		return nil
	}
	if !enabled {
		m.cron.Remove(m.entry)
		m.entry = 0
		m.polling = false
		m.logger.Info().Msg("health polling disabled")
		return nil
	}
	id, err := m.cron.AddFunc(fmt.Sprintf("@every %s", m.interval), func() {
		m.Check(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule health poll: %w", err)
	}
	m.entry = id
	m.polling = true
	m.logger.Info().Dur("interval", m.interval).Msg("health polling enabled")
	return nil
}

func (m *Monitor) Polling() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polling
}

func (m *Monitor) Interval() time.Duration { return m.interval }

// Check runs every probe concurrently, records the snapshot and pushes it
// to subscribers.
func (m *Monitor) Check(ctx context.Context) Snapshot {
	results := make([]ComponentStatus, len(m.probes))
	var g errgroup.Group
	for i, p := range m.probes {
		g.Go(func() error {
			results[i] = m.run(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	snap := Snapshot{Status: Overall(results), Components: results, CheckedAt: m.now().UTC()}
	for _, c := range results {
		up := 0.0
		if c.Status == StatusUp {
			up = 1
		}
		metrics.ComponentUp.WithLabelValues(c.Name).Set(up)
		metrics.ComponentLatency.WithLabelValues(c.Name).Set(c.LatencyMS / 1000)
	}
	if snap.Status != StatusUp {
		m.logger.Warn().Str("status", snap.Status).Msg("platform health check")
	}
	m.record(snap)
	return snap
}

func (m *Monitor) run(ctx context.Context, p Probe) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := p.Check(ctx)
	res := ComponentStatus{
		Name:      p.Name,
		Status:    StatusUp,
		Critical:  p.Critical,
		LatencyMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		res.Status = StatusDown
		res.Error = err.Error()
	}
	return res
}

func (m *Monitor) record(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, snap)
	if len(m.history) > HistorySize {
		m.history = append([]Snapshot(nil), m.history[len(m.history)-HistorySize:]...)
	}
	for ch := range m.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Latest returns the most recent snapshot.
func (m *Monitor) Latest() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return Snapshot{}, false
	}
	return m.history[len(m.history)-1], true
}

// History returns the kept snapshots, oldest first.
func (m *Monitor) History() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Snapshot(nil), m.history...)
}

// Subscribe returns a channel receiving each new snapshot and a function
// that unsubscribes and closes it. Slow readers miss snapshots.
func (m *Monitor) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 4)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// PingProbe wraps a ping function.
func PingProbe(name string, critical bool, ping func(ctx context.Context) error) Probe {
	return Probe{Name: name, Critical: critical, Check: ping}
}

// HTTPProbe expects a 2xx or 3xx answer from url.
func HTTPProbe(name, url string, client *http.Client) Probe {
	if client == nil {
		client = http.DefaultClient
	}
	return Probe{Name: name, Check: func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}}
}
