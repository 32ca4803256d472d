// Package netmon tracks whether the remote service is reachable.
//
// Reachability is the conjunction of two signals: the transport being up
// (an OS-level or caller-provided hint) and the latest liveness probe
// succeeding. Consumers either poll [Monitor.Online] or subscribe for
// edge-triggered notifications that fire only when the derived state
// actually flips.
package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-list-keeper/internal/config"
	"github.com/MKhiriev/go-list-keeper/internal/logger"
)

//go:generate mockgen -source=monitor.go -destination=../mock/netmon_mock.go -package=mock

// Prober issues one liveness probe against the remote service. The adapter's
// Ping method satisfies it.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor is the connectivity oracle of the client. Start launches the
// periodic probe loop; the monitor is offline until the first probe succeeds.
type Monitor interface {
	Start(ctx context.Context)
	Stop()

	// Online reports the current derived state: transport up AND last probe ok.
	Online() bool

	// SetTransportUp feeds the transport-level signal. Lowering it flips the
	// monitor offline immediately without waiting for a probe to fail.
	SetTransportUp(up bool)

	// Probe runs one probe immediately, outside the periodic cadence. The
	// sync driver calls it after a request-level failure so the state catches
	// up without waiting a full interval.
	Probe(ctx context.Context)

	// Subscribe returns a buffered channel that receives the new online state
	// on every flip. Notifications are edge-triggered; a slow consumer misses
	// intermediate flips, never the latest poll via Online.
	Subscribe() <-chan bool

	Unsubscribe(ch <-chan bool)
}

type networkMonitor struct {
	prober Prober
	logger *logger.Logger

	probeInterval time.Duration
	probeTimeout  time.Duration

	mu          sync.Mutex
	transportUp bool
	probeOK     bool
	online      bool
	subs        map[chan bool]struct{}
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewMonitor constructs a [Monitor] probing through prober at the cadence in
// cfg. The transport signal starts up; the probe signal starts down, so the
// monitor reports offline until the first successful probe.
func NewMonitor(prober Prober, cfg config.ClientNetwork, logger *logger.Logger) Monitor {
	return &networkMonitor{
		prober:        prober,
		logger:        logger,
		probeInterval: cfg.ProbeInterval,
		probeTimeout:  cfg.ProbeTimeout,
		transportUp:   true,
		subs:          make(map[chan bool]struct{}),
	}
}

// Start implements [Monitor]. It stops any previously running loop, then
// launches a background goroutine that probes immediately and on every tick.
// The goroutine exits when ctx is cancelled or Stop is called.
func (m *networkMonitor) Start(ctx context.Context) {
	interval := m.probeInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	m.Stop()

	m.mu.Lock()
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		m.Probe(loopCtx)

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-t.C:
				m.Probe(loopCtx)
			}
		}
	}()
}

// Stop implements [Monitor]. It cancels the probe loop and blocks until the
// goroutine has fully exited. Safe to call when the loop is not running.
func (m *networkMonitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *networkMonitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *networkMonitor) SetTransportUp(up bool) {
	m.mu.Lock()
	m.transportUp = up
	m.recomputeLocked()
	m.mu.Unlock()
}

// Probe implements [Monitor]. A probe that exceeds the configured timeout
// counts as a failed probe, not as an error.
func (m *networkMonitor) Probe(ctx context.Context) {
	timeout := m.probeTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := m.prober.Ping(probeCtx)

	m.mu.Lock()
	m.probeOK = err == nil
	m.recomputeLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.Debug().
			Str("func", "networkMonitor.Probe").
			Err(err).
			Msg("liveness probe failed")
	}
}

func (m *networkMonitor) Subscribe() <-chan bool {
	ch := make(chan bool, 1)

	m.mu.Lock()
	m.subs[ch] = struct{}{}
	m.mu.Unlock()

	return ch
}

func (m *networkMonitor) Unsubscribe(ch <-chan bool) {
	m.mu.Lock()
	for sub := range m.subs {
		if sub == ch {
			delete(m.subs, sub)
			close(sub)
			break
		}
	}
	m.mu.Unlock()
}

// recomputeLocked derives the online state and notifies subscribers on a
// flip. Caller holds m.mu.
func (m *networkMonitor) recomputeLocked() {
	online := m.transportUp && m.probeOK
	if online == m.online {
		return
	}
	m.online = online

	m.logger.Info().
		Str("func", "networkMonitor.recomputeLocked").
		Bool("online", online).
		Msg("connectivity state changed")

	for sub := range m.subs {
		// drop the stale notification if the subscriber hasn't drained it yet
		select {
		case <-sub:
		default:
		}
		select {
		case sub <- online:
		default:
		}
	}
}
