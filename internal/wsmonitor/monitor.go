// Package wsmonitor is the long-lived WebSocket subscription to an
// account's lamport balance (C2), grounded on
// original_source/app/core/ws_hub.go's WsHub (_runner/_subscribe_account/
// _read_loop/_ping_loop/_should_emit), reimplemented over
// github.com/gorilla/websocket with Go goroutines/channels standing in for
// the original's cooperative asyncio tasks.
package wsmonitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gagliardetto/solana-go"

	"github.com/blackhole-labs/solcycle/internal/agentlog"
	"github.com/blackhole-labs/solcycle/internal/metrics"
)

const (
	readIdleTimeout = 1 * time.Second
	pingInterval    = 20 * time.Second
	reconnectMin    = 500 * time.Millisecond
	reconnectMax    = 10 * time.Second
)

// OnChange is invoked whenever the subscribed account's lamport field
// changes. The first observation always emits; subsequent emissions only on
// change. Handler panics are recovered and logged — they must never tear
// down the subscription.
type OnChange func(lamports uint64)

// Monitor holds the WS endpoint and ambient logger.
type Monitor struct {
	wsURL string
	log   *agentlog.Sink
}

// New builds a Monitor against the given websocket RPC endpoint.
func New(wsURL string, log *agentlog.Sink) *Monitor {
	if log == nil {
		log = agentlog.Default()
	}
	return &Monitor{wsURL: wsURL, log: log}
}

// MonitorAccountLamports runs until stop is closed or ctx is cancelled.
// Commitment defaults to "processed" when empty.
func (m *Monitor) MonitorAccountLamports(ctx context.Context, pubkey solana.PublicKey, onChange OnChange, stop <-chan struct{}, commitment string) error {
	if commitment == "" {
		commitment = "processed"
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		err := m.runOnce(ctx, pubkey, onChange, stop, commitment)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		metrics.WSReconnectsTotal.Inc()
		delay := jitterDelay(reconnectMin, reconnectMax)
		m.log.Alert("ws monitor for %s disconnected, reconnecting in %s: %v", pubkey, delay, err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		}
	}
}

// jitterDelay returns a delay in [min*1.5, max*2.2], matching the spec's
// reconnect backoff bound.
func jitterDelay(min, max time.Duration) time.Duration {
	lo := float64(min) * 1.5
	hi := float64(max) * 2.2
	return time.Duration(lo + rand.Float64()*(hi-lo))
}

type subscribeRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type accountNotification struct {
	Params struct {
		Result struct {
			Value struct {
				Lamports *uint64 `json:"lamports"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (m *Monitor) runOnce(parent context.Context, pubkey solana.PublicKey, onChange OnChange, stop <-chan struct{}, commitment string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(parent, m.wsURL, nil)
	if err != nil {
		return fmt.Errorf("wsmonitor: dial: %w", err)
	}
	defer conn.Close()

	req := subscribeRequest{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "accountSubscribe",
		Params: []any{
			pubkey.String(),
			map[string]any{"encoding": "jsonParsed", "commitment": commitment},
		},
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("wsmonitor: subscribe: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	errCh := make(chan error, 2)
	go m.readLoop(ctx, conn, onChange, errCh)
	go m.pingLoop(ctx, conn, errCh)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		return nil
	case <-parent.Done():
		return parent.Err()
	}
}

// dedup tracks whether a newly-observed lamport value should be emitted:
// the first observation always emits, later ones only on change. Grounded
// in ws_hub.py's _should_emit.
type dedup struct {
	haveSeen atomic.Bool
	lastSeen atomic.Uint64
}

func (d *dedup) ShouldEmit(lamports uint64) bool {
	emit := !d.haveSeen.Load() || d.lastSeen.Load() != lamports
	d.lastSeen.Store(lamports)
	d.haveSeen.Store(true)
	return emit
}

func (m *Monitor) readLoop(ctx context.Context, conn *websocket.Conn, onChange OnChange, errCh chan<- error) {
	var dd dedup

	for {
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			if ok := isTimeout(err, &netErr); ok {
				continue
			}
			errCh <- fmt.Errorf("wsmonitor: read: %w", err)
			return
		}

		var notif accountNotification
		if err := json.Unmarshal(data, &notif); err != nil {
			continue
		}
		if notif.Params.Result.Value.Lamports == nil {
			continue
		}
		lamports := *notif.Params.Result.Value.Lamports

		if dd.ShouldEmit(lamports) {
			m.invokeOnChange(onChange, lamports)
		}
	}
}

// invokeOnChange recovers from handler panics: they are logged and
// swallowed, never allowed to tear down the subscription.
func (m *Monitor) invokeOnChange(onChange OnChange, lamports uint64) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Alert("wsmonitor: on_change handler panicked: %v", r)
		}
	}()
	onChange(lamports)
}

func (m *Monitor) pingLoop(ctx context.Context, conn *websocket.Conn, errCh chan<- error) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				errCh <- fmt.Errorf("wsmonitor: ping: %w", err)
				return
			}
		}
	}
}

func isTimeout(err error, netErr *net.Error) bool {
	ne, ok := err.(net.Error)
	if ok {
		*netErr = ne
		return ne.Timeout()
	}
	return false
}
