package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/ecosan/sanitrack/internal/pkg/logger"
)

// ClientChangeChannel is the NOTIFY channel fired by the row trigger on the
// clients table (see migrations/001_init.sql).
const ClientChangeChannel = "clients_changed"

// ClientChangeFeed implements client.ChangeFeed over Postgres LISTEN/NOTIFY.
// Notification payloads are ignored: any event is only a signal to reload.
type ClientChangeFeed struct {
	dsn          string
	minReconnect time.Duration
	maxReconnect time.Duration
	pingEvery    time.Duration
}

// NewClientChangeFeed creates a change feed that listens on the given DSN.
func NewClientChangeFeed(dsn string) *ClientChangeFeed {
	return &ClientChangeFeed{
		dsn:          dsn,
		minReconnect: 10 * time.Second,
		maxReconnect: time.Minute,
		pingEvery:    90 * time.Second,
	}
}

// Subscribe opens the listener and delivers coalesced change signals until
// ctx is cancelled. The returned channel is closed on teardown so readers
// can distinguish shutdown from silence.
func (f *ClientChangeFeed) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	listener := pq.NewListener(f.dsn, f.minReconnect, f.maxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("change feed listener event", "event", int(ev), "error", err)
			}
		})

	if err := listener.Listen(ClientChangeChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("listen %s: %w", ClientChangeChannel, err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Notify:
				// A nil notification after a reconnect also lands here; the
				// snapshot may be stale either way, so both signal a reload.
				select {
				case ch <- struct{}{}:
				default:
					// A reload signal is already pending; coalesce.
				}
			case <-time.After(f.pingEvery):
				go func() {
					if err := listener.Ping(); err != nil {
						logger.Warn("change feed ping failed", "error", err)
					}
				}()
			}
		}
	}()

	return ch, nil
}
