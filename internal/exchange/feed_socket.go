package exchange

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/surgelove/vibe-trader/internal/metrics"
	"github.com/surgelove/vibe-trader/internal/signal"
)

// SocketSource reads one JSON record per websocket message and reconnects after a fixed
// interval whenever the connection fails or closes. Retries are unbounded.
type SocketSource struct {
	uri       string
	reconnect time.Duration
	log       zerolog.Logger
	dialer    websocket.Dialer
	lc        lifecycle

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewSocketSource targets uri; a non-positive reconnect interval falls back to 5s.
func NewSocketSource(uri string, reconnect time.Duration, log zerolog.Logger) *SocketSource {
	if reconnect <= 0 {
		reconnect = defaultReconnectInterval
	}
	return &SocketSource{
		uri:       uri,
		reconnect: reconnect,
		log:       log,
		dialer:    websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Name identifies the source in logs and metrics.
func (s *SocketSource) Name() string { return ProviderSocket }

// Start connects and delivers observations until stopped.
func (s *SocketSource) Start(ctx context.Context, deliver DeliverFunc) error {
	stop := s.lc.begin()
	defer s.lc.end(stop)

	for {
		if ended, err := done(ctx, stop); ended {
			return err
		}
		err := s.consume(ctx, stop, deliver)
		if ended, ctxErr := done(ctx, stop); ended {
			return ctxErr
		}
		if err != nil {
			s.log.Warn().Err(err).Str("uri", s.uri).Msg("socket feed disconnected")
		}
		metrics.ReconnectsTotal.WithLabelValues(ProviderSocket).Inc()
		s.log.Info().Dur("in", s.reconnect).Msg("reconnecting")
		if !sleep(ctx, stop, s.reconnect) {
			_, ctxErr := done(ctx, stop)
			return ctxErr
		}
	}
}

// Stop ends the run and closes the live connection so a pending read returns.
func (s *SocketSource) Stop() {
	s.log.Info().Msg("stopping socket listener")
	s.lc.halt()
	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.mu.Unlock()
}

func (s *SocketSource) consume(ctx context.Context, stop <-chan struct{}, deliver DeliverFunc) error {
	s.log.Info().Str("uri", s.uri).Msg("connecting to socket feed")
	conn, _, err := s.dialer.DialContext(ctx, s.uri, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.uri, err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		_ = conn.Close()
		s.conn = nil
		s.mu.Unlock()
	}()

	// a stop that raced the dial is not seen by Stop's Close
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-stop:
		case <-ctx.Done():
		case <-watchDone:
			return
		}
		_ = conn.Close()
	}()

	s.log.Info().Str("uri", s.uri).Msg("socket feed connected")
	conn.SetReadLimit(1 << 20)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if ended, _ := done(ctx, stop); ended {
			return nil
		}
		obs, err := signal.ParseObservation(message)
		if err != nil {
			malformed(s.log, ProviderSocket, err)
			continue
		}
		s.log.Debug().Stringer("obs", obs).Msg("received observation")
		safeDeliver(s.log, ProviderSocket, deliver, obs)
	}
}
