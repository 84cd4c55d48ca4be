package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	sig "github.com/Ianhayes66/pairsplus-bot/internal/signal"
)

const defaultStreamURL = "wss://stream.data.alpaca.markets/v2/iex"

// Stream subscribes to live minute bars over the Alpaca websocket and pushes
// them onto a channel. Disconnects are retried with exponential backoff.
type Stream struct {
	URL       string
	APIKey    string
	APISecret string
	Symbols   []string
	Log       zerolog.Logger
}

type streamMessage struct {
	Type   string    `json:"T"`
	Symbol string    `json:"S"`
	Close  float64   `json:"c"`
	Ts     time.Time `json:"t"`
	Msg    string    `json:"msg"`
}

// Run pushes bars onto the provided channel until the context is canceled.
func (s *Stream) Run(ctx context.Context, out chan<- sig.Bar) error {
	if len(s.Symbols) == 0 {
		return fmt.Errorf("stream requires at least one symbol")
	}
	url := s.URL
	if url == "" {
		url = defaultStreamURL
	}

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.consume(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.Log.Warn().Err(err).Msg("bar stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (s *Stream) consume(ctx context.Context, url string, out chan<- sig.Bar) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	auth := map[string]string{"action": "auth", "key": s.APIKey, "secret": s.APISecret}
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}
	sub := map[string]any{"action": "subscribe", "bars": s.Symbols}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	s.Log.Info().Strs("symbols", s.Symbols).Msg("connected bar stream")

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.Log.Warn().Err(err).Msg("stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var batch []streamMessage
		if err := json.Unmarshal(message, &batch); err != nil {
			s.Log.Warn().Err(err).Msg("failed to decode stream message")
			continue
		}
		for _, m := range batch {
			switch m.Type {
			case "b":
				bar := sig.Bar{Symbol: m.Symbol, Price: m.Close, Ts: m.Ts}
				select {
				case out <- bar:
				case <-ctx.Done():
					return ctx.Err()
				}
			case "error":
				return fmt.Errorf("stream error: %s", m.Msg)
			}
		}
	}
}
