package exchange

import (
	"context"
	"time"

	"grid_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	DefaultPublicWS = "wss://ws.okx.com:8443/ws/v5/public"
	tickersChannel  = "tickers"
)

// Tick: последняя цена инструмента.
type Tick struct {
	InstID string
	Last   decimal.Decimal
	At     time.Time
}

type Stream struct {
	url       string
	dialer    *websocket.Dialer
	pingEvery time.Duration
	retry     time.Duration
	// OnState вызывается при подключении (true) и обрыве (false).
	OnState func(connected bool)
}

func NewStream(url string) *Stream {
	if url == "" {
		url = DefaultPublicWS
	}
	return &Stream{
		url:       url,
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		pingEvery: 20 * time.Second,
		retry:     time.Second,
	}
}

func (s *Stream) setState(v bool) {
	if s.OnState != nil {
		s.OnState(v)
	}
}

type tickerFrame struct {
	Arg struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data []struct {
		InstID string `json:"instId"`
		Last   string `json:"last"`
		Ts     string `json:"ts"`
	} `json:"data"`
}

// StreamTickers держит одно соединение на все instIDs и переподключается до отмены ctx.
func (s *Stream) StreamTickers(ctx context.Context, instIDs []string) <-chan Tick {
	ch := make(chan Tick)

	go func() {
		defer close(ch)

		if len(instIDs) == 0 {
			return
		}

		args := make([]map[string]string, 0, len(instIDs))
		for _, id := range instIDs {
			args = append(args, map[string]string{
				"channel": tickersChannel,
				"instId":  id,
			})
		}

		for {
			if err := s.session(ctx, args, ch); err != nil {
				logger.Error("[WS] %s: %v", tickersChannel, err)
			}
			s.setState(false)

			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retry):
			}
		}
	}()

	return ch
}

func (s *Stream) session(ctx context.Context, args []map[string]string, ch chan<- Tick) error {
	logger.Info("[WS] connect %s %d symbols", tickersChannel, len(args))
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"op": "subscribe", "args": args}); err != nil {
		return err
	}
	s.setState(true)

	done := make(chan struct{})
	defer close(done)

	// keepalive каждые 20s, иначе OKX рвёт соединение
	go func() {
		t := time.NewTicker(s.pingEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-done:
				return
			case <-t.C:
				_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		for _, tick := range parseTickers(msg) {
			select {
			case ch <- tick:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func parseTickers(msg []byte) []Tick {
	if string(msg) == "pong" {
		return nil
	}

	var frame tickerFrame
	if err := sonic.Unmarshal(msg, &frame); err != nil {
		return nil
	}
	if frame.Arg.Channel != tickersChannel {
		return nil
	}

	out := make([]Tick, 0, len(frame.Data))
	for _, row := range frame.Data {
		last, err := decimal.NewFromString(row.Last)
		if err != nil || !last.IsPositive() {
			continue
		}
		at := time.Now()
		if ms, err := decimal.NewFromString(row.Ts); err == nil {
			at = time.UnixMilli(ms.IntPart())
		}
		id := row.InstID
		if id == "" {
			id = frame.Arg.InstID
		}
		out = append(out, Tick{InstID: id, Last: last, At: at})
	}
	return out
}
