package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"alert_bot/internal/metrics"
	"alert_bot/internal/modules/config"
	healthsvc "alert_bot/internal/modules/health/service"
	"alert_bot/pkg/logger"
)

// Stream — WebSocket-поток закрытых свечей. Служит мониторингу:
// обновляет health-состояние и метрики, сигналы считаются по REST.
type Stream struct {
	cfg    *config.Config
	state  *healthsvc.State
	dialer *websocket.Dialer
}

func NewStream(cfg *config.Config, state *healthsvc.State) *Stream {
	return &Stream{cfg: cfg, state: state, dialer: &websocket.Dialer{}}
}

// Start крутит connect/subscribe/read с переподключением до отмены ctx.
func (s *Stream) Start(ctx context.Context) {
	channel := "candle" + s.cfg.Exchange.StreamTF

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := s.dialer.DialContext(ctx, s.cfg.Exchange.WSURL, nil)
		if err != nil {
			logger.Warn("ws dial: %v", err)
			s.state.SetWSConnected(false)
			sleepCtx(ctx, time.Second)
			continue
		}

		sub := map[string]any{
			"op": "subscribe",
			"args": []map[string]string{
				{"channel": channel, "instId": s.cfg.Symbol},
			},
		}
		if err := conn.WriteJSON(sub); err != nil {
			logger.Warn("ws subscribe: %v", err)
			_ = conn.Close()
			sleepCtx(ctx, time.Second)
			continue
		}

		s.state.SetWSConnected(true)
		logger.Info("ws: подписка %s %s", channel, s.cfg.Symbol)

		// keepalive ping каждые 20s — иначе OKX рвёт соединение
		stopPing := make(chan struct{})
		go func() {
			t := time.NewTicker(20 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-stopPing:
					return
				case <-t.C:
					_ = conn.WriteJSON(map[string]string{"op": "ping"})
				}
			}
		}()

		s.readLoop(ctx, conn, channel)
		close(stopPing)
		_ = conn.Close()
		s.state.SetWSConnected(false)

		select {
		case <-ctx.Done():
			return
		default:
			sleepCtx(ctx, time.Second)
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn, channel string) {
	stale := tickDeadline(s.cfg.Exchange.StreamTF)
	for {
		// мёртвое соединение без close-фрейма ловим дедлайном чтения
		_ = conn.SetReadDeadline(time.Now().Add(stale))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("ws read: %v", err)
			}
			return
		}

		var frame struct {
			Arg struct {
				Channel string `json:"channel"`
				InstID  string `json:"instId"`
			} `json:"arg"`
			Data [][]string `json:"data"`
		}
		if err := sonic.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Arg.Channel != channel || len(frame.Data) == 0 {
			continue
		}

		for _, row := range frame.Data {
			if len(row) < 5 {
				continue
			}
			// confirm в последнем элементе: ждём только закрытые свечи
			if row[len(row)-1] != "1" {
				continue
			}
			closep, err := strconv.ParseFloat(row[4], 64)
			if err != nil || closep <= 0 {
				continue
			}

			s.state.TouchTick(time.Now())
			metrics.WSTicks.Inc()
			metrics.LastPrice.Set(closep)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
