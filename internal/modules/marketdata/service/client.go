package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"alert_bot/internal/metrics"
	"alert_bot/internal/models"
	"alert_bot/internal/modules/config"
	"alert_bot/pkg/logger"
	"alert_bot/pkg/tracing"
)

// Client — REST-клиент рыночных данных OKX. Только чтение свечей,
// приватные эндпоинты не трогаем.
type Client struct {
	cfg  *config.Config
	http *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Exchange.Timeout},
	}
}

type candleResp struct {
	Code string     `json:"code"`
	Msg  string     `json:"msg"`
	Data [][]string `json:"data"`
}

// Candles — последние закрытые свечи, от старых к новым.
// Повторяет запрос при сетевых ошибках, валидирует качество ряда.
func (c *Client) Candles(ctx context.Context, instID, tf string, limit int) (models.Series, error) {
	span, ctx := tracing.StartSpan(ctx, "marketdata.candles")
	defer span.Finish()

	bar, err := okxBar(tf)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		c.cfg.Exchange.RestURL, instID, bar, limit)

	var lastErr error
	attempts := c.cfg.Exchange.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.Exchange.RetryDelay):
			}
		}

		series, err := c.fetchOnce(ctx, url, tf)
		if err == nil {
			metrics.CandleFetches.WithLabelValues(tf, "ok").Inc()
			return series, nil
		}
		lastErr = err
		metrics.CandleFetches.WithLabelValues(tf, "error").Inc()
		logger.Warn("свечи %s %s: попытка %d/%d: %v", instID, tf, attempt, attempts, err)
	}
	return nil, errors.Wrapf(lastErr, "свечи %s %s", instID, tf)
}

func (c *Client) fetchOnce(ctx context.Context, url, tf string) (models.Series, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("okx http %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var wrap candleResp
	if err := sonic.Unmarshal(body, &wrap); err != nil {
		return nil, errors.Wrap(err, "decode candles")
	}
	if wrap.Code != "0" {
		return nil, errors.Errorf("okx error: code=%s msg=%s", wrap.Code, wrap.Msg)
	}

	series, err := parseRows(wrap.Data)
	if err != nil {
		return nil, err
	}
	if err := validateSeries(series); err != nil {
		return nil, err
	}
	return series, nil
}

// parseRows — строки OKX (от новых к старым) в Series от старых к новым.
// формат: [ts, o, h, l, c, vol, ...]; у history-эндпоинтов хвостом идёт
// confirm — незакрытую свечу выбрасываем.
func parseRows(rows [][]string) (models.Series, error) {
	out := make(models.Series, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 6 {
			continue
		}
		if len(row) >= 9 && row[len(row)-1] == "0" {
			continue
		}

		tsMs, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "candle ts")
		}
		open, err1 := strconv.ParseFloat(row[1], 64)
		high, err2 := strconv.ParseFloat(row[2], 64)
		low, err3 := strconv.ParseFloat(row[3], 64)
		closep, err4 := strconv.ParseFloat(row[4], 64)
		vol, err5 := strconv.ParseFloat(row[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return nil, errors.New("candle ohlcv not numeric")
		}

		out = append(out, models.Candle{
			Ts:     time.UnixMilli(tsMs).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closep,
			Volume: vol,
		})
	}
	return out, nil
}
