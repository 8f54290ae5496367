package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"alert_bot/internal/models"
	"alert_bot/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS alerts (
	id          BIGSERIAL PRIMARY KEY,
	strategy    TEXT        NOT NULL,
	direction   TEXT        NOT NULL,
	symbol      TEXT        NOT NULL,
	timeframe   TEXT        NOT NULL,
	entry       DOUBLE PRECISION NOT NULL,
	stop_loss   DOUBLE PRECISION NOT NULL,
	take_profit DOUBLE PRECISION NOT NULL,
	leverage    INT         NOT NULL,
	size        DOUBLE PRECISION NOT NULL,
	fired_at    TIMESTAMPTZ NOT NULL
)`

// Journal — журнал алертов в postgres. Без DSN работает вхолостую:
// бот жить без базы умеет, история — приятный бонус.
type Journal struct {
	tm *db.PgTxManager
}

func NewJournal(tm *db.PgTxManager) *Journal {
	return &Journal{tm: tm}
}

func (j *Journal) Enabled() bool { return j.tm != nil }

// EnsureSchema создаёт таблицу при старте.
func (j *Journal) EnsureSchema(ctx context.Context) error {
	if !j.Enabled() {
		return nil
	}
	_, err := j.tm.Conn().Exec(ctx, schema)
	return errors.Wrap(err, "alerts schema")
}

func (j *Journal) SaveAlert(ctx context.Context, sig *models.Signal) error {
	if !j.Enabled() {
		return nil
	}
	return j.tm.Run(ctx, func(ctx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO alerts
				(strategy, direction, symbol, timeframe, entry, stop_loss, take_profit, leverage, size, fired_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			string(sig.Strategy), sig.Direction.String(), sig.Symbol, sig.Timeframe,
			sig.Entry, sig.StopLoss, sig.TakeProfit, sig.Leverage, sig.Size, sig.At,
		)
		return err
	})
}

// CountSince — сколько алертов с момента since, в разрезе стратегий.
func (j *Journal) CountSince(ctx context.Context, since time.Time) (map[models.StrategyName]int, error) {
	out := make(map[models.StrategyName]int)
	if !j.Enabled() {
		return out, nil
	}
	rows, err := j.tm.Conn().Query(ctx,
		`SELECT strategy, COUNT(*) FROM alerts WHERE fired_at >= $1 GROUP BY strategy`, since)
	if err != nil {
		return nil, errors.Wrap(err, "count alerts")
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[models.StrategyName(name)] = n
	}
	return out, rows.Err()
}
