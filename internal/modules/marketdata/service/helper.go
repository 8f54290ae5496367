package service

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// okxBar — наш таймфрейм в обозначение OKX ("1h" -> "1H").
func okxBar(tf string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tf)) {
	case "1m", "3m", "5m", "15m", "30m":
		return strings.ToLower(strings.TrimSpace(tf)), nil
	case "1h":
		return "1H", nil
	case "2h":
		return "2H", nil
	case "4h":
		return "4H", nil
	case "1d":
		return "1D", nil
	}
	return "", errors.Errorf("неизвестный таймфрейм для OKX: %q", tf)
}

// tickDeadline — сколько терпим молчание сокета: интервал свечи канала,
// но не меньше минуты (pong и промежуточные тики приходят чаще).
func tickDeadline(tf string) time.Duration {
	if d := timeframeToDuration(tf); d > time.Minute {
		return d
	}
	return time.Minute
}

func timeframeToDuration(tf string) time.Duration {
	switch tf {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return 0
	}
}
