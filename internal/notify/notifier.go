package notify

import (
	"context"
	"fmt"

	"alert_bot/internal/models"
	"alert_bot/pkg/logger"
)

// Notifier — доставка алертов и служебных сообщений.
type Notifier interface {
	SendAlert(ctx context.Context, sig *models.Signal)
	Send(ctx context.Context, msg string)
	Sendf(ctx context.Context, format string, args ...any)
}

// Console — запасной вариант без телеграм-токена: всё в лог.
type Console struct{}

func NewConsole() *Console { return &Console{} }

func (c *Console) SendAlert(ctx context.Context, sig *models.Signal) {
	logger.Info("АЛЕРТ %s %s %s: вход %.4f стоп %.4f тейк %.4f размер %.4f",
		sig.Strategy, sig.Direction, sig.Symbol,
		sig.Entry, sig.StopLoss, sig.TakeProfit, sig.Size)
}

func (c *Console) Send(ctx context.Context, msg string) {
	logger.Info("уведомление: %s", msg)
}

func (c *Console) Sendf(ctx context.Context, format string, args ...any) {
	c.Send(ctx, fmt.Sprintf(format, args...))
}
