package notify

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"alert_bot/internal/models"
	"alert_bot/pkg/logger"
)

// Telegram — пассивный нотифайер: только шлёт сообщения в один чат.
// Команды обрабатывает модуль telegram, не мы.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

// Bot отдаёт низкоуровневый клиент для командного цикла.
func (t *Telegram) Bot() *tgbot.BotAPI { return t.bot }

func (t *Telegram) SendAlert(ctx context.Context, sig *models.Signal) {
	t.sendHTML(RenderAlert(sig))
}

func (t *Telegram) Send(ctx context.Context, msg string) {
	t.sendHTML(msg)
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) {
	t.sendHTML(fmt.Sprintf(format, args...))
}

func (t *Telegram) sendHTML(text string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	m := tgbot.NewMessage(t.chatID, text)
	m.ParseMode = tgbot.ModeHTML
	if _, err := t.bot.Send(m); err != nil {
		logger.Warn("telegram send: %v", err)
	}
}

// RenderAlert — текст алерта. Проценты стопа и тейка считаем от входа,
// чтобы в чате сразу был виден риск.
func RenderAlert(sig *models.Signal) string {
	var b strings.Builder

	emoji := "🟢"
	if sig.Direction == models.DirectionShort {
		emoji = "🔴"
	}

	fmt.Fprintf(&b, "🚨 <b>%s</b>\n", sig.Strategy.Title())
	fmt.Fprintf(&b, "%s %s · %s · %s\n\n", emoji, strings.ToUpper(sig.Direction.String()), sig.Symbol, sig.Timeframe)
	fmt.Fprintf(&b, "💰 Вход: <code>%.4f</code>\n", sig.Entry)
	fmt.Fprintf(&b, "🛑 Стоп: <code>%.4f</code> (%+.2f%%)\n", sig.StopLoss, pct(sig.Entry, sig.StopLoss))
	fmt.Fprintf(&b, "🎯 Тейк: <code>%.4f</code> (%+.2f%%)\n", sig.TakeProfit, pct(sig.Entry, sig.TakeProfit))
	fmt.Fprintf(&b, "📊 Плечо: x%d · Размер: %.4f", sig.Leverage, sig.Size)

	if sig.TrailingStop > 0 {
		fmt.Fprintf(&b, "\n🔒 Трейлинг: <code>%.4f</code>", sig.TrailingStop)
	}
	if len(sig.PartialExits) > 0 {
		parts := make([]string, 0, len(sig.PartialExits))
		for _, p := range sig.PartialExits {
			parts = append(parts, fmt.Sprintf("%.1f%%", p))
		}
		fmt.Fprintf(&b, "\n🪜 Частичные выходы: %s", strings.Join(parts, " / "))
	}
	if len(sig.ProfitScaling) > 0 {
		parts := make([]string, 0, len(sig.ProfitScaling))
		for _, l := range sig.ProfitScaling {
			parts = append(parts, fmt.Sprintf("%.1fR по %.0f%%", l.Threshold, l.ClosePct))
		}
		fmt.Fprintf(&b, "\n📐 Фиксация: %s", strings.Join(parts, ", "))
	}

	return b.String()
}

func pct(entry, level float64) float64 {
	if entry == 0 {
		return 0
	}
	return (level - entry) / entry * 100
}
