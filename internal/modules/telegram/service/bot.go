package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"alert_bot/internal/models"
	enginesvc "alert_bot/internal/modules/engine/service"
	healthsvc "alert_bot/internal/modules/health/service"
	"alert_bot/pkg/logger"
)

// Controller — то, чем мы управляем из чата.
type Controller interface {
	Snapshot() []enginesvc.StateSnapshot
	Enable(models.StrategyName) bool
	Disable(models.StrategyName) bool
}

// Bot — командный цикл: /status, /states, /enable, /disable, /help.
type Bot struct {
	bot    *tgbot.BotAPI
	chatID int64
	ctl    Controller
	state  *healthsvc.State
	symbol string
}

func NewBot(bot *tgbot.BotAPI, chatID int64, ctl Controller, state *healthsvc.State, symbol string) *Bot {
	return &Bot{bot: bot, chatID: chatID, ctl: ctl, state: state, symbol: symbol}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30

	updates := b.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				b.handleUpdate(ctx, upd)
			}
		}
	}()
}

func (b *Bot) Stop() {
	b.bot.StopReceivingUpdates()
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbot.Update) {
	msg := upd.Message
	if msg == nil || !msg.IsCommand() {
		return
	}
	// чужие чаты игнорируем
	if b.chatID != 0 && msg.Chat.ID != b.chatID {
		return
	}

	switch msg.Command() {
	case "status":
		b.reply(msg.Chat.ID, b.renderStatus())
	case "states":
		b.reply(msg.Chat.ID, b.renderStates())
	case "enable":
		b.toggle(msg.Chat.ID, msg.CommandArguments(), true)
	case "disable":
		b.toggle(msg.Chat.ID, msg.CommandArguments(), false)
	case "help", "start":
		b.reply(msg.Chat.ID, helpText)
	default:
		b.reply(msg.Chat.ID, "Неизвестная команда, смотри /help")
	}
}

const helpText = `Команды:
/status — аптайм, стрим, счётчик алертов
/states — состояния стратегий
/enable <стратегия> — включить
/disable <стратегия> — выключить
/help — эта справка

Стратегии: conservative, moderate, aggressive`

func (b *Bot) renderStatus() string {
	ws := "❌"
	if b.state.WSConnected() {
		ws = "✅"
	}
	last := "—"
	if t := b.state.LastAlert(); !t.IsZero() {
		last = t.UTC().Format("02.01 15:04 UTC")
	}
	return fmt.Sprintf(
		"📡 <b>Статус</b>\n"+
			"Символ: %s\n"+
			"Аптайм: %s\n"+
			"WS-стрим: %s\n"+
			"Алертов: %d\n"+
			"Последний: %s",
		b.symbol,
		b.state.Uptime().Round(time.Second),
		ws,
		b.state.AlertsFired(),
		last,
	)
}

func (b *Bot) renderStates() string {
	var sb strings.Builder
	sb.WriteString("🧭 <b>Стратегии</b>\n")
	for _, s := range b.ctl.Snapshot() {
		on := "🔇 выкл"
		if s.Enabled {
			on = "🔔 вкл"
		}
		active := "ожидание"
		if s.Active != models.DirectionNone {
			active = "активен " + strings.ToUpper(s.Active.String())
		}
		fmt.Fprintf(&sb, "\n<b>%s</b> — %s\n%s", s.Strategy.Title(), on, active)
		if !s.LastAlert.IsZero() {
			fmt.Fprintf(&sb, " · последний %s", s.LastAlert.UTC().Format("02.01 15:04"))
		}
		if s.Trailing > 0 {
			fmt.Fprintf(&sb, "\nтрейлинг: %.4f", s.Trailing)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *Bot) toggle(chatID int64, arg string, enable bool) {
	name, ok := resolveStrategy(arg)
	if !ok {
		b.reply(chatID, "Не знаю такую стратегию: "+arg)
		return
	}
	var done bool
	if enable {
		done = b.ctl.Enable(name)
	} else {
		done = b.ctl.Disable(name)
	}
	if !done {
		b.reply(chatID, "Стратегия не зарегистрирована: "+string(name))
		return
	}
	verb := "выключена"
	if enable {
		verb = "включена"
	}
	b.reply(chatID, fmt.Sprintf("%s %s", name.Title(), verb))
}

func resolveStrategy(arg string) (models.StrategyName, bool) {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "conservative", string(models.StrategyConservative):
		return models.StrategyConservative, true
	case "moderate", string(models.StrategyModerate):
		return models.StrategyModerate, true
	case "aggressive", string(models.StrategyAggressive):
		return models.StrategyAggressive, true
	}
	return "", false
}

func (b *Bot) reply(chatID int64, text string) {
	m := tgbot.NewMessage(chatID, text)
	m.ParseMode = tgbot.ModeHTML
	if _, err := b.bot.Send(m); err != nil {
		logger.Warn("telegram reply: %v", err)
	}
}
