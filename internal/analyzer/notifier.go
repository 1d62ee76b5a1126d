package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

// Notifier delivers alerts and shortlists.
type Notifier interface {
	SendValueAlerts(ctx context.Context, alerts []ValueAlert) error
	SendShortlist(ctx context.Context, shortlist []ScreenedFixture) error
}

// botSender is the part of tgbotapi.BotAPI the notifier uses.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends value alerts and shortlists to one Telegram chat.
// Messages are sent synchronously and spaced by telegramSendInterval.
type TelegramNotifier struct {
	bot      botSender
	chatID   int64
	interval time.Duration

	mu       sync.Mutex
	lastSend time.Time
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier creates a notifier and checks the bot token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	slog.Info("Telegram notifier initialized", "chat_id", chatID, "bot", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, chatID: chatID, interval: telegramSendInterval}, nil
}

// SendValueAlerts sends one message per watched fixture with its value markets.
func (n *TelegramNotifier) SendValueAlerts(ctx context.Context, alerts []ValueAlert) error {
	for _, text := range formatValueAlerts(alerts) {
		if err := n.send(ctx, text); err != nil {
			return err
		}
		alertsSent.WithLabelValues("value").Inc()
	}
	return nil
}

// SendShortlist sends the screener shortlist as a single message.
func (n *TelegramNotifier) SendShortlist(ctx context.Context, shortlist []ScreenedFixture) error {
	if len(shortlist) == 0 {
		return nil
	}
	if err := n.send(ctx, formatShortlist(shortlist)); err != nil {
		return err
	}
	alertsSent.WithLabelValues("shortlist").Inc()
	return nil
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if elapsed := time.Since(n.lastSend); elapsed < n.interval {
		wait := n.interval - elapsed
		slog.Debug("Telegram send: waiting for rate limit", "wait_time", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	start := time.Now()
	_, err := n.bot.Send(msg)
	n.lastSend = time.Now()
	if err != nil {
		slog.Error("Telegram send: failed", "error", err, "message_preview", truncateString(text, 50))
		return fmt.Errorf("telegram send: %w", err)
	}
	slog.Info("Telegram send: success", "send_duration", time.Since(start), "message_preview", truncateString(text, 50))
	return nil
}

// formatValueAlerts groups alerts by fixture, keeping first-seen order.
func formatValueAlerts(alerts []ValueAlert) []string {
	var (
		order  []string
		byName = map[string][]ValueAlert{}
	)
	for _, a := range alerts {
		if _, ok := byName[a.Entry.Label]; !ok {
			order = append(order, a.Entry.Label)
		}
		byName[a.Entry.Label] = append(byName[a.Entry.Label], a)
	}

	out := make([]string, 0, len(order))
	for _, label := range order {
		var b strings.Builder
		b.WriteString("*Value bet: " + escapeMarkdown(label) + "*\n")
		for _, a := range byName[label] {
			line := fmt.Sprintf("- %s: %.1f%% prob | EV %.2f @ %.2f", a.Market.Label(), a.Probability, a.ExpectedValue, a.ReferenceOdd)
			b.WriteString(escapeMarkdown(line) + "\n")
		}
		out = append(out, b.String())
	}
	return out
}

func formatShortlist(shortlist []ScreenedFixture) string {
	var b strings.Builder
	b.WriteString("*Shortlist: Under 3.5 / Over 0.5*\n")
	for i, f := range shortlist {
		line := fmt.Sprintf("%d. %s vs %s (%s, %s) U3.5 %.1f%% | O0.5 %.1f%%",
			i+1, f.HomeTeam, f.AwayTeam, f.Competition, formatTime(f.Kickoff), f.ProbUnder35, f.ProbOver05)
		b.WriteString(escapeMarkdown(line) + "\n")
	}
	return b.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format("02.01 15:04 UTC")
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func escapeMarkdown(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, text)
}
