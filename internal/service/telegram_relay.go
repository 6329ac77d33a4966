package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"github.com/noah-isme/pa-broadcaster/internal/models"
)

const telegramRelayID = "telegram-relay"

type telegramSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramRelayConfig configures the Telegram mirror.
type TelegramRelayConfig struct {
	Token      string
	ChatIDs    []int64
	RatePerSec int
	Buffer     int
}

// TelegramRelay is a Subscriber that mirrors announcements into Telegram chats.
type TelegramRelay struct {
	sender  telegramSender
	chatIDs []int64
	limiter *rate.Limiter
	queue   *ChannelSubscriber
	logger  *zap.Logger

	wg sync.WaitGroup
}

// NewTelegramRelay connects a bot for the configured token.
func NewTelegramRelay(cfg TelegramRelayConfig, logger *zap.Logger) (*TelegramRelay, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if len(cfg.ChatIDs) == 0 {
		return nil, errors.New("telegram relay needs at least one chat id")
	}
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return newTelegramRelay(bot, cfg, logger), nil
}

func newTelegramRelay(sender telegramSender, cfg TelegramRelayConfig, logger *zap.Logger) *TelegramRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	return &TelegramRelay{
		sender:  sender,
		chatIDs: append([]int64(nil), cfg.ChatIDs...),
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		queue:   NewChannelSubscriber(cfg.Buffer),
		logger:  logger,
	}
}

// ID implements Subscriber.
func (r *TelegramRelay) ID() string {
	return telegramRelayID
}

// Send implements Subscriber. Only announcements are relayed.
func (r *TelegramRelay) Send(msg models.StreamMessage) bool {
	if msg.Event != models.EventNewAnnouncement {
		return true
	}
	return r.queue.Send(msg)
}

// Close implements Subscriber.
func (r *TelegramRelay) Close() {
	r.queue.Close()
}

// Start drains the queue in the background until ctx ends or the relay is closed.
func (r *TelegramRelay) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.queue.Done():
				return
			case msg := <-r.queue.Messages():
				event, ok := msg.Data.(models.BroadcastEvent)
				if !ok {
					continue
				}
				r.deliver(ctx, formatTelegramAnnouncement(event))
			}
		}
	}()
}

// Wait blocks until the background sender has exited.
func (r *TelegramRelay) Wait() {
	r.wg.Wait()
}

func (r *TelegramRelay) deliver(ctx context.Context, text string) {
	for _, chatID := range r.chatIDs {
		if err := r.limiter.Wait(ctx); err != nil {
			return
		}
		if _, err := r.sender.Send(&tele.Chat{ID: chatID}, text); err != nil {
			r.logger.Warn("telegram relay send failed", zap.Int64("chat_id", chatID), zap.Error(err))
		}
	}
}

func formatTelegramAnnouncement(event models.BroadcastEvent) string {
	var sb strings.Builder
	icon := "📢"
	switch event.Priority {
	case models.PriorityWarning:
		icon = "⚠️"
	case models.PriorityEmergency:
		icon = "🚨"
	}
	fmt.Fprintf(&sb, "%s %s announcement", icon, strings.ToUpper(string(event.Priority)))
	if event.IsReplay {
		sb.WriteString(" (replay)")
	}
	fmt.Fprintf(&sb, "\n%s\n", event.Timestamp)
	for _, res := range event.Results {
		flag := res.Flag
		if flag != "" {
			flag += " "
		}
		fmt.Fprintf(&sb, "\n%s%s: %s", flag, res.LanguageName, res.Text)
	}
	return sb.String()
}
