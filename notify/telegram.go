package notify

import (
	"context"
	"fmt"
	"strconv"

	"revreport/events"
	"revreport/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// telegramSender is the slice of the Telegram Bot API the notifier uses
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers the report to a set of Telegram chats
type TelegramNotifier struct {
	sender       telegramSender
	chatIDs      []int64
	chartEnabled bool
	publisher    events.Publisher
}

// NewTelegramNotifier creates the notifier and verifies the bot token
func NewTelegramNotifier(token string, chatIDs []int64, chartEnabled bool, publisher events.Publisher) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Infof("Telegram bot authorized as @%s", bot.Self.UserName)

	return &TelegramNotifier{
		sender:       bot,
		chatIDs:      chatIDs,
		chartEnabled: chartEnabled,
		publisher:    publisher,
	}, nil
}

// Name identifies the channel in logs, events and metrics
func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// Send delivers the report to every configured chat. A failed chat is logged
// and counted; the remaining chats are still attempted.
func (n *TelegramNotifier) Send(ctx context.Context, report *models.RevenueReport) (models.DeliveryStats, error) {
	text := FormatReport(report)

	var chartPNG []byte
	if n.chartEnabled && !report.IsEmpty() {
		png, err := RenderRevenueChart(report)
		if err != nil {
			log.Warnf("Failed to render revenue chart, sending text only: %v", err)
		} else {
			chartPNG = png
		}
	}

	var stats models.DeliveryStats
	for _, chatID := range n.chatIDs {
		var err error
		if chartPNG != nil {
			photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "revenue.png", Bytes: chartPNG})
			photo.Caption = text
			_, err = n.sender.Send(photo)
		} else {
			_, err = n.sender.Send(tgbotapi.NewMessage(chatID, text))
		}

		if err != nil {
			stats.Failed++
			log.Errorf("Failed to deliver report to Telegram chat %d: %v", chatID, err)
			if n.publisher != nil {
				n.publisher.Emit(ctx, events.DeliveryFailedEvent{
					Channel:   n.Name(),
					Recipient: strconv.FormatInt(chatID, 10),
					Err:       err,
				})
			}
			continue
		}
		stats.Sent++
	}

	log.WithFields(log.Fields{
		"channel": n.Name(),
		"sent":    stats.Sent,
		"failed":  stats.Failed,
	}).Info("Report delivery completed")

	if stats.Sent == 0 && stats.Failed > 0 {
		return stats, fmt.Errorf("all %d Telegram deliveries failed", stats.Failed)
	}
	return stats, nil
}
