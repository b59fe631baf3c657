package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"revreport/events"
	"revreport/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const colorInfo = 0x3498DB

// discordSession is the slice of the Discord API the notifier uses
type discordSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts the report as an embed to a Discord channel
type DiscordNotifier struct {
	session      discordSession
	channelID    string
	chartEnabled bool
	publisher    events.Publisher
}

// NewDiscordNotifier creates the notifier. Delivery uses the REST API only,
// so no gateway connection is opened.
func NewDiscordNotifier(token, channelID string, chartEnabled bool, publisher events.Publisher) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Discord session: %w", err)
	}

	return &DiscordNotifier{
		session:      session,
		channelID:    channelID,
		chartEnabled: chartEnabled,
		publisher:    publisher,
	}, nil
}

// Name identifies the channel in logs, events and metrics
func (n *DiscordNotifier) Name() string {
	return "discord"
}

// Send posts the report embed to the configured channel
func (n *DiscordNotifier) Send(ctx context.Context, report *models.RevenueReport) (models.DeliveryStats, error) {
	message := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{n.buildEmbed(report)},
	}

	if n.chartEnabled && !report.IsEmpty() {
		png, err := RenderRevenueChart(report)
		if err != nil {
			log.Warnf("Failed to render revenue chart, sending embed only: %v", err)
		} else {
			message.Files = []*discordgo.File{{
				Name:        "revenue.png",
				ContentType: "image/png",
				Reader:      bytes.NewReader(png),
			}}
		}
	}

	if _, err := n.session.ChannelMessageSendComplex(n.channelID, message); err != nil {
		log.Errorf("Failed to deliver report to Discord channel %s: %v", n.channelID, err)
		if n.publisher != nil {
			n.publisher.Emit(ctx, events.DeliveryFailedEvent{
				Channel:   n.Name(),
				Recipient: n.channelID,
				Err:       err,
			})
		}
		return models.DeliveryStats{Failed: 1}, fmt.Errorf("failed to send report embed: %w", err)
	}

	return models.DeliveryStats{Sent: 1}, nil
}

func (n *DiscordNotifier) buildEmbed(report *models.RevenueReport) *discordgo.MessageEmbed {
	var fields []*discordgo.MessageEmbedField

	if report.IsEmpty() {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "No leads",
			Value:  "No leads were created on this day.",
			Inline: false,
		})
	} else {
		var table strings.Builder
		table.WriteString("```\n")
		table.WriteString("Manager             Leads  Revenue\n")
		table.WriteString("──────────────────  ─────  ───────\n")
		for _, row := range report.ByManager {
			table.WriteString(fmt.Sprintf("%s  %-5d  %s\n",
				padLabel(ManagerLabel(row), 18), row.LeadCount, FormatAmount(row.Revenue)))
		}
		table.WriteString("```")

		fields = append(fields,
			&discordgo.MessageEmbedField{
				Name:   "📈 By manager",
				Value:  table.String(),
				Inline: false,
			},
			&discordgo.MessageEmbedField{
				Name:   "💰 Total Revenue",
				Value:  FormatAmount(report.TotalRevenue),
				Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name:   "🧾 Leads",
				Value:  fmt.Sprintf("%d", report.LeadCount),
				Inline: true,
			},
		)
	}

	return &discordgo.MessageEmbed{
		Title:       "📊 Daily Revenue Report",
		Description: report.Date.Format("2006-01-02"),
		Color:       colorInfo,
		Fields:      fields,
	}
}

// padLabel truncates and pads by runes, not bytes: manager names are often
// Cyrillic, and a byte-indexed cut would split a rune and hand Discord
// invalid UTF-8
func padLabel(label string, width int) string {
	runes := []rune(label)
	if len(runes) > width {
		return string(runes[:width-3]) + "..."
	}
	return label + strings.Repeat(" ", width-len(runes))
}
