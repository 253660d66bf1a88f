package chat

import (
	"fmt"
	"net/url"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/erilali/mcbridge/internal/message"
)

const (
	colorPlayerChat = 0x00AE86
	colorJoin       = 0x00FF00
	colorLeave      = 0xFF0000
	colorSystem     = 0xFFFF00
)

const avatarURLFormat = "https://mc-heads.net/avatar/%s/32"

func avatarURL(username string) string {
	return fmt.Sprintf(avatarURLFormat, url.PathEscape(username))
}

// renderEmbed builds the embed for one categorized message.
func renderEmbed(category message.Category, payload message.Payload, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Timestamp: now.UTC().Format(time.RFC3339)}
	switch category {
	case message.CategoryPlayerChat:
		embed.Color = colorPlayerChat
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    payload.Title,
			IconURL: avatarURL(payload.Title),
		}
		embed.Description = payload.Body
	case message.CategoryJoin:
		embed.Color = colorJoin
		embed.Description = fmt.Sprintf("**%s** joined the server", payload.Title)
	case message.CategoryLeave:
		embed.Color = colorLeave
		embed.Description = fmt.Sprintf("**%s** left the server", payload.Title)
	default:
		embed.Color = colorSystem
		embed.Description = "⚙️ " + payload.Body
	}
	return embed
}
