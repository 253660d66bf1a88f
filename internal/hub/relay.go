// internal/hub/relay.go
package hub

import (
	"fmt"

	"github.com/erilali/mcbridge/internal/chat"
	"github.com/erilali/mcbridge/internal/game"
	"github.com/erilali/mcbridge/internal/message"
	"github.com/erilali/mcbridge/internal/presence"
)

// handleGameEvent routes one game-side event to the chat platform.
func (h *Hub) handleGameEvent(ev game.Event) {
	switch ev := ev.(type) {
	case game.Connected:
		h.Logger.Info("Minecraft bot connected")
		// The server resends its full player list on every new session.
		h.Presence.Reset()
		h.sendSystem("Minecraft bot connected to the server")
		h.publishStatus("connected")

	case game.Disconnected:
		h.Logger.Warnf("Minecraft bot disconnected: %s", ev.Reason)
		h.sendSystem(fmt.Sprintf("Minecraft bot disconnected: %s", ev.Reason))
		h.publishStatus("disconnected: " + ev.Reason)

	case game.Chat:
		h.relayGameChat(ev.ChatEvent)

	case game.Presence:
		h.relayPresence(ev.PresenceEvent)

	case game.Error:
		h.Logger.WithError(ev.Err).Error("Minecraft bot error")
	}
}

// relayGameChat forwards chat from the game unless the bot itself sent it.
// The comparison is exact and case-sensitive, so a player sharing the bot's
// name is suppressed too.
func (h *Hub) relayGameChat(ev message.ChatEvent) {
	if ev.SourceUsername == h.Game.Username() {
		return
	}
	err := h.Chat.SendCategorized(message.CategoryPlayerChat, message.Payload{
		Title: ev.SourceUsername,
		Body:  ev.Content,
	})
	if err != nil {
		h.Logger.Debugf("Dropped game chat from %s: %v", ev.SourceUsername, err)
		return
	}
	h.Logger.LogRelay(message.DirectionGameToChat, string(ev.Kind), ev.SourceUsername, ev.Content)
	h.publish(envelope("chat", message.DirectionGameToChat, ev.SourceUsername, "", ev.Content))
}

func (h *Hub) relayPresence(ev message.PresenceEvent) {
	switch ev.Action {
	case message.Join:
		h.Presence.Join(ev.PlayerID, ev.DisplayName)
		if err := h.Chat.SendCategorized(message.CategoryJoin, message.Payload{Title: ev.DisplayName}); err != nil {
			h.Logger.Debugf("Dropped join notice for %s: %v", ev.DisplayName, err)
			return
		}
		h.Logger.LogRelay(message.DirectionGameToChat, "join", ev.DisplayName, "player joined")
		h.publish(envelope("join", message.DirectionGameToChat, ev.DisplayName, ev.PlayerID.String(), ""))

	case message.Leave:
		name, known := h.Presence.Lookup(ev.PlayerID)
		if !known {
			name = presence.UnknownName
		}
		if known {
			h.Presence.Leave(ev.PlayerID)
		}
		if err := h.Chat.SendCategorized(message.CategoryLeave, message.Payload{Title: name}); err != nil {
			h.Logger.Debugf("Dropped leave notice for %s: %v", name, err)
			return
		}
		h.Logger.LogRelay(message.DirectionGameToChat, "leave", name, "player left")
		h.publish(envelope("leave", message.DirectionGameToChat, name, ev.PlayerID.String(), ""))
	}
}

func (h *Hub) sendSystem(text string) {
	if err := h.Chat.SendCategorized(message.CategorySystem, message.Payload{Body: text}); err != nil {
		h.Logger.Debugf("Dropped system notice %q: %v", text, err)
	}
}

// handleChatEvent routes one chat platform event to the game.
func (h *Hub) handleChatEvent(ev chat.Event) {
	switch ev := ev.(type) {
	case chat.Ready:
		if ev.ChannelResolved {
			h.Logger.Info("Discord bot ready")
		} else {
			h.Logger.Warn("Discord bot ready without a usable target channel; game events will be dropped")
		}

	case chat.Message:
		text := FormatInbound(h.Platform, ev.SourceUsername, ev.Content)
		if err := h.Game.SendChat(text); err != nil {
			h.Logger.Debugf("Dropped message from %s: %v", ev.SourceUsername, err)
			return
		}
		h.Logger.LogRelay(message.DirectionChatToGame, string(ev.Kind), ev.SourceUsername, ev.Content)
		h.publish(envelope("chat", message.DirectionChatToGame, ev.SourceUsername, "", ev.Content))

	case chat.Error:
		h.Logger.WithError(ev.Err).Error("Discord bot error")
	}
}

// FormatInbound renders a chat platform message for the game chat.
func FormatInbound(platform, username, content string) string {
	return fmt.Sprintf("[%s] <%s> %s", platform, username, content)
}
