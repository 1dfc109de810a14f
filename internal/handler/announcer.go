package handler

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"dice-bet-bot/internal/game/payout"
	"dice-bet-bot/internal/match"
)

// Sender sends messages to a chat. Satisfied by *tele.Bot.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Announcer pushes timer-driven match events into the chat. The
// scheduler invokes it while holding the room lock, so every send runs
// in its own goroutine and never blocks a lifecycle transition on
// Telegram I/O.
type Announcer struct {
	sender Sender
	table  *payout.Table
	window time.Duration
}

// NewAnnouncer creates an Announcer for the given payout table and
// betting window.
func NewAnnouncer(sender Sender, table *payout.Table, window time.Duration) *Announcer {
	return &Announcer{sender: sender, table: table, window: window}
}

func (a *Announcer) send(roomID int64, what interface{}, opts ...interface{}) {
	go func() {
		if _, err := a.sender.Send(tele.ChatID(roomID), what, opts...); err != nil {
			log.Error().Err(err).Int64("room_id", roomID).Msg("Failed to send announcement")
		}
	}()
}

// BettingClosed announces the end of the betting window.
func (a *Announcer) BettingClosed(roomID, matchID int64) {
	a.send(roomID, fmt.Sprintf("🔒 Betting closed for match #%d. Rolling the dice...", matchID))
}

// MatchSettled announces the dice result and per-player outcomes.
func (a *Announcer) MatchSettled(roomID int64, s *match.Settlement) {
	a.send(roomID, FormatSettlement(s))
}

// NewMatchStarted announces the auto-created follow-up match with a
// fresh betting keyboard.
func (a *Announcer) NewMatchStarted(roomID, matchID int64) {
	a.send(roomID,
		FormatBettingPanel(matchID, int(a.window.Seconds()), 0, 0),
		BuildBettingKeyboard(a.table),
	)
}

// AutoStartSuspended announces that the room went idle.
func (a *Announcer) AutoStartSuspended(roomID int64, idleMatches int) {
	a.send(roomID, fmt.Sprintf("😴 %d matches in a row with no bets. Auto-start paused, /startgame resumes.", idleMatches))
}
