package handler

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dice-bet-bot/internal/match"
	"dice-bet-bot/internal/model"
)

func TestFormatStatus(t *testing.T) {
	t.Run("no match", func(t *testing.T) {
		msg := FormatStatus(&match.Status{})
		assert.Contains(t, msg, "No match is running")
	})

	t.Run("suspended with cooldown", func(t *testing.T) {
		msg := FormatStatus(&match.Status{
			Suspended:         true,
			IdleMatches:       3,
			CooldownRemaining: 8*time.Second + time.Millisecond,
		})
		assert.Contains(t, msg, "Auto-start is paused after 3 idle matches")
		assert.Contains(t, msg, "9 seconds") // ceil
	})

	t.Run("waiting match", func(t *testing.T) {
		msg := FormatStatus(&match.Status{
			HasMatch:      true,
			MatchID:       4,
			State:         model.MatchWaiting,
			TimeRemaining: 30 * time.Second,
			Players:       2,
			TotalWagered:  300,
			ByCategory: map[model.Category]int64{
				model.CategoryBig:   100,
				model.CategoryLucky: 200,
			},
		})
		assert.Contains(t, msg, "Match #4")
		assert.Contains(t, msg, "30 seconds left")
		assert.Contains(t, msg, "BIG: 100")
		assert.Contains(t, msg, "LUCKY: 200")
		assert.NotContains(t, msg, "SMALL:")
	})

	t.Run("closed match", func(t *testing.T) {
		msg := FormatStatus(&match.Status{
			HasMatch: true,
			MatchID:  4,
			State:    model.MatchClosed,
		})
		assert.Contains(t, msg, "betting closed")
	})
}

func TestFormatSettlement(t *testing.T) {
	s := &match.Settlement{
		MatchID:         9,
		Dice:            [2]int{3, 4},
		Total:           7,
		WinningCategory: model.CategoryLucky,
		Entries: []match.SettlementEntry{
			{PlayerID: 1, Username: "alice", Category: model.CategoryLucky, Wagered: 100, Payout: 500, Won: true},
			{PlayerID: 2, Username: "", Category: model.CategoryBig, Wagered: 200},
		},
		TotalWagered: 300,
		TotalPaidOut: 500,
	}

	msg := FormatSettlement(s)
	assert.Contains(t, msg, "Match #9")
	assert.Contains(t, msg, "🎲3 🎲4 = 7")
	assert.Contains(t, msg, "LUCKY")
	assert.Contains(t, msg, "@alice +500")
	assert.Contains(t, msg, "player 2 -200")
	assert.Contains(t, msg, "Wagered 300 | Paid out 500")
}

func TestFormatSettlementEmpty(t *testing.T) {
	msg := FormatSettlement(&match.Settlement{
		MatchID:         9,
		Dice:            [2]int{1, 1},
		Total:           2,
		WinningCategory: model.CategorySmall,
	})
	assert.Contains(t, msg, "Nobody bet this match")
}

func TestFormatRefunds(t *testing.T) {
	msg := FormatRefunds(&match.RefundSummary{
		MatchID: 5,
		Refunds: []match.Refund{
			{PlayerID: 1, Username: "alice", Amount: 300},
		},
		Total:           300,
		CooldownSeconds: 10,
	})
	assert.Contains(t, msg, "Match #5 stopped")
	assert.Contains(t, msg, "@alice +300")
	assert.Contains(t, msg, "10 seconds")
}

func TestFormatHistory(t *testing.T) {
	msg := FormatHistory([]*model.MatchRecord{
		{MatchID: 3, Dice: [2]int{2, 6}, Total: 8, WinningCategory: model.CategoryBig, Participants: 2, TotalPaidOut: 400},
		{MatchID: 2, Voided: true, Participants: 1},
	})
	lines := strings.Split(msg, "\n")
	assert.Contains(t, msg, "#3 — 🎲2+6=8 BIG")
	assert.Contains(t, msg, "#2 — stopped, 1 bets refunded")
	assert.GreaterOrEqual(t, len(lines), 4)
}

func TestFormatLeaderboard(t *testing.T) {
	assert.Contains(t, FormatLeaderboard(nil), "Nobody has played")

	msg := FormatLeaderboard([]*model.PlayerStats{
		{PlayerID: 1, Username: "alice", Score: 900, Wins: 3, Losses: 1},
		{PlayerID: 2, Username: "bob", Score: 500, Wins: 1, Losses: 2},
	})
	assert.Contains(t, msg, "🥇 @alice — 900 (W3/L1)")
	assert.Contains(t, msg, "🥈 @bob — 500 (W1/L2)")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "@alice", displayName("alice", 1))
	assert.Equal(t, "@alice", displayName("@alice", 1))
	assert.Equal(t, "player 42", displayName("", 42))
}
