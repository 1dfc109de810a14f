package handler

import (
	"fmt"
	"strings"
	"time"

	"dice-bet-bot/internal/match"
	"dice-bet-bot/internal/model"
)

const separator = "━━━━━━━━━━━━━━━"

// FormatBettingPanel formats the open-match announcement shown with the
// betting keyboard.
func FormatBettingPanel(matchID int64, remainingSecs, players int, totalWagered int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎲 Match #%d - place your bets!\n", matchID)
	fmt.Fprintf(&b, "⏰ %d seconds left | 👥 %d players | 💰 %d wagered\n\n", remainingSecs, players, totalWagered)
	b.WriteString("Tap a button or use /bet <big|small|lucky> <amount>")
	return b.String()
}

// FormatStatus formats the /status reply.
func FormatStatus(st *match.Status) string {
	var b strings.Builder

	if !st.HasMatch {
		b.WriteString("💤 No match is running.")
		if st.Suspended {
			fmt.Fprintf(&b, "\n😴 Auto-start is paused after %d idle matches. /startgame resumes.", st.IdleMatches)
		}
		if st.CooldownRemaining > 0 {
			fmt.Fprintf(&b, "\n⏰ Cooldown: %d seconds until a new match can start.", ceilSeconds(st.CooldownRemaining))
		}
		return b.String()
	}

	fmt.Fprintf(&b, "🎲 Match #%d\n%s\n", st.MatchID, separator)
	switch st.State {
	case model.MatchWaiting:
		fmt.Fprintf(&b, "Status: accepting bets, %d seconds left\n", ceilSeconds(st.TimeRemaining))
	case model.MatchClosed:
		b.WriteString("Status: betting closed, rolling soon\n")
	default:
		b.WriteString("Status: settling\n")
	}
	fmt.Fprintf(&b, "👥 %d players | 💰 %d wagered\n", st.Players, st.TotalWagered)

	for _, cat := range model.Categories() {
		if total := st.ByCategory[cat]; total > 0 {
			fmt.Fprintf(&b, "  • %s: %d\n", categoryLabel(cat), total)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSettlement formats the end-of-match result message.
func FormatSettlement(s *match.Settlement) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎰 Match #%d result\n%s\n", s.MatchID, separator)
	fmt.Fprintf(&b, "🎲%d 🎲%d = %d → %s\n%s\n", s.Dice[0], s.Dice[1], s.Total, categoryLabel(s.WinningCategory), separator)

	if len(s.Entries) == 0 {
		b.WriteString("Nobody bet this match.\n")
	} else {
		for _, e := range s.Entries {
			name := displayName(e.Username, e.PlayerID)
			if e.Won {
				fmt.Fprintf(&b, "🎉 %s +%d\n", name, e.Payout)
			} else {
				fmt.Fprintf(&b, "😢 %s -%d\n", name, e.Wagered)
			}
		}
		fmt.Fprintf(&b, "%s\n💰 Wagered %d | Paid out %d\n", separator, s.TotalWagered, s.TotalPaidOut)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRefunds formats the manual-stop announcement.
func FormatRefunds(sum *match.RefundSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🛑 Match #%d stopped.\n", sum.MatchID)
	if len(sum.Refunds) == 0 {
		b.WriteString("No bets to refund.\n")
	} else {
		b.WriteString("All bets refunded:\n")
		for _, r := range sum.Refunds {
			fmt.Fprintf(&b, "  • %s +%d\n", displayName(r.Username, r.PlayerID), r.Amount)
		}
	}
	fmt.Fprintf(&b, "⏰ New matches can start in %d seconds.", sum.CooldownSeconds)
	return b.String()
}

// FormatLeaderboard formats the /leaderboard reply.
func FormatLeaderboard(players []*model.PlayerStats) string {
	if len(players) == 0 {
		return "🏆 Nobody has played here yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏆 Leaderboard\n%s\n", separator)
	medals := []string{"🥇", "🥈", "🥉"}
	for i, p := range players {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		fmt.Fprintf(&b, "%s %s — %d (W%d/L%d)\n", rank, displayName(p.Username, p.PlayerID), p.Score, p.Wins, p.Losses)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHistory formats the /history reply.
func FormatHistory(records []*model.MatchRecord) string {
	if len(records) == 0 {
		return "📜 No matches recorded yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📜 Recent matches\n%s\n", separator)
	for _, r := range records {
		if r.Voided {
			fmt.Fprintf(&b, "#%d — stopped, %d bets refunded\n", r.MatchID, r.Participants)
			continue
		}
		fmt.Fprintf(&b, "#%d — 🎲%d+%d=%d %s, %d players, paid %d\n",
			r.MatchID, r.Dice[0], r.Dice[1], r.Total, categoryLabel(r.WinningCategory), r.Participants, r.TotalPaidOut)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatScore formats the /score reply.
func FormatScore(p *model.PlayerStats) string {
	return fmt.Sprintf("💰 %s\nScore: %d | Wins: %d | Losses: %d | Bets: %d",
		displayName(p.Username, p.PlayerID), p.Score, p.Wins, p.Losses, p.TotalBets)
}

func ceilSeconds(d time.Duration) int {
	n := int(d / time.Second)
	if d%time.Second > 0 {
		n++
	}
	return n
}
