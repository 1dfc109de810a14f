// Package handler provides the Telegram command handlers, the betting
// keyboard and the chat announcer for timer-driven match events.
package handler

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"dice-bet-bot/internal/game/payout"
	"dice-bet-bot/internal/model"
)

// CallbackPrefix marks all betting keyboard callback data.
const CallbackPrefix = "bet_"

// QuickBetAmounts are the stake buttons offered per category.
var QuickBetAmounts = []int64{100, 500, 1000}

// EncodeCallback encodes a category and stake into callback data.
func EncodeCallback(cat model.Category, amount int64) string {
	return fmt.Sprintf("%s%s_%d", CallbackPrefix, cat, amount)
}

// DecodeCallback decodes betting callback data. ok is false for data
// that is not a betting callback or carries a malformed stake.
func DecodeCallback(data string) (cat model.Category, amount int64, ok bool) {
	if !strings.HasPrefix(data, CallbackPrefix) {
		return "", 0, false
	}

	parts := strings.SplitN(strings.TrimPrefix(data, CallbackPrefix), "_", 2)
	if len(parts) != 2 {
		return "", 0, false
	}

	cat, ok = model.ParseCategory(parts[0])
	if !ok {
		return "", 0, false
	}
	amount, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || amount <= 0 {
		return "", 0, false
	}
	return cat, amount, true
}

// categoryLabel is the button/display name for a category.
func categoryLabel(cat model.Category) string {
	switch cat {
	case model.CategoryBig:
		return "BIG"
	case model.CategorySmall:
		return "SMALL"
	case model.CategoryLucky:
		return "LUCKY"
	default:
		return strings.ToUpper(string(cat))
	}
}

// BuildBettingKeyboard builds the inline betting panel: one row per
// category, one button per quick stake.
func BuildBettingKeyboard(table *payout.Table) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	rows := make([][]tele.InlineButton, 0, len(model.Categories()))
	for _, cat := range model.Categories() {
		mult, err := table.MultiplierFor(cat)
		if err != nil {
			continue
		}

		row := make([]tele.InlineButton, 0, len(QuickBetAmounts))
		for _, amount := range QuickBetAmounts {
			row = append(row, tele.InlineButton{
				Text: fmt.Sprintf("%s x%s · %d", categoryLabel(cat), trimFloat(mult.Float()), amount),
				Data: EncodeCallback(cat, amount),
			})
		}
		rows = append(rows, row)
	}

	markup.InlineKeyboard = rows
	return markup
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
