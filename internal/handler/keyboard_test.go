package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dice-bet-bot/internal/game/payout"
	"dice-bet-bot/internal/model"
)

func TestEncodeDecodeCallback(t *testing.T) {
	tests := []struct {
		name   string
		cat    model.Category
		amount int64
	}{
		{"big small stake", model.CategoryBig, 100},
		{"small", model.CategorySmall, 500},
		{"lucky big stake", model.CategoryLucky, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeCallback(tt.cat, tt.amount)
			cat, amount, ok := DecodeCallback(data)
			require.True(t, ok)
			assert.Equal(t, tt.cat, cat)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

func TestDecodeCallbackRejectsGarbage(t *testing.T) {
	bad := []string{
		"",
		"shop_big_100",
		"bet_big",
		"bet_triple_100",
		"bet_big_abc",
		"bet_big_-5",
		"bet_big_0",
	}
	for _, data := range bad {
		if _, _, ok := DecodeCallback(data); ok {
			t.Errorf("DecodeCallback(%q) accepted malformed data", data)
		}
	}
}

func TestBuildBettingKeyboard(t *testing.T) {
	markup := BuildBettingKeyboard(payout.Default())

	require.Len(t, markup.InlineKeyboard, len(model.Categories()))
	for _, row := range markup.InlineKeyboard {
		require.Len(t, row, len(QuickBetAmounts))
		for _, btn := range row {
			cat, amount, ok := DecodeCallback(btn.Data)
			require.True(t, ok, "button data %q must round-trip", btn.Data)
			assert.Contains(t, btn.Text, categoryLabel(cat))
			assert.Positive(t, amount)
		}
	}
}
