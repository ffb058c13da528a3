package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sudooom.kifu/internal/game/mahjong/core"
)

func TestDoraFromIndicator(t *testing.T) {
	tests := map[string]string{
		"1m": "2m", "9m": "1m", "0p": "6p", "9s": "1s",
		"E": "S", "S": "W", "W": "N", "N": "E",
		"P": "F", "F": "C", "C": "P",
	}
	for indicator, want := range tests {
		t.Run(indicator, func(t *testing.T) {
			got := DoraFromIndicator(core.MustParseTile(indicator))
			assert.Equal(t, want, got.String())
		})
	}
}

func TestCountDora(t *testing.T) {
	tiles := core.MustParseTiles("2m 2m 3m 4m 0p 6p 7p E E E S S 1s 2s 3s")
	indicators := core.MustParseTiles("1m N")
	ura := core.MustParseTiles("4p")

	withRiichi := CountDora(tiles, indicators, ura, true)
	assert.Equal(t, DoraCounts{Dora: 5, Ura: 1, Aka: 1}, withRiichi)
	assert.Equal(t, 7, withRiichi.Total())

	withoutRiichi := CountDora(tiles, indicators, ura, false)
	assert.Equal(t, 0, withoutRiichi.Ura, "未立直时不计里宝牌")
}

func TestCountDora_IndicatorLimit(t *testing.T) {
	tiles := core.MustParseTiles("2m")
	indicators := core.MustParseTiles("1m 1m 1m 1m 1m 1m")
	assert.Equal(t, MaxIndicators, CountDora(tiles, indicators, nil, false).Dora)
}
