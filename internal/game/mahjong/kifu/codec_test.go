package kifu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.kifu/internal/game/mahjong/core"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var codes []int
	for suit := 1; suit <= 3; suit++ {
		for rank := 1; rank <= 9; rank++ {
			codes = append(codes, suit*10+rank)
		}
	}
	codes = append(codes, 41, 42, 43, 44, 45, 46, 47, 51, 52, 53)

	for _, code := range codes {
		tile, err := Decode(code)
		require.NoError(t, err, "code %d", code)
		back, err := Encode(tile)
		require.NoError(t, err)
		assert.Equal(t, code, back)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		tile string
		want int
	}{
		{"1m", 11},
		{"9s", 39},
		{"0m", 51},
		{"0p", 52},
		{"0s", 53},
		{"E", 41},
		{"C", 47},
	}
	for _, tt := range tests {
		t.Run(tt.tile, func(t *testing.T) {
			code, err := Encode(core.MustParseTile(tt.tile))
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}

	_, err := Encode(core.Tile{Suit: core.SuitHonor, Rank: 9})
	assert.ErrorIs(t, err, core.ErrInvalidTile)
}

func TestDecodeInvalid(t *testing.T) {
	for _, code := range []int{0, 10, 20, 40, 48, 50, 54, 60} {
		_, err := Decode(code)
		assert.ErrorIs(t, err, ErrUnknownCode, "code %d", code)
	}
}

func TestMnemonic(t *testing.T) {
	tests := map[int]string{
		11: "1m",
		52: "0p",
		41: "TON",
		44: "PEI",
		45: "HAK",
		47: "CHU",
	}
	for code, want := range tests {
		got, err := Mnemonic(code)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := Mnemonic(99)
	assert.Error(t, err)
}

func TestEncodeTilesSkipsInvalid(t *testing.T) {
	tiles := []core.Tile{core.MustParseTile("1m"), {Suit: core.SuitMan, Rank: 0}, core.MustParseTile("E")}
	codes, warnings := EncodeTiles(tiles)
	assert.Equal(t, []int{11, 41}, codes)
	assert.Len(t, warnings, 1)
}
