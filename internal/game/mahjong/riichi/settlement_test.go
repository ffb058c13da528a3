package riichi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/scoring"
)

func testMeta(honba, sticks int) RoundMeta {
	return RoundMeta{RoundInfo: RoundInfo{
		RoundWind:    core.East,
		HandNumber:   1,
		Honba:        honba,
		RiichiSticks: sticks,
		Points:       [4]int{25000, 25000, 25000, 25000},
	}}
}

func TestSettleRon(t *testing.T) {
	meta := testMeta(2, 1)
	cost := scoring.ComputeCost(3, 30, 0, false, false)

	st := SettleRon(meta, core.South, core.West, cost, false)
	assert.Equal(t, [4]int{0, 4500, -4500, 0}, st.Deltas)
	assert.Equal(t, 1000, st.StickAward)
	assert.Equal(t, [4]int{0, 5500, -4500, 0}, st.Net())
	assert.Equal(t, 0, sum(st.Deltas))

	st.Apply(&meta)
	assert.Equal(t, [4]int{25000, 30500, 20500, 25000}, meta.Points)
	assert.Equal(t, 0, meta.RiichiSticks)
}

func TestSettleRon_Refund(t *testing.T) {
	meta := testMeta(0, 1)
	cost := scoring.ComputeCost(1, 30, 0, false, false)

	st := SettleRon(meta, core.North, core.East, cost, true)
	assert.Equal(t, [4]int{0, 0, 0, 0}, st.Deltas)
	require.Len(t, st.Transfers, 2)
	assert.Equal(t, "riichi refund", st.Transfers[1].Reason)
	assert.Equal(t, 1000, st.Net()[core.North])
}

func TestSettleTsumo(t *testing.T) {
	tests := []struct {
		name   string
		winner core.Seat
		honba  int
		want   [4]int
	}{
		{"non-dealer 30fu3han", core.South, 1, [4]int{-2100, 4300, -1100, -1100}},
		{"dealer 30fu3han", core.East, 0, [4]int{6000, -2000, -2000, -2000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := testMeta(tt.honba, 0)
			cost := scoring.ComputeCost(3, 30, 0, tt.winner == meta.Dealer(), true)
			st := SettleTsumo(meta, tt.winner, cost)
			assert.Equal(t, tt.want, st.Deltas)
			assert.Equal(t, 0, sum(st.Deltas))
		})
	}
}

func TestSettleExhaustiveDraw(t *testing.T) {
	tests := []struct {
		tenpai [4]bool
		want   [4]int
	}{
		{[4]bool{true, false, false, false}, [4]int{3000, -1000, -1000, -1000}},
		{[4]bool{true, false, true, false}, [4]int{1500, -1500, 1500, -1500}},
		{[4]bool{true, true, true, false}, [4]int{1000, 1000, 1000, -3000}},
		{[4]bool{}, [4]int{}},
		{[4]bool{true, true, true, true}, [4]int{}},
	}
	for _, tt := range tests {
		st := SettleExhaustiveDraw(tt.tenpai)
		assert.Equal(t, tt.want, st.Deltas, "tenpai %v", tt.tenpai)
		assert.Nil(t, st.Winner)

		total := 0
		for _, tr := range st.Transfers {
			total += tr.Amount
		}
		assert.Equal(t, sumPositive(tt.want), total)
	}
}

func TestSettleExhaustiveDraw_KeepsSticks(t *testing.T) {
	meta := testMeta(0, 2)
	SettleExhaustiveDraw([4]bool{true}).Apply(&meta)
	assert.Equal(t, 2, meta.RiichiSticks)
	assert.Equal(t, 28000, meta.Points[core.East])
}

func TestNextRound(t *testing.T) {
	base := func(hand int, result HandResult) GameState {
		s := GameState{Meta: testMeta(1, 0)}
		s.Meta.HandNumber = hand
		s.Result = &result
		return s
	}

	tests := []struct {
		name  string
		state GameState
		wind  core.Seat
		hand  int
		honba int
	}{
		{"dealer win repeats", base(1, HandResult{Kind: ResultRon, Winner: core.East}), core.East, 1, 2},
		{"non-dealer win rotates", base(1, HandResult{Kind: ResultTsumo, Winner: core.South}), core.East, 2, 0},
		{"dealer tenpai draw repeats", base(2, HandResult{Kind: ResultExhaustiveDraw, Winner: -1, Tenpai: [4]bool{false, true}}), core.East, 2, 2},
		{"dealer noten draw rotates", base(2, HandResult{Kind: ResultExhaustiveDraw, Winner: -1, Tenpai: [4]bool{true}}), core.East, 3, 2},
		{"east 4 rotates to south 1", base(4, HandResult{Kind: ResultRon, Winner: core.East}), core.South, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := NextRound(tt.state)
			require.True(t, ok)
			assert.Equal(t, tt.wind, info.RoundWind)
			assert.Equal(t, tt.hand, info.HandNumber)
			assert.Equal(t, tt.honba, info.Honba)
		})
	}

	_, ok := NextRound(GameState{})
	assert.False(t, ok)
}

func TestResolveClaims(t *testing.T) {
	tile := core.MustParseTile("5p")
	declared := []Call{
		{Seat: core.South, Kind: CallChi, Tile: tile},
		{Seat: core.North, Kind: CallPon, Tile: tile},
		{Seat: core.West, Kind: CallRon, Tile: tile},
		{Seat: core.South, Kind: CallRon, Tile: tile},
	}

	winner, ok := ResolveClaims(core.East, declared)
	require.True(t, ok)
	assert.Equal(t, core.South, winner.Seat)
	assert.Equal(t, CallRon, winner.Kind)

	winner, _ = ResolveClaims(core.East, declared[:2])
	assert.Equal(t, CallPon, winner.Kind)

	_, ok = ResolveClaims(core.East, nil)
	assert.False(t, ok)
}

func sumPositive(values [4]int) int {
	total := 0
	for _, v := range values {
		if v > 0 {
			total += v
		}
	}
	return total
}
