package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.kifu/internal/game/mahjong/core"
)

// fakeScorer 按调用顺序返回预设响应，并记录收到的请求
type fakeScorer struct {
	responses []*Response
	errs      []error
	requests  []Request
}

func (f *fakeScorer) ScoreHand(ctx context.Context, req Request) (*Response, error) {
	i := len(f.requests)
	f.requests = append(f.requests, req)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], err
	}
	return &Response{OK: false, Error: "no_yaku"}, err
}

func tanyaoRequest() Request {
	called := core.MustParseTile("0s")
	return Request{
		Hand:    core.MustParseTiles("234m 234p 678s 5p"),
		WinTile: core.MustParseTile("5p"),
		Melds: []MeldPayload{
			{Kind: "minkan", Tiles: core.MustParseTiles("5s 5s 5s 0s"), CalledTile: &called, CalledFrom: "W"},
		},
		WinType:        WinTypeRon,
		RoundWind:      "E",
		SeatWind:       "S",
		DoraIndicators: core.MustParseTiles("1m"),
	}
}

func TestResolve_FirstScoredVariantWins(t *testing.T) {
	scorer := &fakeScorer{responses: []*Response{
		{OK: false, Error: "hand_not_winning"},
		{OK: true, Result: &ResponseResult{Han: 0}},
		{OK: true, Result: &ResponseResult{Han: 2, Fu: 40, Yaku: []string{"Tanyao", "Aka Dora"}}},
	}}

	resp, variant, err := Resolve(context.Background(), scorer, tanyaoRequest())
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Result.Han)
	assert.Equal(t, "collapsed-forced-called", variant)
	require.Len(t, scorer.requests, 3)

	assert.Equal(t, "minkan", scorer.requests[0].Melds[0].Kind)
	assert.Equal(t, "kan", scorer.requests[1].Melds[0].Kind)
}

func TestResolve_AllFailReturnsFirst(t *testing.T) {
	scorer := &fakeScorer{responses: []*Response{{OK: false, Error: "no_yaku", Debug: []string{"first"}}}}

	resp, variant, err := Resolve(context.Background(), scorer, tanyaoRequest())
	require.NoError(t, err)
	assert.Equal(t, "canonical", variant)
	assert.Equal(t, []string{"first"}, resp.Debug)
	assert.Len(t, scorer.requests, len(Variants))
	assert.ErrorIs(t, resp.Err(), ErrNoYaku)
}

func TestResolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scorer := &fakeScorer{}
	_, _, err := Resolve(ctx, scorer, tanyaoRequest())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, scorer.requests)
}

func TestVariants_DoNotMutateInput(t *testing.T) {
	req := tanyaoRequest()
	for _, v := range Variants {
		v.Apply(req)
	}
	assert.Equal(t, "minkan", req.Melds[0].Kind)
	assert.Equal(t, "5s 5s 5s 0s", core.TilesString(req.Melds[0].Tiles))
}

func TestVariants_CalledTileHandling(t *testing.T) {
	req := tanyaoRequest()

	stripped := Variants[3].Apply(req)
	assert.Equal(t, "5s 5s 5s", core.TilesString(stripped.Melds[0].Tiles))

	red := Variants[5].Apply(req)
	assert.Equal(t, "5s 5s 5s 5s", core.TilesString(red.Melds[0].Tiles))
	assert.Equal(t, "5s", red.Melds[0].CalledTile.String())

	called := core.MustParseTile("0s")
	req.Melds[0].Tiles = core.MustParseTiles("5s 5s 5s 5s")
	req.Melds[0].CalledTile = &called
	forced := Variants[2].Apply(req)
	assert.Equal(t, "0s 5s 5s 5s", core.TilesString(forced.Melds[0].Tiles))
}

func TestEngineScore(t *testing.T) {
	scorer := &fakeScorer{responses: []*Response{
		{OK: true, Result: &ResponseResult{Han: 1, Fu: 40, Yaku: []string{"Tanyao"}}},
	}}
	req := Request{
		Hand:     core.MustParseTiles("234m 234p 345678s 5p"),
		WinTile:  core.MustParseTile("5p"),
		WinType:  WinTypeRon,
		IsClosed: true,
		SeatWind: "E",
		Dealer:   true,
	}

	result, err := NewEngine(scorer).Score(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2000, result.Cost.Main)
	assert.Equal(t, "40符1飜1300点", Result{Han: 1, Fu: 40, Cost: ComputeCost(1, 40, 0, false, false)}.Summary(false, false))
	require.Len(t, result.Yaku, 1)
	assert.Equal(t, "Tanyao", result.Yaku[0].Name)
}

func TestEngineScore_Overflow(t *testing.T) {
	req := Request{
		Hand:    core.MustParseTiles("1m 1m 1m 1m"),
		WinTile: core.MustParseTile("1m"),
	}
	_, err := NewEngine(&fakeScorer{}).Score(context.Background(), req)
	assert.ErrorIs(t, err, ErrScoringRejected)
	assert.Contains(t, err.Error(), "tile overflow: 1m x5")
}

func TestResultSummary(t *testing.T) {
	mangan := Result{Han: 5, Fu: 30, Cost: ComputeCost(5, 30, 0, false, false)}
	assert.Equal(t, "満貫8000点", mangan.Summary(false, false))

	tsumo := Result{Han: 3, Fu: 30, Cost: ComputeCost(3, 30, 0, false, true)}
	assert.Equal(t, "30符3飜1000-2000点", tsumo.Summary(false, true))

	dealer := Result{Han: 3, Fu: 30, Cost: ComputeCost(3, 30, 0, true, true)}
	assert.Equal(t, "30符3飜2000点∀", dealer.Summary(true, true))
}
