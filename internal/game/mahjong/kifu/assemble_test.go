package kifu

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/riichi"
	"sudooom.kifu/internal/game/mahjong/scoring"
)

type script struct {
	t *testing.T
	s riichi.GameState
}

func newScript(t *testing.T) *script {
	indicator := core.MustParseTile("F")
	s, err := riichi.NewHand(riichi.HandSetup{
		RoundInfo: riichi.RoundInfo{RoundWind: core.East, HandNumber: 1, Points: [4]int{25000, 25000, 25000, 25000}},
		Hands: [4][]core.Tile{
			core.MustParseTiles("111m 456m 789m 123p 4p"),
			core.MustParseTiles("4p 6p 111s 22s 33s 789s E"),
			core.MustParseTiles("55p 234m 667s SS WW N"),
			core.MustParseTiles("2p 9m 4p 6p 2s 9s E S W N P F C"),
		},
		DoraIndicator: &indicator,
		Rules:         riichi.DefaultRules(),
	})
	require.NoError(t, err)
	return &script{t: t, s: s}
}

func (sc *script) do(next riichi.GameState, err error) {
	sc.t.Helper()
	require.NoError(sc.t, err)
	sc.s = next
}

func (sc *script) draw(seat core.Seat, tile string) {
	sc.t.Helper()
	sc.do(riichi.Draw(sc.s, seat, core.MustParseTile(tile)))
}

func (sc *script) discard(seat core.Seat, tile string) {
	sc.t.Helper()
	sc.do(riichi.Discard(sc.s, seat, core.MustParseTile(tile)))
}

func (sc *script) pass() {
	sc.t.Helper()
	sc.do(riichi.AdvanceToNextDraw(sc.s))
}

// playRonHand 东家碰、暗杠、立直后放铳给南家
func playRonHand(t *testing.T) riichi.GameState {
	sc := newScript(t)
	sc.draw(core.East, "5p")
	sc.discard(core.East, "5p")
	sc.do(riichi.Claim(sc.s, riichi.ClaimRequest{Seat: core.West, Kind: core.MeldPon}))
	sc.discard(core.West, "S")
	sc.pass()
	sc.draw(core.North, "3s")
	sc.discard(core.North, "3s")
	sc.pass()
	sc.draw(core.East, "1m")
	rep := core.MustParseTile("9p")
	sc.do(riichi.SelfKan(sc.s, core.East, core.MustParseTile("1m"), &rep))
	sc.do(riichi.RevealDora(sc.s, core.MustParseTile("2s")))
	sc.do(riichi.DeclareRiichi(sc.s, core.East))
	sc.discard(core.East, "9p")

	tanyao, _ := scoring.LookupYaku("tanyao")
	result := scoring.Result{
		Han:  3,
		Fu:   30,
		Cost: scoring.ComputeCost(3, 30, 0, false, false),
		Yaku: []scoring.Yaku{tanyao, {Label: "ドラ", Han: 2}},
	}
	sc.do(riichi.ApplyWin(sc.s, riichi.WinClaim{Seat: core.South}, result))
	return sc.s
}

func tokens(values ...any) []Token {
	out := make([]Token, len(values))
	for i, v := range values {
		switch v := v.(type) {
		case int:
			out[i] = CodeToken(v)
		case string:
			out[i] = TextToken(v)
		}
	}
	return out
}

func TestAssembleRound(t *testing.T) {
	round, warnings := AssembleRound(playRonHand(t))
	require.Empty(t, warnings)

	assert.Equal(t, 0, round.Kyoku)
	assert.Equal(t, 0, round.Sticks)
	assert.Equal(t, [4]int{25000, 25000, 25000, 25000}, round.Points)
	assert.Equal(t, []int{46, 32}, round.Dora)
	assert.Equal(t, []int{11, 11, 11, 14, 15, 16, 17, 18, 19, 21, 22, 23, 24}, round.Haipai[core.East])

	assert.Equal(t, tokens(25, 11, 29), round.Draws[core.East])
	assert.Equal(t, tokens(60, "111111a11", "r60"), round.Discards[core.East])
	assert.Equal(t, tokens("25p2525"), round.Draws[core.West])
	assert.Equal(t, tokens(42), round.Discards[core.West])
	assert.Equal(t, tokens(33), round.Draws[core.North])
	assert.Equal(t, tokens(60), round.Discards[core.North])
	assert.Empty(t, round.Draws[core.South])

	require.NotNil(t, round.Outcome)
	assert.Equal(t, OutcomeWin, round.Outcome.Kind)
	assert.Equal(t, [4]int{-2900, 3900, 0, 0}, round.Outcome.Deltas)
	require.NotNil(t, round.Outcome.Win)
	assert.Equal(t, 1, round.Outcome.Win.Who)
	assert.Equal(t, 0, round.Outcome.Win.From)
	assert.Equal(t, "30符3飜3900点", round.Outcome.Win.Summary)
	assert.Equal(t, []string{"断幺九(1飜)", "ドラ(2飜)"}, round.Outcome.Win.Yaku)
}

func TestAssembleRound_Daiminkan(t *testing.T) {
	sc := newScript(t)
	sc.draw(core.East, "1s")
	sc.discard(core.East, "1s")
	rep := core.MustParseTile("9p")
	sc.do(riichi.Claim(sc.s, riichi.ClaimRequest{Seat: core.South, Kind: core.MeldDaiminkan, Replacement: &rep}))
	sc.discard(core.South, "9p")

	round, warnings := AssembleRound(sc.s)
	require.Empty(t, warnings)
	assert.Equal(t, tokens("m31313131", 29), round.Draws[core.South])
	assert.Equal(t, tokens(0, 60), round.Discards[core.South])
	assert.Nil(t, round.Outcome)
}

func TestAssembleRound_RepeatedMeldsConsumedOnce(t *testing.T) {
	chi := func() core.Meld {
		called := core.MustParseTile("4p")
		return core.Meld{
			Kind:   core.MeldChi,
			Tiles:  core.MustParseTiles("4p 3p 5p"),
			Owner:  core.South,
			From:   core.East,
			Called: &called,
		}
	}
	entry := riichi.TraceEntry{Kind: riichi.TraceChi, Seat: core.South, Tile: core.MustParseTile("4p"), From: core.East}

	var s riichi.GameState
	s.Players[core.South].Melds = []core.Meld{chi(), chi()}
	s.Trace = []riichi.TraceEntry{entry, entry}

	round, warnings := AssembleRound(s)
	assert.Empty(t, warnings)
	assert.Equal(t, tokens("c242325", "c242325"), round.Draws[core.South])

	s.Trace = append(s.Trace, entry)
	round, warnings = AssembleRound(s)
	assert.Len(t, warnings, 1)
	assert.Len(t, round.Draws[core.South], 2)
}

func TestAssembleRound_ExhaustiveDraw(t *testing.T) {
	sc := newScript(t)
	s := sc.s.Clone()
	s.Meta.LiveWall = 0
	sc.do(riichi.ExhaustiveDraw(s, [4]bool{true, false, true, false}))

	round, _ := AssembleRound(sc.s)
	require.NotNil(t, round.Outcome)
	assert.Equal(t, OutcomeDraw, round.Outcome.Kind)
	assert.Equal(t, [4]int{1500, -1500, 1500, -1500}, round.Outcome.Deltas)
	assert.Equal(t, []int{1, 0, 1, 0}, round.Outcome.Tenpai)

	sc = newScript(t)
	s = sc.s.Clone()
	s.Meta.LiveWall = 0
	sc.do(riichi.ExhaustiveDraw(s, [4]bool{}))
	round, _ = AssembleRound(sc.s)
	assert.Nil(t, round.Outcome.Tenpai)
}

func TestDocumentJSON(t *testing.T) {
	doc, warnings := Assemble(Header{Title: [2]string{"練習", "2026-10-19"}, Names: [4]string{"A", "B", "C", "D"}}, []riichi.GameState{playRonHand(t)})
	require.Empty(t, warnings)
	assert.Equal(t, 1, doc.Rule.Aka)
	assert.Equal(t, DefaultDisp, doc.Rule.Disp)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	log := raw["log"].([]any)
	require.Len(t, log, 1)
	round := log[0].([]any)
	require.Len(t, round, 17)
	assert.Equal(t, []any{float64(0), float64(0), float64(0)}, round[0])
	assert.Equal(t, []any{float64(60), "111111a11", "r60"}, round[6])

	outcome := round[16].([]any)
	assert.Equal(t, OutcomeWin, outcome[0])
	detail := outcome[2].([]any)
	assert.Equal(t, "30符3飜3900点", detail[3])

	var back Document
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, doc, back)
	assert.Empty(t, Validate(data))
}

func TestValidate(t *testing.T) {
	assert.NotEmpty(t, Validate([]byte(`{"log": "nope"}`)))
	assert.Contains(t, Validate([]byte(`{"title":["",""],"name":["","","",""],"rule":{"disp":"","aka":0},"log":[]}`)), "log: no rounds")

	bad := `{"title":["",""],"name":["a","b","c","d"],"rule":{"disp":"x","aka":1},"log":[
		[[0,0,0],[25000,25000,25000,25000],[46],[],
		 [11,12],[99],[60],
		 [],[],[],
		 [],[],[],
		 [],["a11111111"],[],
		 ["流局",[1000,0,0,0]]]
	]}`
	problems := Validate([]byte(bad))
	assert.Contains(t, problems, "log[0].haipai[0]: 2 tiles, want 13")
	assert.Contains(t, problems, "log[0].outcome: draw deltas sum to 1000")
	assert.Len(t, problems, 7)
}
