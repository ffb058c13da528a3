package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.kifu/internal/analysis"
	"sudooom.kifu/internal/config"
	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/kifu"
	"sudooom.kifu/internal/game/mahjong/riichi"
	"sudooom.kifu/internal/game/mahjong/scoring"
	"sudooom.kifu/internal/repository"
)

var testHands = [4]string{
	"111m 456m 789m 123p 4p",
	"4p 6p 111s 22s 33s 789s E",
	"55p 234m 667s SS WW N",
	"2p 9m 4p 6p 2s 9s E S W N P F C",
}

// fakeTenpai 按座位返回预设的待牌，未设置的座位不听牌
type fakeTenpai struct {
	mu    sync.Mutex
	waits map[core.Seat]string
	fail  map[core.Seat]bool
	calls int
}

func (f *fakeTenpai) LookupAll(ctx context.Context, state riichi.GameState) []analysis.SeatWaits {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []analysis.SeatWaits
	for _, seat := range core.Seats {
		p := state.Players[seat]
		if p.WaitsValid() {
			continue
		}
		f.calls++
		sw := analysis.SeatWaits{Seat: seat, Signature: p.Signature()}
		if f.fail[seat] {
			sw.Err = analysis.ErrUnavailable
		} else {
			sw.Result = &analysis.TenpaiResult{Status: analysis.StatusShanten, Shanten: 1}
			if w, ok := f.waits[seat]; ok {
				sw.Result = &analysis.TenpaiResult{Status: analysis.StatusTenpai, Waits: core.MustParseTiles(w)}
			}
		}
		out = append(out, sw)
	}
	return out
}

type scorerFunc func(ctx context.Context, req scoring.Request) (*scoring.Response, error)

func (f scorerFunc) ScoreHand(ctx context.Context, req scoring.Request) (*scoring.Response, error) {
	return f(ctx, req)
}

func fixedScorer(han, fu int, yaku ...string) scoring.Scorer {
	return scorerFunc(func(ctx context.Context, req scoring.Request) (*scoring.Response, error) {
		return &scoring.Response{OK: true, Result: &scoring.ResponseResult{Han: han, Fu: fu, Yaku: yaku}}, nil
	})
}

type fakeStore struct {
	mu      sync.Mutex
	records []repository.KifuRecord
	err     error
}

func (f *fakeStore) Save(ctx context.Context, rec *repository.KifuRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *rec)
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeEvents) Publish(ctx context.Context, event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type fixture struct {
	svc    *Service
	tenpai *fakeTenpai
	store  *fakeStore
	events *fakeEvents
}

func newFixture(t *testing.T, scorer scoring.Scorer) *fixture {
	t.Helper()
	f := &fixture{
		tenpai: &fakeTenpai{waits: map[core.Seat]string{}, fail: map[core.Seat]bool{}},
		store:  &fakeStore{},
		events: &fakeEvents{},
	}
	if scorer == nil {
		scorer = fixedScorer(2, 30, "Tanyao", "Dora")
	}
	f.svc = NewService(Deps{
		Config: config.GameConfig{MaxGames: 10, EvictTimeout: time.Hour, EvictInterval: time.Hour, UndoLimit: 50},
		Engine: scoring.NewEngine(scorer),
		Tenpai: f.tenpai,
		Store:  f.store,
		Events: f.events,
	})
	t.Cleanup(func() { _ = f.svc.Shutdown(context.Background()) })
	return f
}

func (f *fixture) start(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	v, err := f.svc.CreateGame(ctx, CreateGameRequest{Title: "test", Names: [4]string{"a", "b", "c", "d"}})
	require.NoError(t, err)
	_, err = f.svc.StartHand(ctx, v.GameID, StartHandRequest{Hands: testHands, Dora: "F"})
	require.NoError(t, err)
	return v.GameID
}

func (f *fixture) act(t *testing.T, id string, kind, seat, tile string) *View {
	t.Helper()
	v, err := f.svc.Act(context.Background(), id, ActionRequest{Kind: kind, Seat: seat, Tile: tile})
	require.NoError(t, err)
	assert.Empty(t, v.Warnings)
	return v
}

func TestService_CreateGame(t *testing.T) {
	f := newFixture(t, nil)

	v, err := f.svc.CreateGame(context.Background(), CreateGameRequest{Title: "friday"})
	require.NoError(t, err)
	assert.NotEmpty(t, v.GameID)
	assert.Equal(t, 0, v.Hand)
	assert.Nil(t, v.State)
	assert.Equal(t, riichi.DefaultRules(), v.Rules)

	_, err = f.svc.CreateGame(context.Background(), CreateGameRequest{Preset: "nope"})
	assert.ErrorIs(t, err, ErrUnknownPreset)

	_, err = f.svc.CreateGame(context.Background(), CreateGameRequest{Rules: &riichi.Rules{}})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_StartHand(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)

	v, err := f.svc.Get(id)
	require.NoError(t, err)
	require.NotNil(t, v.State)
	assert.Equal(t, 1, v.Hand)
	assert.Equal(t, riichi.PhaseBeforeDraw, v.State.Phase)
	assert.Equal(t, [4]int{25000, 25000, 25000, 25000}, v.State.Meta.Points)
	assert.Equal(t, 4, f.tenpai.calls)
	for _, p := range v.State.Players {
		assert.True(t, p.WaitsValid())
	}

	_, err = f.svc.StartHand(context.Background(), id, StartHandRequest{Hands: testHands})
	assert.ErrorIs(t, err, ErrHandInProgress)

	_, err = f.svc.StartHand(context.Background(), "missing", StartHandRequest{Hands: testHands})
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestService_StartHand_BadTiles(t *testing.T) {
	f := newFixture(t, nil)
	v, err := f.svc.CreateGame(context.Background(), CreateGameRequest{})
	require.NoError(t, err)

	hands := testHands
	hands[2] = "55p 234m 667s SS WW X"
	_, err = f.svc.StartHand(context.Background(), v.GameID, StartHandRequest{Hands: hands})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	hands = testHands
	hands[0] = "111m"
	_, err = f.svc.StartHand(context.Background(), v.GameID, StartHandRequest{Hands: hands})
	assert.ErrorIs(t, err, riichi.ErrInvalidHandSize)
}

func TestService_CallsKeepAwaitingPhase(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)

	f.act(t, id, ActDraw, "", "5p")
	v := f.act(t, id, ActDiscard, "", "5p")

	assert.Equal(t, riichi.PhaseAwaitingCall, v.State.Phase)
	var kinds []string
	for _, a := range v.Actions {
		kinds = append(kinds, a.Seat.String()+":"+a.Kind.String())
	}
	assert.ElementsMatch(t, []string{"S:CHI", "W:PON"}, kinds)

	v = f.act(t, id, ActPass, "", "")
	assert.Equal(t, riichi.PhaseBeforeDraw, v.State.Phase)
	assert.Equal(t, core.South, v.State.Turn)
}

func TestService_AutoAdvanceWithoutOffers(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)

	f.act(t, id, ActDraw, "", "5p")
	f.act(t, id, ActDiscard, "", "5p")
	f.act(t, id, ActPass, "", "")
	f.act(t, id, ActDraw, "S", "9m")
	v := f.act(t, id, ActDiscard, "S", "9m")

	assert.Equal(t, riichi.PhaseBeforeDraw, v.State.Phase)
	assert.Equal(t, core.West, v.State.Turn)

	// 自动推进不占撤销步
	v, err := f.svc.Undo(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, riichi.PhaseAfterDraw, v.State.Phase)
	assert.Equal(t, core.South, v.State.Turn)
}

func TestService_NoAutoAdvanceWhenTenpaiUnknown(t *testing.T) {
	f := newFixture(t, nil)
	f.tenpai.fail[core.North] = true
	id := f.start(t)

	f.act(t, id, ActDraw, "", "5p")
	f.act(t, id, ActDiscard, "", "5p")
	f.act(t, id, ActPass, "", "")
	f.act(t, id, ActDraw, "", "9m")
	v := f.act(t, id, ActDiscard, "", "9m")

	assert.Equal(t, riichi.PhaseAwaitingCall, v.State.Phase)
	assert.False(t, v.State.Players[core.North].WaitsKnown)
}

func TestService_ActErrors(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)
	ctx := context.Background()

	_, err := f.svc.Act(ctx, id, ActionRequest{Kind: "dance"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = f.svc.Act(ctx, id, ActionRequest{Kind: ActDraw})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Act(ctx, id, ActionRequest{Kind: ActDraw, Tile: "5p", Seat: "up"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.svc.Act(ctx, id, ActionRequest{Kind: ActDraw, Seat: "S", Tile: "5p"})
	assert.ErrorIs(t, err, riichi.ErrNotYourTurn)

	f.act(t, id, ActDraw, "", "5p")
	before, _ := f.svc.Get(id)
	_, err = f.svc.Act(ctx, id, ActionRequest{Kind: ActDiscard, Tile: "C"})
	assert.ErrorIs(t, err, riichi.ErrTileNotInHand)

	after, _ := f.svc.Get(id)
	assert.Equal(t, before.State.Trace, after.State.Trace)

	_, err = f.svc.Act(ctx, "missing", ActionRequest{Kind: ActPass})
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestService_RiichiWithDiscardIsOneStep(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)

	f.act(t, id, ActDraw, "", "5p")
	v := f.act(t, id, ActRiichi, "", "5p")
	east := v.State.Players[core.East]
	assert.True(t, east.InRiichi())
	assert.Equal(t, 1, v.State.Meta.RiichiSticks)

	v, err := f.svc.Undo(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, v.State.Players[core.East].InRiichi())
	assert.False(t, v.State.Players[core.East].RiichiPending)
	assert.Equal(t, riichi.PhaseAfterDraw, v.State.Phase)
}

func TestService_ClaimAndSelfKan(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)
	ctx := context.Background()

	f.act(t, id, ActDraw, "", "5p")
	f.act(t, id, ActDiscard, "", "5p")

	v, err := f.svc.Act(ctx, id, ActionRequest{Kind: ActPon, Seat: "W"})
	require.NoError(t, err)
	assert.Equal(t, core.West, v.State.Turn)
	require.Len(t, v.State.Players[core.West].Melds, 1)
	assert.Equal(t, core.MeldPon, v.State.Players[core.West].Melds[0].Kind)

	f.act(t, id, ActDiscard, "", "S")
	f.act(t, id, ActDraw, "", "3s")
	v = f.act(t, id, ActDiscard, "", "3s")
	assert.Equal(t, riichi.PhaseAwaitingCall, v.State.Phase, "南家可以碰")
	f.act(t, id, ActPass, "", "")
	f.act(t, id, ActDraw, "", "1m")

	v, err = f.svc.Act(ctx, id, ActionRequest{Kind: ActSelfKan, Tile: "1m", Replacement: "9p"})
	require.NoError(t, err)
	assert.Equal(t, 2, v.State.Meta.DoraRevealed)

	v = f.act(t, id, ActDora, "", "2s")
	assert.Len(t, v.State.Meta.DoraIndicators, 2)
}

func TestService_WinRon(t *testing.T) {
	f := newFixture(t, nil)
	f.tenpai.waits[core.South] = "5p"
	id := f.start(t)

	f.act(t, id, ActDraw, "", "5p")
	v := f.act(t, id, ActDiscard, "", "5p")
	require.Len(t, v.Actions, 1)
	assert.Equal(t, riichi.ActionRon, v.Actions[0].Kind)

	v, err := f.svc.Win(context.Background(), id, WinRequest{Seat: "S"})
	require.NoError(t, err)
	require.True(t, v.State.Ended())
	assert.Equal(t, [4]int{23000, 27000, 25000, 25000}, v.State.Meta.Points)
	assert.Equal(t, 2, v.State.Result.Score.Han)

	assert.Equal(t, []string{EventHandEnded}, f.events.events)
	require.Len(t, f.store.records, 1)
	assert.Equal(t, 1, f.store.records[0].Hands)
	assert.Contains(t, string(f.store.records[0].Document), kifu.OutcomeWin)

	g, _ := f.svc.Manager().Get(id)
	assert.False(t, g.IsDirty())

	doc, warnings, err := f.svc.Kifu(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, doc.Log, 1)
	assert.Equal(t, [4]int{-2000, 2000, 0, 0}, doc.Log[0].Outcome.Deltas)
	assert.Equal(t, [4]string{"a", "b", "c", "d"}, doc.Name)
	assert.Contains(t, f.events.events, EventGameExported)

	// 南家和了，庄家轮换
	v, err = f.svc.StartHand(context.Background(), id, StartHandRequest{Hands: testHands, Dora: "F"})
	require.NoError(t, err)
	assert.Equal(t, 2, v.State.Meta.HandNumber)
	assert.Equal(t, core.South, v.State.Turn)
	assert.Equal(t, [4]int{23000, 27000, 25000, 25000}, v.State.Meta.Points)
	assert.Equal(t, 2, v.Hand)
}

func TestService_WinRejected(t *testing.T) {
	noYaku := scorerFunc(func(ctx context.Context, req scoring.Request) (*scoring.Response, error) {
		return &scoring.Response{OK: false, Error: "no_yaku"}, nil
	})
	f := newFixture(t, noYaku)
	id := f.start(t)

	f.act(t, id, ActDraw, "", "5p")
	f.act(t, id, ActDiscard, "", "5p")

	_, err := f.svc.Win(context.Background(), id, WinRequest{Seat: "S"})
	assert.ErrorIs(t, err, scoring.ErrNoYaku)

	v, _ := f.svc.Get(id)
	assert.False(t, v.State.Ended())
	assert.Empty(t, f.store.records)
}

func TestService_WinStateChangedWhileScoring(t *testing.T) {
	var f *fixture
	var id string
	scorer := scorerFunc(func(ctx context.Context, req scoring.Request) (*scoring.Response, error) {
		_, err := f.svc.Undo(ctx, id)
		require.NoError(t, err)
		return &scoring.Response{OK: true, Result: &scoring.ResponseResult{Han: 1, Fu: 30, Yaku: []string{"Tanyao"}}}, nil
	})
	f = newFixture(t, scorer)
	id = f.start(t)

	f.act(t, id, ActDraw, "", "5p")
	f.act(t, id, ActDiscard, "", "5p")

	_, err := f.svc.Win(context.Background(), id, WinRequest{Seat: "S"})
	assert.ErrorIs(t, err, ErrStateChanged)
}

func TestService_WinDiscardReplacedWhileScoring(t *testing.T) {
	var f *fixture
	var id string
	var scoredTile core.Tile
	calls := 0
	scorer := scorerFunc(func(ctx context.Context, req scoring.Request) (*scoring.Response, error) {
		calls++
		if calls == 1 {
			scoredTile = req.WinTile
			// 撤销后改打 4p，打牌序号和阶段都不变
			_, err := f.svc.Undo(ctx, id)
			require.NoError(t, err)
			_, err = f.svc.Act(ctx, id, ActionRequest{Kind: ActDiscard, Tile: "4p"})
			require.NoError(t, err)
		}
		return &scoring.Response{OK: true, Result: &scoring.ResponseResult{Han: 1, Fu: 30, Yaku: []string{"Tanyao"}}}, nil
	})
	f = newFixture(t, scorer)
	f.tenpai.waits[core.South] = "4p 5p"
	id = f.start(t)

	f.act(t, id, ActDraw, "", "5p")
	f.act(t, id, ActDiscard, "", "5p")

	_, err := f.svc.Win(context.Background(), id, WinRequest{Seat: "S"})
	assert.ErrorIs(t, err, ErrStateChanged)
	assert.Equal(t, core.MustParseTile("5p"), scoredTile)

	v, err := f.svc.Get(id)
	require.NoError(t, err)
	assert.False(t, v.State.Ended())
	require.NotNil(t, v.State.LastDiscard)
	assert.Equal(t, core.MustParseTile("4p"), v.State.LastDiscard.Tile)
}

func TestService_WinErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	v, err := f.svc.CreateGame(ctx, CreateGameRequest{})
	require.NoError(t, err)
	_, err = f.svc.Win(ctx, v.GameID, WinRequest{Seat: "E", Tsumo: true})
	assert.ErrorIs(t, err, ErrNoActiveHand)

	_, err = f.svc.Win(ctx, v.GameID, WinRequest{Seat: "Q"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	id := f.start(t)
	_, err = f.svc.Win(ctx, id, WinRequest{Seat: "E", Tsumo: true})
	assert.ErrorIs(t, err, riichi.ErrInvalidGamePhase)
}

// exhaustWall 把牌山剩余张数设为 0
func exhaustWall(t *testing.T, f *fixture, id string) {
	t.Helper()
	g, ok := f.svc.Manager().Get(id)
	require.True(t, ok)
	g.Refresh(func(s riichi.GameState) (riichi.GameState, bool) {
		s = s.Clone()
		s.Meta.DeadWall += s.Meta.LiveWall
		s.Meta.LiveWall = 0
		return s, true
	})
}

func TestService_ExhaustiveDraw_FromWaits(t *testing.T) {
	f := newFixture(t, nil)
	f.tenpai.waits[core.South] = "5p"
	id := f.start(t)
	exhaustWall(t, f, id)

	v, err := f.svc.ExhaustiveDraw(context.Background(), id, DrawRequest{})
	require.NoError(t, err)
	require.True(t, v.State.Ended())
	assert.Equal(t, [4]bool{false, true, false, false}, v.State.Result.Tenpai)
	assert.Equal(t, [4]int{24000, 28000, 24000, 24000}, v.State.Meta.Points)
	assert.Equal(t, []string{EventHandEnded}, f.events.events)
}

func TestService_ExhaustiveDraw_Explicit(t *testing.T) {
	f := newFixture(t, nil)
	f.tenpai.fail[core.West] = true
	id := f.start(t)
	exhaustWall(t, f, id)

	_, err := f.svc.ExhaustiveDraw(context.Background(), id, DrawRequest{})
	assert.ErrorIs(t, err, ErrTenpaiUndetermined)

	tenpai := [4]bool{true, true, false, false}
	v, err := f.svc.ExhaustiveDraw(context.Background(), id, DrawRequest{Tenpai: &tenpai})
	require.NoError(t, err)
	assert.Equal(t, [4]int{26500, 26500, 23500, 23500}, v.State.Meta.Points)
}

func TestService_ExhaustiveDraw_WallNotEmpty(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)

	tenpai := [4]bool{}
	_, err := f.svc.ExhaustiveDraw(context.Background(), id, DrawRequest{Tenpai: &tenpai})
	assert.ErrorIs(t, err, riichi.ErrInvalidMove)
}

func TestService_KifuSkipsRunningHand(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)

	doc, _, err := f.svc.Kifu(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, doc.Log)
	assert.Equal(t, "test", doc.Title[0])
}

func TestService_PersistFailureKeepsDirty(t *testing.T) {
	f := newFixture(t, nil)
	f.store.err = errors.New("db down")
	f.tenpai.waits[core.South] = "5p"
	id := f.start(t)

	f.act(t, id, ActDraw, "", "5p")
	f.act(t, id, ActDiscard, "", "5p")
	_, err := f.svc.Win(context.Background(), id, WinRequest{Seat: "S"})
	require.NoError(t, err)

	g, _ := f.svc.Manager().Get(id)
	assert.True(t, g.IsDirty())
}

func TestService_Recognize(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Recognize(context.Background(), "hand.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, analysis.ErrUnavailable)
}

func TestService_Actions(t *testing.T) {
	f := newFixture(t, nil)
	id := f.start(t)

	actions, err := f.svc.Actions(id, nil)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, riichi.ActionDraw, actions[0].Kind)
	assert.Equal(t, core.East, actions[0].Seat)

	south := core.South
	actions, err = f.svc.Actions(id, &south)
	require.NoError(t, err)
	assert.Empty(t, actions)
}
