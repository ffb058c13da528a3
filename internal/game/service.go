package game

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"sudooom.kifu/internal/analysis"
	"sudooom.kifu/internal/config"
	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/kifu"
	"sudooom.kifu/internal/game/mahjong/riichi"
	"sudooom.kifu/internal/game/mahjong/scoring"
	"sudooom.kifu/internal/repository"
	"sudooom.kifu/internal/workerpool"
)

// 事件主题后缀
const (
	EventHandEnded    = "hand.ended"
	EventGameExported = "game.exported"
)

// TenpaiLookup 并发查询各家听牌
type TenpaiLookup interface {
	LookupAll(ctx context.Context, state riichi.GameState) []analysis.SeatWaits
}

// Recognizer 图片识别
type Recognizer interface {
	RecognizeTiles(ctx context.Context, filename string, image io.Reader) (*analysis.Recognition, error)
}

// KifuStore 牌谱存储
type KifuStore interface {
	Save(ctx context.Context, rec *repository.KifuRecord) error
}

// EventPublisher 事件发布
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// Deps 服务依赖，Engine 以外都可以为空
type Deps struct {
	Config     config.GameConfig
	Engine     *scoring.Engine
	Tenpai     TenpaiLookup
	Recognizer Recognizer
	Store      KifuStore
	Events     EventPublisher
	Pool       *workerpool.Pool
	Presets    map[string]riichi.Rules
}

// Service 记分服务
type Service struct {
	manager    *GameManager
	engine     *scoring.Engine
	tenpai     TenpaiLookup
	recognizer Recognizer
	store      KifuStore
	events     EventPublisher
	pool       *workerpool.Pool

	presets       map[string]riichi.Rules
	defaultPreset string
	undoLimit     int

	logger *slog.Logger
}

// NewService 创建记分服务
func NewService(deps Deps) *Service {
	s := &Service{
		engine:        deps.Engine,
		tenpai:        deps.Tenpai,
		recognizer:    deps.Recognizer,
		store:         deps.Store,
		events:        deps.Events,
		pool:          deps.Pool,
		presets:       deps.Presets,
		defaultPreset: deps.Config.DefaultPreset,
		undoLimit:     deps.Config.UndoLimit,
		logger:        slog.Default().With("component", "GameService"),
	}
	if s.presets == nil {
		s.presets = map[string]riichi.Rules{"default": riichi.DefaultRules()}
	}
	if s.defaultPreset == "" {
		s.defaultPreset = "default"
	}

	var persist PersistFunc
	if s.store != nil {
		persist = s.persist
	}
	s.manager = NewGameManager(deps.Config.MaxGames, deps.Config.EvictTimeout, deps.Config.EvictInterval, persist)
	return s
}

// Manager 返回牌局管理器
func (s *Service) Manager() *GameManager {
	return s.manager
}

// View 返回给记分界面的牌局视图
type View struct {
	GameID   string            `json:"gameId"`
	Header   kifu.Header       `json:"header"`
	Rules    riichi.Rules      `json:"rules"`
	Hand     int               `json:"hand"`
	CanUndo  bool              `json:"canUndo"`
	State    *riichi.GameState `json:"state,omitempty"`
	Actions  []riichi.Action   `json:"actions"`
	Warnings []riichi.Warning  `json:"warnings"`
}

func (s *Service) view(g *Game) *View {
	v := &View{
		GameID:  g.ID(),
		Header:  g.Header(),
		Rules:   g.Rules(),
		Hand:    g.HandCount(),
		CanUndo: g.CanUndo(),
	}
	if state, ok := g.Current(); ok {
		v.State = &state
		v.Actions = riichi.LegalActions(state, nil)
		v.Warnings = riichi.Validate(state)
	}
	return v
}

func (s *Service) game(gameID string) (*Game, error) {
	g, ok := s.manager.Get(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

func (s *Service) rules(req CreateGameRequest) (riichi.Rules, error) {
	if req.Rules != nil {
		if req.Rules.StartPoints <= 0 {
			return riichi.Rules{}, fmt.Errorf("%w: startPoints must be positive", ErrInvalidRequest)
		}
		return *req.Rules, nil
	}
	name := strings.TrimSpace(req.Preset)
	if name == "" {
		name = s.defaultPreset
	}
	rules, ok := s.presets[name]
	if !ok {
		return riichi.Rules{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return rules, nil
}

// CreateGame 创建牌局
func (s *Service) CreateGame(ctx context.Context, req CreateGameRequest) (*View, error) {
	rules, err := s.rules(req)
	if err != nil {
		return nil, err
	}
	header := kifu.Header{
		Title: [2]string{req.Title, req.Subtitle},
		Names: req.Names,
		Disp:  req.Disp,
	}
	g, err := s.manager.Create(header, rules, s.undoLimit)
	if err != nil {
		return nil, err
	}
	return s.view(g), nil
}

// Get 获取牌局视图
func (s *Service) Get(gameID string) (*View, error) {
	g, err := s.game(gameID)
	if err != nil {
		return nil, err
	}
	return s.view(g), nil
}

// StartHand 开始新的一局
func (s *Service) StartHand(ctx context.Context, gameID string, req StartHandRequest) (*View, error) {
	g, err := s.game(gameID)
	if err != nil {
		return nil, err
	}

	setup := riichi.HandSetup{Rules: g.Rules()}
	for i, raw := range req.Hands {
		tiles, err := parseTiles(fmt.Sprintf("hands[%d]", i), raw)
		if err != nil {
			return nil, err
		}
		setup.Hands[i] = tiles
	}
	if setup.DoraIndicator, err = parseOptionalTile("dora", req.Dora); err != nil {
		return nil, err
	}

	switch {
	case req.Round != nil:
		setup.RoundInfo = *req.Round
		if setup.Points == ([4]int{}) {
			for i := range setup.Points {
				setup.Points[i] = setup.Rules.StartPoints
			}
		}
	default:
		prev, ok := g.Current()
		if !ok {
			setup.RoundInfo = riichi.RoundInfo{RoundWind: core.East, HandNumber: 1}
			for i := range setup.Points {
				setup.Points[i] = setup.Rules.StartPoints
			}
			break
		}
		info, ended := riichi.NextRound(prev)
		if !ended {
			return nil, ErrHandInProgress
		}
		setup.RoundInfo = info
	}

	state, err := riichi.NewHand(setup)
	if err != nil {
		return nil, err
	}
	if err := g.StartHand(state); err != nil {
		return nil, err
	}
	s.logger.Info("Hand started", "gameId", gameID, "kyoku", state.Meta.Kyoku(), "honba", state.Meta.Honba)

	s.refreshTenpai(ctx, g)
	return s.view(g), nil
}

// Actions 当前合法操作，viewer 为空时返回所有座位的操作
func (s *Service) Actions(gameID string, viewer *core.Seat) ([]riichi.Action, error) {
	g, err := s.game(gameID)
	if err != nil {
		return nil, err
	}
	state, ok := g.Current()
	if !ok {
		return nil, ErrNoActiveHand
	}
	return riichi.LegalActions(state, viewer), nil
}

// Act 记录一次操作
func (s *Service) Act(ctx context.Context, gameID string, req ActionRequest) (*View, error) {
	g, err := s.game(gameID)
	if err != nil {
		return nil, err
	}
	fn, err := req.transition()
	if err != nil {
		return nil, err
	}
	if _, err := g.Apply(fn); err != nil {
		return nil, err
	}

	s.refreshTenpai(ctx, g)
	return s.view(g), nil
}

// Undo 撤销上一次操作
func (s *Service) Undo(ctx context.Context, gameID string) (*View, error) {
	g, err := s.game(gameID)
	if err != nil {
		return nil, err
	}
	if _, err := g.Undo(); err != nil {
		return nil, err
	}
	return s.view(g), nil
}

// refreshTenpai 查询听牌结果已过期的座位并写入当前状态
// 写入时手牌已变化的结果被丢弃；各家听牌都已确定且无人可鸣牌时自动轮到下家摸牌
func (s *Service) refreshTenpai(ctx context.Context, g *Game) {
	if s.tenpai == nil {
		return
	}
	state, ok := g.Current()
	if !ok || (state.Phase != riichi.PhaseAwaitingCall && state.Phase != riichi.PhaseBeforeDraw) {
		return
	}

	results := s.tenpai.LookupAll(ctx, state)
	g.Refresh(func(cur riichi.GameState) (riichi.GameState, bool) {
		changed := false
		for _, r := range results {
			if r.Err != nil {
				s.logger.Warn("Tenpai undetermined", "gameId", g.ID(), "seat", r.Seat.String(), "error", r.Err)
				continue
			}
			next, ok := riichi.AttachWaits(cur, r.Seat, r.Signature, r.Result.Waits)
			if !ok {
				s.logger.Info("Dropped stale tenpai result", "gameId", g.ID(), "seat", r.Seat.String())
				continue
			}
			cur, changed = next, true
		}

		if cur.Phase == riichi.PhaseAwaitingCall && len(cur.Offers) == 0 {
			if _, known := riichi.TenpaiFromWaits(cur); known {
				next, err := riichi.AdvanceToNextDraw(cur)
				if err == nil {
					cur, changed = next, true
				}
			}
		}
		return cur, changed
	})
}

// Win 和了：评分、结算、结束本局
func (s *Service) Win(ctx context.Context, gameID string, req WinRequest) (*View, error) {
	g, err := s.game(gameID)
	if err != nil {
		return nil, err
	}
	claim, err := req.claim()
	if err != nil {
		return nil, err
	}
	state, ok := g.Current()
	if !ok {
		return nil, ErrNoActiveHand
	}

	scoreReq, err := riichi.PrepareWin(state, claim)
	if err != nil {
		return nil, err
	}
	result, err := s.engine.Score(ctx, scoreReq)
	if err != nil {
		s.logger.Info("Win rejected", "gameId", gameID, "seat", claim.Seat.String(), "variant", result.Variant, "error", err)
		return nil, err
	}
	result = scoring.ApplyDoraOverride(result, req.DoraOverride, scoreReq.Dealer, claim.Tsumo)

	// 评分期间状态可能已被其他请求修改
	scored := winKeyOf(state, claim)
	ended, err := g.Apply(func(cur riichi.GameState) (riichi.GameState, error) {
		if winKeyOf(cur, claim) != scored {
			return cur, ErrStateChanged
		}
		return riichi.ApplyWin(cur, claim, result)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Hand won",
		"gameId", gameID,
		"seat", claim.Seat.String(),
		"tsumo", claim.Tsumo,
		"han", result.Han,
		"fu", result.Fu,
		"variant", result.Variant)
	s.handEnded(g, ended)
	return s.view(g), nil
}

// winKey 决定评分结果的牌局状态
type winKey struct {
	trace     int
	phase     riichi.Phase
	signature string
	winTile   core.Tile
	discard   riichi.LastDiscard
}

func winKeyOf(state riichi.GameState, claim riichi.WinClaim) winKey {
	p := state.Players[claim.Seat]
	k := winKey{
		trace:     len(state.Trace),
		phase:     state.Phase,
		signature: p.Signature(),
	}
	if state.LastDiscard != nil {
		k.discard = *state.LastDiscard
	}
	switch {
	case claim.Tsumo && p.Drawn != nil:
		k.winTile = *p.Drawn
	case !claim.Tsumo && state.LastDiscard != nil:
		k.winTile = state.LastDiscard.Tile
	}
	return k
}

// ExhaustiveDraw 荒牌流局
func (s *Service) ExhaustiveDraw(ctx context.Context, gameID string, req DrawRequest) (*View, error) {
	g, err := s.game(gameID)
	if err != nil {
		return nil, err
	}
	if _, ok := g.Current(); !ok {
		return nil, ErrNoActiveHand
	}

	var tenpai [core.SeatCount]bool
	if req.Tenpai != nil {
		tenpai = *req.Tenpai
	} else {
		s.refreshTenpai(ctx, g)
		state, _ := g.Current()
		var known bool
		if tenpai, known = riichi.TenpaiFromWaits(state); !known {
			return nil, ErrTenpaiUndetermined
		}
	}

	ended, err := g.Apply(func(cur riichi.GameState) (riichi.GameState, error) {
		return riichi.ExhaustiveDraw(cur, tenpai)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Hand drawn", "gameId", gameID, "tenpai", tenpai)
	s.handEnded(g, ended)
	return s.view(g), nil
}

// Kifu 导出牌谱，只包含已结束的各局
func (s *Service) Kifu(ctx context.Context, gameID string) (*kifu.Document, []string, error) {
	g, err := s.game(gameID)
	if err != nil {
		return nil, nil, err
	}
	doc, warnings := kifu.Assemble(g.Header(), g.EndedHands())
	for _, w := range warnings {
		s.logger.Warn("Kifu warning", "gameId", gameID, "warning", w)
	}

	s.publish(EventGameExported, GameExportedEvent{GameID: gameID, Hands: len(doc.Log), Warnings: len(warnings)})
	return &doc, warnings, nil
}

// Recognize 识别图片中的牌
func (s *Service) Recognize(ctx context.Context, filename string, image io.Reader) (*analysis.Recognition, error) {
	if s.recognizer == nil {
		return nil, analysis.ErrUnavailable
	}
	return s.recognizer.RecognizeTiles(ctx, filename, image)
}

// Shutdown 保存所有牌局并停止淘汰循环
func (s *Service) Shutdown(ctx context.Context) error {
	return s.manager.Shutdown(ctx)
}

// HandEndedEvent 一局结束事件
type HandEndedEvent struct {
	GameID string    `json:"gameId"`
	Hand   int       `json:"hand"`
	Kyoku  int       `json:"kyoku"`
	Honba  int       `json:"honba"`
	Result string    `json:"result"`
	Deltas [4]int    `json:"deltas"`
	Points [4]int    `json:"points"`
	At     time.Time `json:"at"`
}

// GameExportedEvent 牌谱导出事件
type GameExportedEvent struct {
	GameID   string `json:"gameId"`
	Hands    int    `json:"hands"`
	Warnings int    `json:"warnings"`
}

// handEnded 一局结束后发布事件并异步保存
func (s *Service) handEnded(g *Game, state riichi.GameState) {
	if state.Result != nil {
		s.publish(EventHandEnded, HandEndedEvent{
			GameID: g.ID(),
			Hand:   g.HandCount(),
			Kyoku:  state.Meta.Kyoku(),
			Honba:  state.Meta.Honba,
			Result: state.Result.Kind.String(),
			Deltas: state.Result.Settlement.Net(),
			Points: state.Meta.Points,
			At:     time.Now(),
		})
	}

	if s.store == nil {
		return
	}
	s.submit(func(ctx context.Context) {
		if err := s.persist(ctx, g); err != nil {
			s.logger.Error("Failed to save kifu", "gameId", g.ID(), "error", err)
		}
	})
}

func (s *Service) publish(event string, payload any) {
	if s.events == nil {
		return
	}
	s.submit(func(ctx context.Context) {
		if err := s.events.Publish(ctx, event, payload); err != nil {
			s.logger.Warn("Failed to publish event", "event", event, "error", err)
		}
	})
}

// submit 交给 worker pool 执行，没有 pool 时同步执行
func (s *Service) submit(task workerpool.Task) {
	if s.pool == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		task(ctx)
		return
	}
	if !s.pool.TrySubmit(task) {
		s.logger.Warn("Worker pool full, task dropped")
	}
}

// persist 把已结束的各局保存为牌谱记录
func (s *Service) persist(ctx context.Context, g *Game) error {
	version := g.Version()
	hands := g.EndedHands()
	doc, _ := kifu.Assemble(g.Header(), hands)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal kifu: %w", err)
	}

	rec := &repository.KifuRecord{
		GameID:   g.ID(),
		Title:    g.Header().Title[0],
		Hands:    len(hands),
		Document: data,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return err
	}
	g.MarkClean(version)
	s.logger.Debug("Kifu saved", "gameId", g.ID(), "hands", len(hands))
	return nil
}
