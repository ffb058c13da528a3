package riichi

import (
	"fmt"

	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/scoring"
)

// 牌山常量
const (
	TotalTiles    = 136
	HandSize      = 13
	DeadWallSize  = 14
	InitialLive   = TotalTiles - DeadWallSize - HandSize*core.SeatCount // 70
	RiichiDeposit = 1000
	MaxKans       = 4
)

// Phase 牌局阶段
type Phase int8

const (
	PhaseBeforeDraw   Phase = iota // 等待摸牌
	PhaseAfterDraw                 // 摸牌后必须打牌
	PhaseAwaitingCall              // 打牌后等待鸣牌
	PhaseEnded                     // 本局结束
)

func (p Phase) String() string {
	switch p {
	case PhaseBeforeDraw:
		return "BEFORE_DRAW"
	case PhaseAfterDraw:
		return "AFTER_DRAW_MUST_DISCARD"
	case PhaseAwaitingCall:
		return "AWAITING_CALL"
	case PhaseEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// DrawSource 手中摸牌的来源
type DrawSource int8

const (
	DrawNone     DrawSource = iota
	DrawWall                // 牌山
	DrawCall                // 吃碰后 (没有摸牌)
	DrawDeadWall            // 岭上
)

func (d DrawSource) String() string {
	switch d {
	case DrawWall:
		return "wall"
	case DrawCall:
		return "call"
	case DrawDeadWall:
		return "dead_wall"
	default:
		return "none"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (d DrawSource) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// RiverTile 牌河中的一张牌
type RiverTile struct {
	Tile      core.Tile `json:"tile"`
	Index     int       `json:"index"` // 该座位的第几次打牌，从 0 开始
	Tsumogiri bool      `json:"tsumogiri"`
	Riichi    bool      `json:"riichi"`
}

// PlayerState 玩家状态
type PlayerState struct {
	Concealed    []core.Tile `json:"concealed"`
	Drawn        *core.Tile  `json:"drawn"`
	DrawSource   DrawSource  `json:"drawSource"`
	Melds        []core.Meld `json:"melds"`
	Discards     []RiverTile `json:"discards"`
	DiscardCount int         `json:"discardCount"`

	Riichi        bool `json:"riichi"`
	DoubleRiichi  bool `json:"doubleRiichi"`
	RiichiPending bool `json:"riichiPending"`
	RiichiIndex   int  `json:"riichiIndex"` // 立直宣言牌的打牌序号，未立直为 -1
	Ippatsu       bool `json:"ippatsu"`
	Closed        bool `json:"closed"`

	Furiten       bool `json:"furiten"`       // 听牌在自己牌河中
	TempFuriten   bool `json:"tempFuriten"`   // 本巡见逃
	RiichiFuriten bool `json:"riichiFuriten"` // 立直后见逃，持续到本局结束

	Waits      []core.Tile `json:"waits"`
	WaitsKnown bool        `json:"waitsKnown"`
	WaitsSig   string      `json:"-"`
}

// Clone 深拷贝
func (p PlayerState) Clone() PlayerState {
	c := p
	c.Concealed = core.CloneTiles(p.Concealed)
	if p.Drawn != nil {
		drawn := *p.Drawn
		c.Drawn = &drawn
	}
	c.Melds = core.CloneMelds(p.Melds)
	if p.Discards != nil {
		c.Discards = make([]RiverTile, len(p.Discards))
		copy(c.Discards, p.Discards)
	}
	c.Waits = core.CloneTiles(p.Waits)
	return c
}

// Signature 手牌签名 (不含摸到的牌)，听牌结果以此为准
func (p PlayerState) Signature() string {
	return core.Signature(p.Concealed, p.Melds)
}

// HandTiles 手牌加摸到的牌
func (p PlayerState) HandTiles() []core.Tile {
	tiles := core.CloneTiles(p.Concealed)
	if p.Drawn != nil {
		tiles = append(tiles, *p.Drawn)
	}
	return tiles
}

// WaitsValid 听牌结果是否对应当前手牌
func (p PlayerState) WaitsValid() bool {
	return p.WaitsKnown && p.WaitsSig == p.Signature()
}

// Waiting 当前是否听 tile
func (p PlayerState) Waiting(tile core.Tile) bool {
	return p.WaitsValid() && core.CountValue(p.Waits, tile) > 0
}

// IsFuriten 是否处于任意一种振听
func (p PlayerState) IsFuriten() bool {
	return p.Furiten || p.TempFuriten || p.RiichiFuriten
}

// InRiichi 立直或两立直
func (p PlayerState) InRiichi() bool {
	return p.Riichi || p.DoubleRiichi
}

// KanCount 杠的数量
func (p PlayerState) KanCount() int {
	n := 0
	for _, m := range p.Melds {
		if m.Kind.IsQuad() {
			n++
		}
	}
	return n
}

// RoundInfo 一局开始时的场况
type RoundInfo struct {
	RoundWind    core.Seat `json:"roundWind"`
	HandNumber   int       `json:"handNumber"` // 1..4
	Honba        int       `json:"honba"`
	RiichiSticks int       `json:"riichiSticks"`
	Points       [4]int    `json:"points"`
}

// Dealer 庄家座位
func (r RoundInfo) Dealer() core.Seat {
	return core.Seat((r.HandNumber - 1) % core.SeatCount)
}

// Kyoku 牌谱中的局序号，东一局为 0
func (r RoundInfo) Kyoku() int {
	return int(r.RoundWind)*core.SeatCount + r.HandNumber - 1
}

// RoundMeta 场况
type RoundMeta struct {
	RoundInfo
	StartPoints    [4]int      `json:"startPoints"`
	StartSticks    int         `json:"startSticks"`
	DoraRevealed   int         `json:"doraRevealed"`
	DoraIndicators []core.Tile `json:"doraIndicators"`
	UraIndicators  []core.Tile `json:"uraIndicators"`
	LiveWall       int         `json:"liveWall"`
	DeadWall       int         `json:"deadWall"`
}

// Clone 深拷贝
func (m RoundMeta) Clone() RoundMeta {
	c := m
	c.DoraIndicators = core.CloneTiles(m.DoraIndicators)
	c.UraIndicators = core.CloneTiles(m.UraIndicators)
	return c
}

// SeatWind 座位的自风
func (m RoundMeta) SeatWind(seat core.Seat) core.Seat {
	return core.Seat(m.Dealer().Offset(seat))
}

// Rules 规则选项
type Rules struct {
	Aka                 bool `json:"aka" mapstructure:"aka" yaml:"aka"`                                            // 使用赤五
	StartPoints         int  `json:"startPoints" mapstructure:"start_points" yaml:"start_points"`                  // 起始点数
	AllowRiichiAnkan    bool `json:"allowRiichiAnkan" mapstructure:"allow_riichi_ankan" yaml:"allow_riichi_ankan"` // 立直后允许暗杠
	RiichiDiscardRefund bool `json:"riichiDiscardRefund" mapstructure:"riichi_discard_refund" yaml:"riichi_discard_refund"`
}

// DefaultRules 默认规则
func DefaultRules() Rules {
	return Rules{
		Aka:                 true,
		StartPoints:         25000,
		RiichiDiscardRefund: true,
	}
}

// LastDiscard 最近一次打出的牌
type LastDiscard struct {
	Seat  core.Seat `json:"seat"`
	Tile  core.Tile `json:"tile"`
	Index int       `json:"index"`
}

// CallKind 鸣牌/荣和类型，数值越小优先级越高
type CallKind int8

const (
	CallRon CallKind = iota
	CallKan
	CallPon
	CallChi
)

func (k CallKind) String() string {
	switch k {
	case CallRon:
		return "RON"
	case CallKan:
		return "KAN"
	case CallPon:
		return "PON"
	case CallChi:
		return "CHI"
	default:
		return "UNKNOWN"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (k CallKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Priority 优先级 (荣和>杠碰>吃)
func (k CallKind) Priority() int {
	switch k {
	case CallRon:
		return 100
	case CallKan, CallPon:
		return 80
	case CallChi:
		return 70
	default:
		return 0
	}
}

// Call 对最近打出的牌可进行的操作
type Call struct {
	Seat    core.Seat     `json:"seat"`
	Kind    CallKind      `json:"kind"`
	Tile    core.Tile     `json:"tile"`
	Options [][]core.Tile `json:"options,omitempty"` // 可用于组成副露的手牌组合
}

// ResultKind 本局结束方式
type ResultKind int8

const (
	ResultRon ResultKind = iota
	ResultTsumo
	ResultExhaustiveDraw
)

func (k ResultKind) String() string {
	switch k {
	case ResultRon:
		return "ron"
	case ResultTsumo:
		return "tsumo"
	case ResultExhaustiveDraw:
		return "exhaustive_draw"
	default:
		return "unknown"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// HandResult 本局结果
type HandResult struct {
	Kind       ResultKind      `json:"kind"`
	Winner     core.Seat       `json:"winner"`
	Loser      core.Seat       `json:"loser"` // 自摸时等于 Winner
	Score      *scoring.Result `json:"score,omitempty"`
	Tenpai     [4]bool         `json:"tenpai"`
	Settlement Settlement      `json:"settlement"`
}

// GameState 一局的完整快照
// 所有状态转换都返回新快照，不修改输入
type GameState struct {
	Meta         RoundMeta                   `json:"meta"`
	Players      [core.SeatCount]PlayerState `json:"players"`
	Turn         core.Seat                   `json:"turn"`
	Phase        Phase                       `json:"phase"`
	LastDiscard  *LastDiscard                `json:"lastDiscard"`
	Offers       []Call                      `json:"offers"`
	InitialHands [core.SeatCount][]core.Tile `json:"initialHands"`
	Trace        []TraceEntry                `json:"trace"`
	Rules        Rules                       `json:"rules"`
	Result       *HandResult                 `json:"result,omitempty"`
	CallsMade    bool                        `json:"callsMade"` // 本局是否有人鸣牌或杠
}

// Clone 深拷贝
func (s GameState) Clone() GameState {
	c := s
	c.Meta = s.Meta.Clone()
	for i := range s.Players {
		c.Players[i] = s.Players[i].Clone()
	}
	if s.LastDiscard != nil {
		ld := *s.LastDiscard
		c.LastDiscard = &ld
	}
	if s.Offers != nil {
		c.Offers = make([]Call, len(s.Offers))
		copy(c.Offers, s.Offers)
	}
	for i := range s.InitialHands {
		c.InitialHands[i] = core.CloneTiles(s.InitialHands[i])
	}
	if s.Trace != nil {
		c.Trace = make([]TraceEntry, len(s.Trace))
		copy(c.Trace, s.Trace)
	}
	if s.Result != nil {
		r := *s.Result
		c.Result = &r
	}
	return c
}

// Player 返回座位的玩家状态
func (s GameState) Player(seat core.Seat) PlayerState {
	return s.Players[seat]
}

// Ended 本局是否已结束
func (s GameState) Ended() bool {
	return s.Phase == PhaseEnded
}

func (s *GameState) record(entry TraceEntry) {
	s.Trace = append(s.Trace, entry)
}

func (s GameState) requirePhase(phase Phase) error {
	if s.Phase == PhaseEnded {
		return ErrHandEnded
	}
	if s.Phase != phase {
		return ErrInvalidGamePhase.WithContext("phase", s.Phase.String()).WithContext("expected", phase.String())
	}
	return nil
}

func (s GameState) requireTurn(seat core.Seat) error {
	if !seat.Valid() {
		return ErrInvalidSeat.WithContext("seat", int(seat))
	}
	if s.Turn != seat {
		return ErrNotYourTurn.WithContext("seat", seat.String()).WithContext("turn", s.Turn.String())
	}
	return nil
}

func (s GameState) checkTile(tile core.Tile) (core.Tile, error) {
	if !tile.Valid() {
		return tile, ErrInvalidTile.WithContext("tile", fmt.Sprintf("%+v", tile))
	}
	tile = tile.Canonical()
	if tile.Red && !s.Rules.Aka {
		return tile, ErrRedFiveDisabled.WithContext("tile", tile.String())
	}
	return tile, nil
}
