package riichi

import (
	"sort"

	"sudooom.kifu/internal/game/mahjong/core"
)

// ActionKind 合法操作类型
type ActionKind int8

const (
	ActionDraw ActionKind = iota
	ActionDiscard
	ActionRiichi
	ActionTsumo
	ActionKan
	ActionRon
	ActionPon
	ActionChi
	ActionPass
)

func (k ActionKind) String() string {
	switch k {
	case ActionDraw:
		return "DRAW"
	case ActionDiscard:
		return "DISCARD"
	case ActionRiichi:
		return "RIICHI"
	case ActionTsumo:
		return "TSUMO"
	case ActionKan:
		return "KAN"
	case ActionRon:
		return "RON"
	case ActionPon:
		return "PON"
	case ActionChi:
		return "CHI"
	case ActionPass:
		return "PASS"
	default:
		return "UNKNOWN"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (k ActionKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Action 一个合法操作
type Action struct {
	Kind    ActionKind    `json:"kind"`
	Seat    core.Seat     `json:"seat"`
	Tile    *core.Tile    `json:"tile,omitempty"`
	Options [][]core.Tile `json:"options,omitempty"`
}

func callAction(c Call) ActionKind {
	switch c.Kind {
	case CallRon:
		return ActionRon
	case CallKan:
		return ActionKan
	case CallPon:
		return ActionPon
	default:
		return ActionChi
	}
}

// LegalActions 返回当前可进行的操作
// viewer 不为空时只返回该座位的操作
func LegalActions(s GameState, viewer *core.Seat) []Action {
	var actions []Action

	switch s.Phase {
	case PhaseBeforeDraw:
		if s.Meta.LiveWall > 0 {
			actions = append(actions, Action{Kind: ActionDraw, Seat: s.Turn})
		}

	case PhaseAfterDraw:
		seat := s.Turn
		p := s.Players[seat]
		actions = append(actions, Action{Kind: ActionDiscard, Seat: seat})
		if p.Drawn != nil && p.DrawSource != DrawCall && p.Waiting(*p.Drawn) {
			drawn := *p.Drawn
			actions = append(actions, Action{Kind: ActionTsumo, Seat: seat, Tile: &drawn})
		}
		if canRiichi(s, seat) == nil {
			actions = append(actions, Action{Kind: ActionRiichi, Seat: seat})
		}
		if options := selfKanOptions(s, seat); len(options) > 0 {
			actions = append(actions, Action{Kind: ActionKan, Seat: seat, Options: options})
		}

	case PhaseAwaitingCall:
		for _, c := range s.Offers {
			tile := c.Tile
			actions = append(actions, Action{Kind: callAction(c), Seat: c.Seat, Tile: &tile, Options: c.Options})
		}
	}

	if viewer == nil {
		return actions
	}
	filtered := actions[:0:0]
	for _, a := range actions {
		if a.Seat == *viewer {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// canRiichi 门清、未立直、点数足够、牌山至少还有 4 张
func canRiichi(s GameState, seat core.Seat) error {
	p := s.Players[seat]
	switch {
	case s.Phase != PhaseAfterDraw || s.Turn != seat:
		return ErrInvalidGamePhase
	case p.InRiichi() || p.RiichiPending:
		return ErrCannotRiichi.WithContext("reason", "already in riichi")
	case !p.Closed:
		return ErrCannotRiichi.WithContext("reason", "open hand")
	case s.Meta.Points[seat] < RiichiDeposit:
		return ErrCannotRiichi.WithContext("reason", "not enough points")
	case s.Meta.LiveWall < core.SeatCount:
		return ErrCannotRiichi.WithContext("reason", "not enough tiles left")
	}
	return nil
}

// selfKanOptions 暗杠与加杠的候选牌
// 立直后统一不允许，除非规则显式允许立直后暗杠
func selfKanOptions(s GameState, seat core.Seat) [][]core.Tile {
	p := s.Players[seat]
	if s.Meta.LiveWall == 0 || totalKans(s) >= MaxKans {
		return nil
	}
	riichi := p.InRiichi()
	if riichi && !s.Rules.AllowRiichiAnkan {
		return nil
	}

	hand := p.HandTiles()
	var options [][]core.Tile
	seen := make(map[core.Tile]bool)
	for _, t := range core.SortedTiles(hand) {
		key := t.Normalized()
		if seen[key] {
			continue
		}
		seen[key] = true
		if core.CountValue(hand, t) == 4 {
			options = append(options, valueTiles(hand, t, 4))
		}
	}
	if riichi {
		return options
	}
	for _, m := range p.Melds {
		if m.Kind != core.MeldPon {
			continue
		}
		if idx := core.IndexOf(hand, m.Tiles[0]); idx >= 0 {
			options = append(options, []core.Tile{hand[idx]})
		}
	}
	return options
}

func totalKans(s GameState) int {
	n := 0
	for _, p := range s.Players {
		n += p.KanCount()
	}
	return n
}

// valueTiles 从 tiles 中取出 n 张与 target 同值的牌
func valueTiles(tiles []core.Tile, target core.Tile, n int) []core.Tile {
	var result []core.Tile
	for _, t := range tiles {
		if len(result) == n {
			break
		}
		if t.SameValue(target) {
			result = append(result, t)
		}
	}
	return result
}

// chiOptions 能与 tile 组成顺子的手牌组合
func chiOptions(hand []core.Tile, tile core.Tile) [][]core.Tile {
	if tile.IsHonor() {
		return nil
	}
	var options [][]core.Tile
	for _, pair := range [][2]int8{{-2, -1}, {-1, 1}, {1, 2}} {
		a, b := tile.Rank+pair[0], tile.Rank+pair[1]
		if a < 1 || b > 9 {
			continue
		}
		ia := core.IndexOf(hand, core.NewTile(tile.Suit, a))
		ib := core.IndexOf(hand, core.NewTile(tile.Suit, b))
		if ia >= 0 && ib >= 0 {
			options = append(options, []core.Tile{hand[ia], hand[ib]})
		}
	}
	return options
}

// callCandidates 对最近打出的牌，所有座位可进行的操作 (未按优先级筛选)
func callCandidates(s GameState) []Call {
	if s.LastDiscard == nil {
		return nil
	}
	discarder := s.LastDiscard.Seat
	tile := s.LastDiscard.Tile

	var calls []Call
	for offset := 1; offset < core.SeatCount; offset++ {
		seat := core.Seat((int(discarder) + offset) % core.SeatCount)
		p := s.Players[seat]

		if p.Waiting(tile) && !p.IsFuriten() {
			calls = append(calls, Call{Seat: seat, Kind: CallRon, Tile: tile})
		}
		// 河底牌不能鸣，立直后不能鸣
		if s.Meta.LiveWall == 0 || p.InRiichi() {
			continue
		}
		n := core.CountValue(p.Concealed, tile)
		if n >= 3 && totalKans(s) < MaxKans {
			calls = append(calls, Call{Seat: seat, Kind: CallKan, Tile: tile, Options: [][]core.Tile{valueTiles(p.Concealed, tile, 3)}})
		}
		if n >= 2 {
			calls = append(calls, Call{Seat: seat, Kind: CallPon, Tile: tile, Options: [][]core.Tile{valueTiles(p.Concealed, tile, 2)}})
		}
		if seat == discarder.Next() {
			if options := chiOptions(p.Concealed, tile); len(options) > 0 {
				calls = append(calls, Call{Seat: seat, Kind: CallChi, Tile: tile, Options: options})
			}
		}
	}
	return calls
}

// computeOffers 按优先级筛选：有人能荣和时只提供荣和
func computeOffers(s GameState) []Call {
	candidates := callCandidates(s)
	var rons []Call
	for _, c := range candidates {
		if c.Kind == CallRon {
			rons = append(rons, c)
		}
	}
	if len(rons) > 0 {
		return rons
	}
	return candidates
}

// ResolveClaims 多家同时宣言时决定由谁执行
// 荣和>杠碰>吃，同级时离打牌者近的座位优先
func ResolveClaims(discarder core.Seat, declared []Call) (Call, bool) {
	if len(declared) == 0 {
		return Call{}, false
	}
	sorted := make([]Call, len(declared))
	copy(sorted, declared)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := sorted[i].Kind.Priority(), sorted[j].Kind.Priority()
		if pi != pj {
			return pi > pj
		}
		return discarder.Offset(sorted[i].Seat) < discarder.Offset(sorted[j].Seat)
	})
	return sorted[0], true
}

func findOffer(s GameState, seat core.Seat, kind CallKind) (Call, bool) {
	for _, c := range s.Offers {
		if c.Seat == seat && c.Kind == kind {
			return c, true
		}
	}
	return Call{}, false
}
