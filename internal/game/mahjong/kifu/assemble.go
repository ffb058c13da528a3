package kifu

import (
	"fmt"
	"sort"
	"strconv"

	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/riichi"
)

// Header 牌谱标题信息
type Header struct {
	Title [2]string `json:"title"`
	Names [4]string `json:"names"`
	Disp  string    `json:"disp"`
}

// DefaultDisp 默认规则显示
const DefaultDisp = "般南喰赤"

// Assemble 把多局快照组装为完整牌谱
func Assemble(header Header, hands []riichi.GameState) (Document, []string) {
	doc := Document{
		Title: header.Title,
		Name:  header.Names,
		Rule:  Rule{Disp: header.Disp},
		Log:   make([]Round, 0, len(hands)),
	}
	if doc.Rule.Disp == "" {
		doc.Rule.Disp = DefaultDisp
	}
	if len(hands) > 0 && hands[0].Rules.Aka {
		doc.Rule.Aka = 1
	}

	var warnings []string
	for i, s := range hands {
		round, w := AssembleRound(s)
		for _, msg := range w {
			warnings = append(warnings, fmt.Sprintf("hand %d: %s", i+1, msg))
		}
		doc.Log = append(doc.Log, round)
	}
	return doc, warnings
}

// meldRef 某座位第 index 个副露
type meldRef struct {
	seat  core.Seat
	index int
}

// roundBuilder 按操作记录重建摸打流
// 每条副露记录只消耗一个尚未使用的副露，同类副露不会被重复计入
type roundBuilder struct {
	state      riichi.GameState
	round      Round
	warnings   []string
	discardIdx [core.SeatCount]int
	consumed   map[meldRef]bool // 鸣牌和暗杠
	upgraded   map[meldRef]bool // 加杠
}

// AssembleRound 由一局的最终快照生成牌谱中的一局
// 无法编码的元素跳过并作为警告返回
func AssembleRound(s riichi.GameState) (Round, []string) {
	b := &roundBuilder{
		state:    s,
		consumed: make(map[meldRef]bool),
		upgraded: make(map[meldRef]bool),
		round: Round{
			Kyoku:  s.Meta.Kyoku(),
			Honba:  s.Meta.Honba,
			Sticks: s.Meta.StartSticks,
			Points: s.Meta.StartPoints,
		},
	}
	b.round.Dora = b.encodeAll(s.Meta.DoraIndicators, "dora")
	b.round.Ura = b.encodeAll(s.Meta.UraIndicators, "ura")

	for _, seat := range core.Seats {
		haipai := b.encodeAll(s.InitialHands[seat], "haipai")
		sort.Ints(haipai)
		b.round.Haipai[seat] = haipai
		b.round.Draws[seat] = []Token{}
		b.round.Discards[seat] = []Token{}
	}

	for _, e := range s.Trace {
		b.apply(e)
	}
	b.round.Outcome = b.outcome()
	return b.round, b.warnings
}

func (b *roundBuilder) warn(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}

func (b *roundBuilder) encodeAll(tiles []core.Tile, field string) []int {
	codes, warnings := EncodeTiles(tiles)
	for _, w := range warnings {
		b.warn("%s: %s", field, w)
	}
	return codes
}

func (b *roundBuilder) encode(tile core.Tile) (int, bool) {
	code, err := Encode(tile)
	if err != nil {
		b.warn("%v", err)
		return 0, false
	}
	return code, true
}

func (b *roundBuilder) apply(e riichi.TraceEntry) {
	seat := e.Seat
	switch e.Kind {
	case riichi.TraceDraw:
		if code, ok := b.encode(e.Tile); ok {
			b.round.Draws[seat] = append(b.round.Draws[seat], CodeToken(code))
		}

	case riichi.TraceDiscard:
		idx := b.discardIdx[seat]
		b.discardIdx[seat]++
		code, ok := b.encode(e.Tile)
		if !ok {
			return
		}
		if e.Tsumogiri {
			code = CodeTsumogiri
		}
		tok := CodeToken(code)
		if p := b.state.Players[seat]; p.InRiichi() && p.RiichiIndex == idx {
			tok = TextToken("r" + strconv.Itoa(code))
		}
		b.round.Discards[seat] = append(b.round.Discards[seat], tok)

	case riichi.TraceChi, riichi.TracePon, riichi.TraceDaiminkan:
		kind, _ := e.Kind.MeldKind()
		m, ok := b.take(seat, b.consumed, func(m core.Meld) bool {
			if m.Called == nil || *m.Called != e.Tile || m.From != e.From {
				return false
			}
			return m.Kind == kind || (kind == core.MeldPon && m.Kind == core.MeldKakan)
		})
		if !ok {
			b.warn("no %s meld of %s matches %s", kind, seat, e.Tile)
			return
		}
		token, err := PonToken(m)
		if kind != core.MeldPon {
			token, err = MeldToken(m)
		}
		if err != nil {
			b.warn("%v", err)
			return
		}
		b.round.Draws[seat] = append(b.round.Draws[seat], TextToken(token))
		if kind == core.MeldDaiminkan {
			b.round.Discards[seat] = append(b.round.Discards[seat], CodeToken(CodeKanSlot))
		}

	case riichi.TraceAnkan, riichi.TraceKakan:
		kind, _ := e.Kind.MeldKind()
		used := b.consumed
		match := func(m core.Meld) bool {
			return m.Kind == core.MeldAnkan && m.Tiles[0].SameValue(e.Tile)
		}
		if kind == core.MeldKakan {
			used = b.upgraded
			match = func(m core.Meld) bool {
				return m.Kind == core.MeldKakan && m.Added != nil && m.Added.SameValue(e.Tile)
			}
		}
		m, ok := b.take(seat, used, match)
		if !ok {
			b.warn("no %s meld of %s matches %s", kind, seat, e.Tile)
			return
		}
		token, err := MeldToken(m)
		if err != nil {
			b.warn("%v", err)
			return
		}
		b.round.Discards[seat] = append(b.round.Discards[seat], TextToken(token))
	}
}

// take 找到第一个满足条件且未被使用的副露并标记为已使用
func (b *roundBuilder) take(seat core.Seat, used map[meldRef]bool, match func(core.Meld) bool) (core.Meld, bool) {
	for i, m := range b.state.Players[seat].Melds {
		ref := meldRef{seat: seat, index: i}
		if used[ref] || len(m.Tiles) == 0 || !match(m) {
			continue
		}
		used[ref] = true
		return m, true
	}
	return core.Meld{}, false
}

func (b *roundBuilder) outcome() *Outcome {
	res := b.state.Result
	if res == nil {
		return nil
	}
	st := res.Settlement

	if res.Kind == riichi.ResultExhaustiveDraw {
		out := &Outcome{Kind: OutcomeDraw, Deltas: st.Deltas}
		if len(st.Transfers) > 0 {
			out.Tenpai = make([]int, core.SeatCount)
			for i, t := range res.Tenpai {
				if t {
					out.Tenpai[i] = 1
				}
			}
		}
		return out
	}

	win := &WinDetail{Who: int(res.Winner), From: int(res.Loser), Pao: int(res.Winner)}
	if res.Score != nil {
		dealer := res.Winner == b.state.Meta.Dealer()
		win.Summary = res.Score.Summary(dealer, res.Kind == riichi.ResultTsumo)
		for _, y := range res.Score.Yaku {
			win.Yaku = append(win.Yaku, y.KifuString())
		}
	}
	return &Outcome{Kind: OutcomeWin, Deltas: st.Net(), Win: win}
}
