package riichi

import (
	"fmt"

	"sudooom.kifu/internal/game/mahjong/core"
)

// TraceKind 操作记录类型
type TraceKind int8

const (
	TraceDraw TraceKind = iota
	TraceDiscard
	TraceChi
	TracePon
	TraceDaiminkan
	TraceAnkan
	TraceKakan
	TraceDora
	TraceRon
	TraceTsumo
	TraceExhaustiveDraw
)

func (k TraceKind) String() string {
	switch k {
	case TraceDraw:
		return "draw"
	case TraceDiscard:
		return "discard"
	case TraceChi:
		return "chi"
	case TracePon:
		return "pon"
	case TraceDaiminkan:
		return "daiminkan"
	case TraceAnkan:
		return "ankan"
	case TraceKakan:
		return "kakan"
	case TraceDora:
		return "dora"
	case TraceRon:
		return "ron"
	case TraceTsumo:
		return "tsumo"
	case TraceExhaustiveDraw:
		return "exhaustive_draw"
	default:
		return "unknown"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (k TraceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MeldKind 产生副露的记录对应的副露类型
func (k TraceKind) MeldKind() (core.MeldKind, bool) {
	switch k {
	case TraceChi:
		return core.MeldChi, true
	case TracePon:
		return core.MeldPon, true
	case TraceDaiminkan:
		return core.MeldDaiminkan, true
	case TraceAnkan:
		return core.MeldAnkan, true
	case TraceKakan:
		return core.MeldKakan, true
	default:
		return 0, false
	}
}

// TraceEntry 一条操作记录
type TraceEntry struct {
	Kind      TraceKind  `json:"kind"`
	Seat      core.Seat  `json:"seat"`
	Tile      core.Tile  `json:"tile"`
	From      core.Seat  `json:"from"`
	Source    DrawSource `json:"source,omitempty"`
	Tsumogiri bool       `json:"tsumogiri,omitempty"`
	Riichi    bool       `json:"riichi,omitempty"`
}

func (e TraceEntry) String() string {
	switch e.Kind {
	case TraceDraw:
		if e.Source == DrawDeadWall {
			return fmt.Sprintf("%s draws %s from the dead wall", e.Seat, e.Tile)
		}
		return fmt.Sprintf("%s draws %s", e.Seat, e.Tile)
	case TraceDiscard:
		text := fmt.Sprintf("%s discards %s", e.Seat, e.Tile)
		if e.Tsumogiri {
			text += " (tsumogiri)"
		}
		if e.Riichi {
			text += " declaring riichi"
		}
		return text
	case TraceChi, TracePon, TraceDaiminkan:
		return fmt.Sprintf("%s calls %s on %s from %s", e.Seat, e.Kind, e.Tile, e.From)
	case TraceAnkan, TraceKakan:
		return fmt.Sprintf("%s declares %s with %s", e.Seat, e.Kind, e.Tile)
	case TraceDora:
		return fmt.Sprintf("dora indicator %s revealed", e.Tile)
	case TraceRon:
		return fmt.Sprintf("%s wins by ron on %s from %s", e.Seat, e.Tile, e.From)
	case TraceTsumo:
		return fmt.Sprintf("%s wins by tsumo on %s", e.Seat, e.Tile)
	case TraceExhaustiveDraw:
		return "exhaustive draw"
	default:
		return e.Kind.String()
	}
}
