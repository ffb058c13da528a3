package riichi

import (
	"fmt"

	"sudooom.kifu/internal/game/mahjong/core"
)

// Warning 校验警告，不阻止继续记录
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// KnownTiles 已知位置的全部牌：手牌、摸牌、副露、牌河、宝牌指示牌
func (s GameState) KnownTiles() []core.Tile {
	var tiles []core.Tile
	for _, p := range s.Players {
		tiles = append(tiles, p.HandTiles()...)
		for _, m := range p.Melds {
			tiles = append(tiles, m.Tiles...)
		}
		for _, d := range p.Discards {
			tiles = append(tiles, d.Tile)
		}
	}
	tiles = append(tiles, s.Meta.DoraIndicators...)
	tiles = append(tiles, s.Meta.UraIndicators...)
	return tiles
}

// Validate 检查牌数守恒和每种牌的数量上限
func Validate(s GameState) []Warning {
	var warnings []Warning

	known := s.KnownTiles()
	total := len(known) + s.Meta.LiveWall + s.Meta.DeadWall
	if total != TotalTiles {
		warnings = append(warnings, Warning{
			Code:    "TILE_CONSERVATION",
			Message: fmt.Sprintf("tile count %d != %d (known %d, live %d, dead %d)", total, TotalTiles, len(known), s.Meta.LiveWall, s.Meta.DeadWall),
		})
	}

	counts := make(map[core.Tile]int)
	reds := make(map[core.Suit]int)
	for _, t := range known {
		counts[t.Normalized()]++
		if t.Red {
			reds[t.Suit]++
		}
	}
	for _, t := range sortedKeys(counts) {
		if n := counts[t]; n > 4 {
			warnings = append(warnings, Warning{Code: "TILE_OVERFLOW", Message: fmt.Sprintf("tile overflow: %s x%d", t, n)})
		}
	}
	for _, suit := range []core.Suit{core.SuitMan, core.SuitPin, core.SuitSou} {
		n := reds[suit]
		switch {
		case n > 0 && !s.Rules.Aka:
			warnings = append(warnings, Warning{Code: "RED_DISABLED", Message: fmt.Sprintf("red five %s present without aka", core.RedFive(suit))})
		case n > 1:
			warnings = append(warnings, Warning{Code: "RED_OVERFLOW", Message: fmt.Sprintf("red overflow: %s x%d", core.RedFive(suit), n)})
		}
	}

	if s.Phase == PhaseEnded {
		return warnings
	}
	for _, seat := range core.Seats {
		p := s.Players[seat]
		want := HandSize - 3*len(p.Melds)
		got := len(p.Concealed)
		if s.Phase == PhaseAfterDraw && seat == s.Turn {
			want++
			if p.Drawn != nil {
				got++
			}
		} else if p.Drawn != nil {
			got++
		}
		if got != want {
			warnings = append(warnings, Warning{
				Code:    "HAND_SIZE",
				Message: fmt.Sprintf("seat %s holds %d tiles, expected %d", seat, got, want),
			})
		}
	}

	return warnings
}

func sortedKeys(counts map[core.Tile]int) []core.Tile {
	keys := make([]core.Tile, 0, len(counts))
	for t := range counts {
		keys = append(keys, t)
	}
	core.SortTiles(keys)
	return keys
}
