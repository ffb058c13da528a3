package riichi

import (
	"sudooom.kifu/internal/game/mahjong/core"
)

// Draw 从牌山摸牌
func Draw(s GameState, seat core.Seat, tile core.Tile) (GameState, error) {
	if err := s.requirePhase(PhaseBeforeDraw); err != nil {
		return s, err
	}
	if err := s.requireTurn(seat); err != nil {
		return s, err
	}
	if s.Meta.LiveWall <= 0 {
		return s, ErrWallExhausted
	}
	tile, err := s.checkTile(tile)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	p := &next.Players[seat]
	p.Drawn = &tile
	p.DrawSource = DrawWall
	p.TempFuriten = false
	next.Meta.LiveWall--
	next.Phase = PhaseAfterDraw
	next.LastDiscard = nil
	next.Offers = nil
	next.record(TraceEntry{Kind: TraceDraw, Seat: seat, Tile: tile, Source: DrawWall})
	return next, nil
}

// DeclareRiichi 宣言立直，下一次打牌成为立直宣言牌
func DeclareRiichi(s GameState, seat core.Seat) (GameState, error) {
	if err := s.requirePhase(PhaseAfterDraw); err != nil {
		return s, err
	}
	if err := s.requireTurn(seat); err != nil {
		return s, err
	}
	if err := canRiichi(s, seat); err != nil {
		return s, err
	}

	next := s.Clone()
	next.Players[seat].RiichiPending = true
	return next, nil
}

// Discard 打牌
// 打出的牌与摸到的牌相同时视为摸切；其余情况摸到的牌并入手牌
func Discard(s GameState, seat core.Seat, tile core.Tile) (GameState, error) {
	if err := s.requirePhase(PhaseAfterDraw); err != nil {
		return s, err
	}
	if err := s.requireTurn(seat); err != nil {
		return s, err
	}
	tile, err := s.checkTile(tile)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	p := &next.Players[seat]

	tsumogiri := false
	switch {
	case p.Drawn != nil && *p.Drawn == tile:
		tsumogiri = true
	case core.CountTile(p.Concealed, tile) > 0:
	case p.Drawn != nil && p.Drawn.SameValue(tile):
		tile, tsumogiri = *p.Drawn, true
	case core.IndexOf(p.Concealed, tile) >= 0:
		tile = p.Concealed[core.IndexOf(p.Concealed, tile)]
	default:
		return s, ErrTileNotInHand.WithContext("tile", tile.String())
	}

	if p.InRiichi() && p.Drawn != nil && !tsumogiri {
		return s, ErrMustDiscardDrawn
	}

	if tsumogiri {
		p.Drawn = nil
	} else {
		p.Concealed, _ = core.RemoveTile(p.Concealed, tile)
		if p.Drawn != nil {
			p.Concealed = append(p.Concealed, *p.Drawn)
			p.Drawn = nil
		}
	}
	core.SortTiles(p.Concealed)
	p.DrawSource = DrawNone

	declaring := p.RiichiPending
	if declaring {
		p.RiichiPending = false
		p.Ippatsu = true
		p.RiichiIndex = p.DiscardCount
		if p.DiscardCount == 0 && !next.CallsMade {
			p.DoubleRiichi = true
		} else {
			p.Riichi = true
		}
		next.Meta.Points[seat] -= RiichiDeposit
		next.Meta.RiichiSticks++
	} else if p.InRiichi() {
		p.Ippatsu = false
	}

	index := p.DiscardCount
	p.Discards = append(p.Discards, RiverTile{Tile: tile, Index: index, Tsumogiri: tsumogiri, Riichi: declaring})
	p.DiscardCount++

	next.LastDiscard = &LastDiscard{Seat: seat, Tile: tile, Index: index}
	next.Phase = PhaseAwaitingCall
	next.record(TraceEntry{Kind: TraceDiscard, Seat: seat, Tile: tile, Tsumogiri: tsumogiri, Riichi: declaring})
	next.Offers = computeOffers(next)
	return next, nil
}

// AdvanceToNextDraw 无人鸣牌，轮到下家摸牌
// 放弃荣和的座位本巡振听，立直中放弃则永久振听
func AdvanceToNextDraw(s GameState) (GameState, error) {
	if err := s.requirePhase(PhaseAwaitingCall); err != nil {
		return s, err
	}
	if s.Meta.LiveWall <= 0 {
		return s, ErrWallExhausted
	}

	next := s.Clone()
	for _, c := range s.Offers {
		if c.Kind != CallRon {
			continue
		}
		p := &next.Players[c.Seat]
		p.TempFuriten = true
		if p.InRiichi() {
			p.RiichiFuriten = true
		}
	}

	next.Turn = s.LastDiscard.Seat.Next()
	next.Phase = PhaseBeforeDraw
	next.LastDiscard = nil
	next.Offers = nil
	return next, nil
}

// RevealDora 填入已翻开但尚未录入的宝牌指示牌
func RevealDora(s GameState, tile core.Tile) (GameState, error) {
	if s.Phase == PhaseEnded {
		return s, ErrHandEnded
	}
	if len(s.Meta.DoraIndicators) >= s.Meta.DoraRevealed {
		return s, ErrNoHiddenIndicator
	}
	tile, err := s.checkTile(tile)
	if err != nil {
		return s, err
	}

	next := s.Clone()
	next.Meta.DoraIndicators = append(next.Meta.DoraIndicators, tile)
	next.Meta.DeadWall--
	next.record(TraceEntry{Kind: TraceDora, Seat: s.Turn, Tile: tile})
	return next, nil
}

// AttachWaits 写入听牌结果
// sig 与座位当前手牌签名不一致时视为过期结果，返回 false
func AttachWaits(s GameState, seat core.Seat, sig string, waits []core.Tile) (GameState, bool) {
	if !seat.Valid() || s.Players[seat].Signature() != sig {
		return s, false
	}

	next := s.Clone()
	p := &next.Players[seat]

	normalized := make([]core.Tile, 0, len(waits))
	for _, w := range waits {
		w = w.Normalized()
		if core.CountTile(normalized, w) == 0 {
			normalized = append(normalized, w)
		}
	}
	core.SortTiles(normalized)

	p.Waits = normalized
	p.WaitsKnown = true
	p.WaitsSig = sig
	p.Furiten = false
	for _, d := range discardedBy(next, seat) {
		if core.CountValue(normalized, d) > 0 {
			p.Furiten = true
			break
		}
	}

	if next.Phase == PhaseAwaitingCall {
		next.Offers = computeOffers(next)
	}
	return next, true
}

// discardedBy 座位打出过的全部牌，包括被鸣走的
func discardedBy(s GameState, seat core.Seat) []core.Tile {
	var tiles []core.Tile
	for _, e := range s.Trace {
		if e.Kind == TraceDiscard && e.Seat == seat {
			tiles = append(tiles, e.Tile)
		}
	}
	return tiles
}

// TenpaiFromWaits 由听牌结果推出各家是否听牌
// 任意一家结果未知时第二个返回值为 false
func TenpaiFromWaits(s GameState) ([core.SeatCount]bool, bool) {
	var tenpai [core.SeatCount]bool
	for _, seat := range core.Seats {
		p := s.Players[seat]
		if !p.WaitsValid() {
			return tenpai, false
		}
		tenpai[seat] = len(p.Waits) > 0
	}
	return tenpai, true
}
