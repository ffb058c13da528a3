package riichi

import (
	"sudooom.kifu/internal/game/mahjong/core"
)

// ClaimRequest 吃、碰、大明杠请求
type ClaimRequest struct {
	Seat        core.Seat
	Kind        core.MeldKind // MeldChi, MeldPon, MeldDaiminkan
	Tiles       []core.Tile   // 手牌中用于组成副露的牌，为空时自动选择
	Replacement *core.Tile    // 大明杠后的岭上牌
}

func claimCallKind(kind core.MeldKind) (CallKind, bool) {
	switch kind {
	case core.MeldChi:
		return CallChi, true
	case core.MeldPon:
		return CallPon, true
	case core.MeldDaiminkan:
		return CallKan, true
	default:
		return 0, false
	}
}

func claimError(kind core.MeldKind) *GameError {
	switch kind {
	case core.MeldChi:
		return ErrCannotChi
	case core.MeldPon:
		return ErrCannotPon
	default:
		return ErrCannotKan
	}
}

// Claim 鸣最近打出的牌
func Claim(s GameState, req ClaimRequest) (GameState, error) {
	if err := s.requirePhase(PhaseAwaitingCall); err != nil {
		return s, err
	}
	if !req.Seat.Valid() {
		return s, ErrInvalidSeat
	}
	callKind, ok := claimCallKind(req.Kind)
	if !ok {
		return s, ErrInvalidMove.WithContext("kind", req.Kind.String())
	}
	last := s.LastDiscard
	if last == nil || last.Seat == req.Seat {
		return s, claimError(req.Kind).WithContext("reason", "no discard to claim")
	}
	if s.Players[req.Seat].InRiichi() {
		return s, ErrRiichiLocked
	}
	offer, ok := findOffer(s, req.Seat, callKind)
	if !ok {
		return s, ErrCallNotOffered.WithContext("seat", req.Seat.String()).WithContext("kind", callKind.String())
	}

	used := req.Tiles
	if len(used) == 0 {
		used = offer.Options[0]
	}
	if err := checkClaimShape(req.Kind, used, last.Tile); err != nil {
		return s, err
	}
	p := s.Players[req.Seat]
	own, rest, ok := core.TakeTiles(p.Concealed, used)
	if !ok {
		return s, ErrTileNotInHand.WithContext("tiles", core.TilesString(used))
	}
	var replacement core.Tile
	if req.Kind == core.MeldDaiminkan {
		if req.Replacement == nil {
			return s, ErrReplacementMissing
		}
		var err error
		if replacement, err = s.checkTile(*req.Replacement); err != nil {
			return s, err
		}
	}

	next := s.Clone()
	claimant := &next.Players[req.Seat]
	claimant.Concealed = rest
	claimant.Melds = append(claimant.Melds, buildCalledMeld(req.Kind, req.Seat, last.Seat, own, last.Tile))
	claimant.Closed = false
	claimant.TempFuriten = false

	discarder := &next.Players[last.Seat]
	for i := len(discarder.Discards) - 1; i >= 0; i-- {
		if discarder.Discards[i].Index == last.Index {
			discarder.Discards = append(discarder.Discards[:i], discarder.Discards[i+1:]...)
			break
		}
	}

	clearIppatsu(&next)
	next.CallsMade = true
	next.Turn = req.Seat
	next.Phase = PhaseAfterDraw
	next.LastDiscard = nil
	next.Offers = nil

	traceKind := map[core.MeldKind]TraceKind{
		core.MeldChi:       TraceChi,
		core.MeldPon:       TracePon,
		core.MeldDaiminkan: TraceDaiminkan,
	}[req.Kind]
	next.record(TraceEntry{Kind: traceKind, Seat: req.Seat, Tile: last.Tile, From: last.Seat})

	if req.Kind == core.MeldDaiminkan {
		drawReplacement(&next, req.Seat, replacement)
	} else {
		claimant.Drawn = nil
		claimant.DrawSource = DrawCall
	}
	return next, nil
}

func checkClaimShape(kind core.MeldKind, used []core.Tile, called core.Tile) error {
	all := append(core.CloneTiles(used), called)
	switch kind {
	case core.MeldChi:
		if len(used) != 2 || !core.IsRun(all) {
			return ErrCannotChi.WithContext("tiles", core.TilesString(all))
		}
	case core.MeldPon:
		if len(used) != 2 || !core.AllSameValue(all) {
			return ErrCannotPon.WithContext("tiles", core.TilesString(all))
		}
	case core.MeldDaiminkan:
		if len(used) != 3 || !core.AllSameValue(all) {
			return ErrCannotKan.WithContext("tiles", core.TilesString(all))
		}
	}
	return nil
}

// buildCalledMeld 按来源摆放被叫的牌：上家放最左，对家放中间，下家放最右
func buildCalledMeld(kind core.MeldKind, owner, from core.Seat, own []core.Tile, called core.Tile) core.Meld {
	sorted := core.SortedTiles(own)

	var index int
	switch owner.RelationOf(from) {
	case core.RelationKamicha:
		index = 0
	case core.RelationToimen:
		index = 1
	default:
		index = len(sorted)
	}

	tiles := make([]core.Tile, 0, len(sorted)+1)
	tiles = append(tiles, sorted[:index]...)
	tiles = append(tiles, called)
	tiles = append(tiles, sorted[index:]...)

	c := called
	return core.Meld{
		Kind:        kind,
		Tiles:       tiles,
		Owner:       owner,
		From:        from,
		Called:      &c,
		CalledIndex: index,
	}
}

// SelfKan 暗杠或加杠
func SelfKan(s GameState, seat core.Seat, tile core.Tile, replacement *core.Tile) (GameState, error) {
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
	p := s.Players[seat]
	if p.InRiichi() && !s.Rules.AllowRiichiAnkan {
		return s, ErrRiichiLocked
	}
	if s.Meta.LiveWall <= 0 || totalKans(s) >= MaxKans {
		return s, ErrCannotKan.WithContext("reason", "no kan available")
	}
	if replacement == nil {
		return s, ErrReplacementMissing
	}
	rep, err := s.checkTile(*replacement)
	if err != nil {
		return s, err
	}

	hand := p.HandTiles()
	next := s.Clone()
	np := &next.Players[seat]

	if core.CountValue(hand, tile) == 4 {
		quad := valueTiles(hand, tile, 4)
		rest, _ := core.RemoveTiles(hand, quad)
		core.SortTiles(quad)
		np.Concealed = rest
		np.Melds = append(np.Melds, core.Meld{
			Kind:        core.MeldAnkan,
			Tiles:       quad,
			Owner:       seat,
			From:        seat,
			CalledIndex: -1,
		})
		next.record(TraceEntry{Kind: TraceAnkan, Seat: seat, Tile: tile, From: seat})
	} else {
		if p.InRiichi() {
			return s, ErrRiichiLocked
		}
		if p.Drawn == nil || p.DrawSource == DrawCall {
			return s, ErrCannotKan.WithContext("reason", "must draw before kakan")
		}
		meldIdx := -1
		for i, m := range p.Melds {
			if m.Kind == core.MeldPon && m.Tiles[0].SameValue(tile) {
				meldIdx = i
				break
			}
		}
		idx := core.IndexOf(hand, tile)
		if meldIdx < 0 || idx < 0 {
			return s, ErrCannotKan.WithContext("tile", tile.String())
		}
		added := hand[idx]
		rest, _ := core.RemoveTile(hand, added)
		np.Concealed = rest

		m := &np.Melds[meldIdx]
		insertAt := m.CalledIndex + 1
		tiles := make([]core.Tile, 0, 4)
		tiles = append(tiles, m.Tiles[:insertAt]...)
		tiles = append(tiles, added)
		tiles = append(tiles, m.Tiles[insertAt:]...)
		m.Tiles = tiles
		m.Kind = core.MeldKakan
		m.Added = &added
		next.record(TraceEntry{Kind: TraceKakan, Seat: seat, Tile: added, From: m.From})
	}

	core.SortTiles(np.Concealed)
	np.Drawn = nil
	clearIppatsu(&next)
	next.CallsMade = true
	drawReplacement(&next, seat, rep)
	return next, nil
}

// drawReplacement 杠后翻新宝牌并摸岭上牌
// 岭上牌取自王牌，牌山最后一张补入王牌
func drawReplacement(s *GameState, seat core.Seat, tile core.Tile) {
	if s.Meta.DoraRevealed < 5 {
		s.Meta.DoraRevealed++
	}
	s.Meta.LiveWall--

	p := &s.Players[seat]
	p.Drawn = &tile
	p.DrawSource = DrawDeadWall
	s.record(TraceEntry{Kind: TraceDraw, Seat: seat, Tile: tile, Source: DrawDeadWall})
}

func clearIppatsu(s *GameState) {
	for i := range s.Players {
		s.Players[i].Ippatsu = false
	}
}
