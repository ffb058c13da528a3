package riichi

import (
	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/scoring"
)

// WinClaim 和了宣言
type WinClaim struct {
	Seat          core.Seat   `json:"seat"`
	Tsumo         bool        `json:"tsumo"`
	UraIndicators []core.Tile `json:"uraIndicators"`

	// 无法从牌局状态推出的条件由记录者指定
	Chankan       bool `json:"chankan"`
	NagashiMangan bool `json:"nagashiMangan"`
	OpenRiichi    bool `json:"openRiichi"`
	Paarenchan    int  `json:"paarenchan"`
}

func (s GameState) checkWin(claim WinClaim) error {
	if !claim.Seat.Valid() {
		return ErrInvalidSeat
	}
	p := s.Players[claim.Seat]
	if claim.Tsumo {
		if err := s.requirePhase(PhaseAfterDraw); err != nil {
			return err
		}
		if err := s.requireTurn(claim.Seat); err != nil {
			return err
		}
		if p.Drawn == nil {
			return ErrCannotWin.WithContext("reason", "no drawn tile")
		}
		return nil
	}

	if err := s.requirePhase(PhaseAwaitingCall); err != nil {
		return err
	}
	if s.LastDiscard == nil || s.LastDiscard.Seat == claim.Seat {
		return ErrCannotWin.WithContext("reason", "no discard to ron")
	}
	if p.IsFuriten() {
		return ErrFuriten.WithContext("seat", claim.Seat.String())
	}
	return nil
}

func (s GameState) winTile(claim WinClaim) core.Tile {
	if claim.Tsumo {
		return *s.Players[claim.Seat].Drawn
	}
	return s.LastDiscard.Tile
}

// PrepareWin 由牌局状态生成评分请求
func PrepareWin(s GameState, claim WinClaim) (scoring.Request, error) {
	if err := s.checkWin(claim); err != nil {
		return scoring.Request{}, err
	}

	seat := claim.Seat
	p := s.Players[seat]
	dealer := s.Meta.Dealer()
	firstTurn := p.DiscardCount == 0 && !s.CallsMade

	req := scoring.Request{
		Hand:            core.SortedTiles(p.Concealed),
		WinTile:         s.winTile(claim),
		WinType:         scoring.WinTypeRon,
		IsClosed:        p.Closed,
		Riichi:          p.Riichi,
		IsDaburuRiichi:  p.DoubleRiichi,
		Ippatsu:         p.Ippatsu,
		IsChankan:       claim.Chankan,
		IsNagashiMangan: claim.NagashiMangan,
		IsOpenRiichi:    claim.OpenRiichi,
		Paarenchan:      claim.Paarenchan,
		RoundWind:       s.Meta.RoundWind.String(),
		SeatWind:        s.Meta.SeatWind(seat).String(),
		Dealer:          seat == dealer,
		DoraIndicators:  core.CloneTiles(s.Meta.DoraIndicators),
		Honba:           s.Meta.Honba,
		RiichiSticks:    s.Meta.RiichiSticks,
	}
	if p.InRiichi() {
		req.UraDoraIndicators = core.CloneTiles(claim.UraIndicators)
		if len(req.UraDoraIndicators) == 0 {
			req.UraDoraIndicators = core.CloneTiles(s.Meta.UraIndicators)
		}
	}

	if claim.Tsumo {
		req.WinType = scoring.WinTypeTsumo
		req.IsRinshan = p.DrawSource == DrawDeadWall
		req.IsHaitei = p.DrawSource == DrawWall && s.Meta.LiveWall == 0
		req.IsTenhou = firstTurn && seat == dealer
		req.IsChiihou = firstTurn && seat != dealer
	} else {
		req.IsHoutei = s.Meta.LiveWall == 0
		req.IsRenhou = firstTurn && seat != dealer
	}

	for _, m := range p.Melds {
		req.Melds = append(req.Melds, meldPayload(m))
	}
	return req, nil
}

func meldPayload(m core.Meld) scoring.MeldPayload {
	payload := scoring.MeldPayload{Kind: m.Kind.String(), Tiles: core.CloneTiles(m.Tiles)}
	if m.Called != nil {
		called := *m.Called
		payload.CalledTile = &called
		payload.CalledFrom = m.From.String()
	}
	return payload
}

// ApplyWin 写入和了结果并结算
func ApplyWin(s GameState, claim WinClaim, result scoring.Result) (GameState, error) {
	if err := s.checkWin(claim); err != nil {
		return s, err
	}

	next := s.Clone()
	seat := claim.Seat
	p := next.Players[seat]
	tile := s.winTile(claim)

	if p.InRiichi() && len(claim.UraIndicators) > 0 {
		limit := next.Meta.DoraRevealed
		ura := core.CloneTiles(claim.UraIndicators)
		if len(ura) > limit {
			ura = ura[:limit]
		}
		next.Meta.DeadWall += len(next.Meta.UraIndicators) - len(ura)
		next.Meta.UraIndicators = ura
	}

	var st Settlement
	hr := &HandResult{Winner: seat, Score: &result}
	if claim.Tsumo {
		hr.Kind = ResultTsumo
		hr.Loser = seat
		st = SettleTsumo(next.Meta, seat, result.Cost)
		next.record(TraceEntry{Kind: TraceTsumo, Seat: seat, Tile: tile, From: seat})
	} else {
		loser := s.LastDiscard.Seat
		lp := s.Players[loser]
		refund := next.Rules.RiichiDiscardRefund && lp.InRiichi() && lp.RiichiIndex == s.LastDiscard.Index
		hr.Kind = ResultRon
		hr.Loser = loser
		st = SettleRon(next.Meta, seat, loser, result.Cost, refund)
		next.record(TraceEntry{Kind: TraceRon, Seat: seat, Tile: tile, From: loser})
	}

	st.Apply(&next.Meta)
	hr.Settlement = st
	next.Result = hr
	next.Phase = PhaseEnded
	next.Offers = nil
	return next, nil
}

// ExhaustiveDraw 荒牌流局
func ExhaustiveDraw(s GameState, tenpai [core.SeatCount]bool) (GameState, error) {
	if s.Phase == PhaseEnded {
		return s, ErrHandEnded
	}
	if s.Phase == PhaseAfterDraw {
		return s, ErrInvalidGamePhase.WithContext("phase", s.Phase.String())
	}
	if s.Meta.LiveWall > 0 {
		return s, ErrInvalidMove.WithContext("reason", "wall not exhausted").WithContext("liveWall", s.Meta.LiveWall)
	}

	next := s.Clone()
	st := SettleExhaustiveDraw(tenpai)
	st.Apply(&next.Meta)
	next.Result = &HandResult{Kind: ResultExhaustiveDraw, Winner: -1, Loser: -1, Tenpai: tenpai, Settlement: st}
	next.Phase = PhaseEnded
	next.Offers = nil
	next.record(TraceEntry{Kind: TraceExhaustiveDraw, Seat: s.Turn})
	return next, nil
}
