package riichi

import "sudooom.kifu/internal/game/mahjong/core"

// NextRound 根据本局结果推出下一局的场况
// 庄家和了或流局听牌时连庄；连庄或流局时本场加一
func NextRound(s GameState) (RoundInfo, bool) {
	if s.Result == nil {
		return RoundInfo{}, false
	}
	info := s.Meta.RoundInfo
	info.Points = s.Meta.Points
	info.RiichiSticks = s.Meta.RiichiSticks
	dealer := s.Meta.Dealer()

	var renchan bool
	switch s.Result.Kind {
	case ResultExhaustiveDraw:
		renchan = s.Result.Tenpai[dealer]
		info.Honba++
	default:
		renchan = s.Result.Winner == dealer
		if renchan {
			info.Honba++
		} else {
			info.Honba = 0
		}
	}

	if !renchan {
		info.HandNumber++
		if info.HandNumber > core.SeatCount {
			info.HandNumber = 1
			info.RoundWind = info.RoundWind.Next()
		}
	}
	return info, true
}
