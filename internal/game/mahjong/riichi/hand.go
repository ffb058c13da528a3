package riichi

import (
	"sudooom.kifu/internal/game/mahjong/core"
)

// HandSetup 开局参数
type HandSetup struct {
	RoundInfo
	Hands         [core.SeatCount][]core.Tile
	DoraIndicator *core.Tile
	Rules         Rules
}

// NewHand 创建一局的初始状态
// 每家 13 张配牌，轮到庄家摸牌
func NewHand(setup HandSetup) (GameState, error) {
	if setup.HandNumber < 1 || setup.HandNumber > core.SeatCount {
		return GameState{}, ErrInvalidMove.WithContext("handNumber", setup.HandNumber)
	}
	if !setup.RoundWind.Valid() {
		return GameState{}, ErrInvalidSeat.WithContext("roundWind", int(setup.RoundWind))
	}

	s := GameState{
		Rules: setup.Rules,
		Meta: RoundMeta{
			RoundInfo:    setup.RoundInfo,
			StartPoints:  setup.Points,
			StartSticks:  setup.RiichiSticks,
			DoraRevealed: 1,
			LiveWall:     InitialLive,
			DeadWall:     DeadWallSize,
		},
		Phase: PhaseBeforeDraw,
	}
	s.Turn = s.Meta.Dealer()

	for _, seat := range core.Seats {
		hand := setup.Hands[seat]
		if len(hand) != HandSize {
			return GameState{}, ErrInvalidHandSize.WithContext("seat", seat.String()).WithContext("size", len(hand))
		}
		tiles := make([]core.Tile, len(hand))
		for i, t := range hand {
			tile, err := s.checkTile(t)
			if err != nil {
				return GameState{}, err
			}
			tiles[i] = tile
		}
		core.SortTiles(tiles)

		s.Players[seat] = PlayerState{
			Concealed:   tiles,
			Closed:      true,
			RiichiIndex: -1,
		}
		s.InitialHands[seat] = core.CloneTiles(tiles)
	}

	if setup.DoraIndicator != nil {
		return RevealDora(s, *setup.DoraIndicator)
	}
	return s, nil
}
