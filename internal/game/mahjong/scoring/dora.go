package scoring

import "sudooom.kifu/internal/game/mahjong/core"

// MaxIndicators 最多翻开的宝牌指示牌数 (初始 1 张 + 4 次杠)
const MaxIndicators = 5

// DoraFromIndicator 由指示牌求宝牌
// 数牌 9 之后是 1，风牌 东→南→西→北→东，三元牌 白→发→中→白
func DoraFromIndicator(indicator core.Tile) core.Tile {
	t := indicator.Normalized()
	if !t.IsHonor() {
		if t.Rank == 9 {
			return core.NewTile(t.Suit, 1)
		}
		return core.NewTile(t.Suit, t.Rank+1)
	}
	if t.Rank <= core.HonorNorth {
		return core.Honor(t.Rank%4 + 1)
	}
	return core.Honor((t.Rank-core.HonorWhite+1)%3 + core.HonorWhite)
}

// DoraCounts 和牌中各类宝牌数量
type DoraCounts struct {
	Dora int `json:"dora"`
	Ura  int `json:"ura"`
	Aka  int `json:"aka"`
}

// Total 宝牌总数
func (d DoraCounts) Total() int {
	return d.Dora + d.Ura + d.Aka
}

// CountDora 统计和牌中的宝牌
// tiles 需包含手牌、和了牌和所有副露的牌；里宝牌只在立直时计入
func CountDora(tiles []core.Tile, indicators, uraIndicators []core.Tile, riichi bool) DoraCounts {
	var counts DoraCounts
	counts.Dora = countMatches(tiles, indicators)
	if riichi {
		counts.Ura = countMatches(tiles, uraIndicators)
	}
	for _, t := range tiles {
		if t.Red {
			counts.Aka++
		}
	}
	return counts
}

func countMatches(tiles []core.Tile, indicators []core.Tile) int {
	if len(indicators) > MaxIndicators {
		indicators = indicators[:MaxIndicators]
	}
	n := 0
	for _, ind := range indicators {
		n += core.CountValue(tiles, DoraFromIndicator(ind))
	}
	return n
}
