package kifu

import (
	"errors"
	"fmt"

	"sudooom.kifu/internal/game/mahjong/core"
)

// 牌谱中的特殊编码
const (
	CodeTsumogiri = 60 // 摸切
	CodeKanSlot   = 0  // 大明杠占用的打牌位置
)

// ErrUnknownCode 无法识别的牌编码
var ErrUnknownCode = errors.New("kifu: unknown tile code")

var suitBase = map[core.Suit]int{
	core.SuitMan: 10,
	core.SuitPin: 20,
	core.SuitSou: 30,
}

var redCodes = map[core.Suit]int{
	core.SuitMan: 51,
	core.SuitPin: 52,
	core.SuitSou: 53,
}

// Encode 牌 -> 两位数编码
// 万 11-19，筒 21-29，索 31-39，字牌 41-47，赤五 51/52/53
func Encode(tile core.Tile) (int, error) {
	tile = tile.Canonical()
	if !tile.Valid() {
		return 0, fmt.Errorf("%w: %v", core.ErrInvalidTile, tile)
	}
	if tile.IsHonor() {
		return 40 + int(tile.Rank), nil
	}
	if tile.Red {
		return redCodes[tile.Suit], nil
	}
	return suitBase[tile.Suit] + int(tile.Rank), nil
}

// Decode 两位数编码 -> 牌
func Decode(code int) (core.Tile, error) {
	switch {
	case code >= 11 && code <= 39 && code%10 != 0:
		suit := []core.Suit{core.SuitMan, core.SuitPin, core.SuitSou}[code/10-1]
		return core.NewTile(suit, int8(code%10)), nil
	case code >= 41 && code <= 47:
		return core.Honor(int8(code - 40)), nil
	case code >= 51 && code <= 53:
		suit := []core.Suit{core.SuitMan, core.SuitPin, core.SuitSou}[code-51]
		return core.RedFive(suit), nil
	default:
		return core.Tile{}, fmt.Errorf("%w: %d", ErrUnknownCode, code)
	}
}

// Mnemonic 编码的可读形式：数牌为 "1m" "0p"，字牌为 "TON" "CHU" 等
func Mnemonic(code int) (string, error) {
	tile, err := Decode(code)
	if err != nil {
		return "", err
	}
	if tile.IsHonor() {
		return core.HonorMnemonic(tile.Rank), nil
	}
	return tile.String(), nil
}

// EncodeTiles 批量编码，无法编码的牌跳过并返回警告
func EncodeTiles(tiles []core.Tile) ([]int, []string) {
	codes := make([]int, 0, len(tiles))
	var warnings []string
	for _, t := range tiles {
		code, err := Encode(t)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		codes = append(codes, code)
	}
	return codes, warnings
}
