package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidTile 无法识别的牌
var ErrInvalidTile = errors.New("invalid tile")

var honorAliases = map[string]int8{
	"e": HonorEast, "s": HonorSouth, "w": HonorWest, "n": HonorNorth,
	"p": HonorWhite, "f": HonorGreen, "c": HonorRed,
	// 三字母助记符
	"ton": HonorEast, "nan": HonorSouth, "sha": HonorWest, "pei": HonorNorth,
	"hak": HonorWhite, "hat": HonorGreen, "chu": HonorRed,
	// 分析服务使用的两字母编码
	"to": HonorEast, "na": HonorSouth, "sh": HonorWest, "pe": HonorNorth,
	"hk": HonorWhite, "ht": HonorGreen, "ty": HonorRed,
	"east": HonorEast, "south": HonorSouth, "west": HonorWest, "north": HonorNorth,
	"white": HonorWhite, "haku": HonorWhite, "green": HonorGreen, "hatsu": HonorGreen,
	"red": HonorRed, "chun": HonorRed,
}

var suitLetters = map[byte]Suit{'m': SuitMan, 'p': SuitPin, 's': SuitSou, 'z': SuitHonor}

// HonorMnemonic 返回字牌的三字母助记符
func HonorMnemonic(rank int8) string {
	switch rank {
	case HonorEast:
		return "TON"
	case HonorSouth:
		return "NAN"
	case HonorWest:
		return "SHA"
	case HonorNorth:
		return "PEI"
	case HonorWhite:
		return "HAK"
	case HonorGreen:
		return "HAT"
	case HonorRed:
		return "CHU"
	default:
		return ""
	}
}

// ParseTile 把各种文本写法统一解析为规范牌
// 所有进入牌局的牌都经过这里
func ParseTile(raw string) (Tile, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Tile{}, fmt.Errorf("%w: empty", ErrInvalidTile)
	}
	if rank, ok := honorAliases[s]; ok {
		return Honor(rank), nil
	}

	red := false
	if strings.HasPrefix(s, "r") && len(s) == 3 {
		red, s = true, s[1:]
	} else if strings.HasSuffix(s, "r") && len(s) == 3 {
		red, s = true, s[:2]
	}
	if len(s) != 2 {
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTile, raw)
	}

	digit, letter := s[0], s[1]
	if digit >= 'a' && digit <= 'z' {
		digit, letter = letter, digit
	}
	suit, ok := suitLetters[letter]
	if !ok || digit < '0' || digit > '9' {
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTile, raw)
	}
	rank := int8(digit - '0')
	if rank == 0 {
		if suit == SuitHonor {
			return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTile, raw)
		}
		rank, red = 5, true
	}

	t := Tile{Suit: suit, Rank: rank, Red: red}
	if red && rank != 5 {
		return Tile{}, fmt.Errorf("%w: only fives can be red: %q", ErrInvalidTile, raw)
	}
	if !t.Valid() {
		return Tile{}, fmt.Errorf("%w: %q", ErrInvalidTile, raw)
	}
	return t.Canonical(), nil
}

// MustParseTile 解析失败时 panic，只用于常量和测试
func MustParseTile(raw string) Tile {
	t, err := ParseTile(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseTiles 解析牌列表
// 支持空白/逗号分隔的写法，也支持 "123m456p" 这样的紧凑写法
func ParseTiles(raw string) ([]Tile, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})

	var tiles []Tile
	for _, field := range fields {
		if t, err := ParseTile(field); err == nil {
			tiles = append(tiles, t)
			continue
		}
		expanded, err := expandCompact(field)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, expanded...)
	}
	return tiles, nil
}

// expandCompact 展开 "406m" "EEE" 这类紧凑写法
func expandCompact(field string) ([]Tile, error) {
	var tiles []Tile
	var digits []byte
	for i := 0; i < len(field); i++ {
		c := field[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == 'm' || c == 'p' || c == 's' || c == 'z':
			if len(digits) == 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidTile, field)
			}
			for _, d := range digits {
				t, err := ParseTile(string([]byte{d, c}))
				if err != nil {
					return nil, err
				}
				tiles = append(tiles, t)
			}
			digits = digits[:0]
		default:
			if len(digits) > 0 {
				return nil, fmt.Errorf("%w: %q", ErrInvalidTile, field)
			}
			t, err := ParseTile(string(c))
			if err != nil {
				return nil, err
			}
			tiles = append(tiles, t)
		}
	}
	if len(digits) > 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTile, field)
	}
	return tiles, nil
}

// MustParseTiles 解析失败时 panic，只用于测试
func MustParseTiles(raw string) []Tile {
	tiles, err := ParseTiles(raw)
	if err != nil {
		panic(err)
	}
	return tiles
}

// Less 牌的排序：花色，牌值，同值时普通牌在赤牌之前
func Less(a, b Tile) bool {
	if a.Suit != b.Suit {
		return a.Suit < b.Suit
	}
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return !a.Red && b.Red
}

// SortTiles 对牌进行排序
func SortTiles(tiles []Tile) {
	sort.SliceStable(tiles, func(i, j int) bool {
		return Less(tiles[i], tiles[j])
	})
}

// SortedTiles 返回排序后的副本
func SortedTiles(tiles []Tile) []Tile {
	result := CloneTiles(tiles)
	SortTiles(result)
	return result
}

// CountTile 统计与 target 完全相同的牌数
func CountTile(tiles []Tile, target Tile) int {
	count := 0
	for _, t := range tiles {
		if t == target {
			count++
		}
	}
	return count
}

// CountValue 统计与 target 牌值相同的牌数 (赤五计入五)
func CountValue(tiles []Tile, target Tile) int {
	count := 0
	for _, t := range tiles {
		if t.SameValue(target) {
			count++
		}
	}
	return count
}

// IndexOf 查找牌的位置：优先完全相同，其次牌值相同
func IndexOf(tiles []Tile, target Tile) int {
	fallback := -1
	for i, t := range tiles {
		if t == target {
			return i
		}
		if fallback < 0 && t.SameValue(target) {
			fallback = i
		}
	}
	return fallback
}

// RemoveTile 从牌组中移除一张牌，返回新切片
// 第二个返回值表示是否找到
func RemoveTile(tiles []Tile, target Tile) ([]Tile, bool) {
	idx := IndexOf(tiles, target)
	if idx < 0 {
		return CloneTiles(tiles), false
	}
	result := make([]Tile, 0, len(tiles)-1)
	result = append(result, tiles[:idx]...)
	result = append(result, tiles[idx+1:]...)
	return result, true
}

// RemoveTiles 从牌组中移除多张牌，任意一张缺失时返回 false
func RemoveTiles(tiles []Tile, targets []Tile) ([]Tile, bool) {
	result := CloneTiles(tiles)
	for _, target := range targets {
		var ok bool
		result, ok = RemoveTile(result, target)
		if !ok {
			return CloneTiles(tiles), false
		}
	}
	return result, true
}

// TakeTiles 依次取出 targets 对应的牌，返回实际取出的牌 (保留赤标记) 和剩余的牌
func TakeTiles(tiles []Tile, targets []Tile) (taken, rest []Tile, ok bool) {
	rest = CloneTiles(tiles)
	for _, target := range targets {
		idx := IndexOf(rest, target)
		if idx < 0 {
			return nil, CloneTiles(tiles), false
		}
		taken = append(taken, rest[idx])
		rest = append(rest[:idx], rest[idx+1:]...)
	}
	return taken, rest, true
}

// ContainsTiles 检查牌组是否包含全部 targets (按多重集合计数)
func ContainsTiles(tiles []Tile, targets []Tile) bool {
	_, ok := RemoveTiles(tiles, targets)
	return ok
}

// CloneTiles 克隆牌组
func CloneTiles(tiles []Tile) []Tile {
	if tiles == nil {
		return nil
	}
	result := make([]Tile, len(tiles))
	copy(result, tiles)
	return result
}

// NormalizeTiles 返回去掉赤标记的副本
func NormalizeTiles(tiles []Tile) []Tile {
	result := make([]Tile, len(tiles))
	for i, t := range tiles {
		result[i] = t.Normalized()
	}
	return result
}

// IsRun 三张同花色连续数牌
func IsRun(tiles []Tile) bool {
	if len(tiles) != 3 {
		return false
	}
	sorted := SortedTiles(tiles)
	if sorted[0].IsHonor() || sorted[0].Suit != sorted[1].Suit || sorted[1].Suit != sorted[2].Suit {
		return false
	}
	return sorted[1].Rank == sorted[0].Rank+1 && sorted[2].Rank == sorted[1].Rank+1
}

// AllSameValue 全部牌值相同
func AllSameValue(tiles []Tile) bool {
	for i := 1; i < len(tiles); i++ {
		if !tiles[i].SameValue(tiles[0]) {
			return false
		}
	}
	return len(tiles) > 0
}

// TilesString 以空格连接牌的文本表示
func TilesString(tiles []Tile) string {
	parts := make([]string, len(tiles))
	for i, t := range tiles {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// Signature 手牌与副露的组合签名，用于识别过期的异步结果
// 赤五按普通五计算，顺序无关
func Signature(concealed []Tile, melds []Meld) string {
	var b strings.Builder
	for _, t := range SortedTiles(NormalizeTiles(concealed)) {
		b.WriteString(t.String())
	}
	for _, m := range melds {
		b.WriteByte('|')
		b.WriteString(m.Kind.String())
		b.WriteByte(':')
		for _, t := range SortedTiles(NormalizeTiles(m.Tiles)) {
			b.WriteString(t.String())
		}
	}
	return b.String()
}
