package kifu

import (
	"fmt"
	"strconv"
	"strings"

	"sudooom.kifu/internal/game/mahjong/core"
)

var meldMarkers = map[core.MeldKind]byte{
	core.MeldChi:       'c',
	core.MeldPon:       'p',
	core.MeldDaiminkan: 'm',
	core.MeldAnkan:     'a',
	core.MeldKakan:     'k',
}

// MeldToken 副露的牌谱记法
// 标记字符放在被叫的牌之前；暗杠标记最后一张
// 加杠沿用碰的位置，k 后面是补上的牌，再接被叫的牌
func MeldToken(m core.Meld) (string, error) {
	marker, ok := meldMarkers[m.Kind]
	if !ok {
		return "", fmt.Errorf("kifu: unsupported meld kind %d", m.Kind)
	}

	tiles := m.Tiles
	var slot int
	switch m.Kind {
	case core.MeldAnkan:
		slot = len(m.Tiles) - 1
	case core.MeldKakan:
		slot = m.CalledIndex
		if slot < 0 || slot+1 >= len(m.Tiles) {
			return "", fmt.Errorf("kifu: kakan without added slot")
		}
		tiles = core.CloneTiles(m.Tiles)
		tiles[slot], tiles[slot+1] = tiles[slot+1], tiles[slot]
	default:
		slot = m.CalledIndex
	}
	if slot < 0 || slot >= len(tiles) {
		return "", fmt.Errorf("kifu: meld %s has no called slot", m.Kind)
	}
	return joinToken(tiles, marker, slot)
}

// PonToken 加杠之前那次碰的记法
func PonToken(m core.Meld) (string, error) {
	if m.Kind != core.MeldKakan {
		return MeldToken(m)
	}
	added := m.CalledIndex + 1
	if added <= 0 || added >= len(m.Tiles) {
		return "", fmt.Errorf("kifu: kakan without added slot")
	}
	tiles := make([]core.Tile, 0, 3)
	tiles = append(tiles, m.Tiles[:added]...)
	tiles = append(tiles, m.Tiles[added+1:]...)
	return joinToken(tiles, 'p', m.CalledIndex)
}

func joinToken(tiles []core.Tile, marker byte, slot int) (string, error) {
	var b strings.Builder
	for i, t := range tiles {
		code, err := Encode(t)
		if err != nil {
			return "", err
		}
		if i == slot {
			b.WriteByte(marker)
		}
		b.WriteString(strconv.Itoa(code))
	}
	return b.String(), nil
}

// ParseMeldToken 解析副露记法，返回类型、牌以及标记所在位置
func ParseMeldToken(token string) (core.MeldKind, []core.Tile, int, error) {
	var (
		kind  core.MeldKind
		found bool
		slot  = -1
		tiles []core.Tile
	)
	for i := 0; i < len(token); {
		ch := token[i]
		if ch < '0' || ch > '9' {
			if found {
				return 0, nil, 0, fmt.Errorf("kifu: meld token %q has two markers", token)
			}
			for k, m := range meldMarkers {
				if m == ch {
					kind, found = k, true
				}
			}
			if !found {
				return 0, nil, 0, fmt.Errorf("kifu: unknown meld marker %q", ch)
			}
			slot = len(tiles)
			i++
			continue
		}
		if i+2 > len(token) {
			return 0, nil, 0, fmt.Errorf("kifu: truncated meld token %q", token)
		}
		code, err := strconv.Atoi(token[i : i+2])
		if err != nil {
			return 0, nil, 0, fmt.Errorf("kifu: meld token %q: %w", token, err)
		}
		tile, err := Decode(code)
		if err != nil {
			return 0, nil, 0, err
		}
		tiles = append(tiles, tile)
		i += 2
	}
	if !found {
		return 0, nil, 0, fmt.Errorf("kifu: meld token %q has no marker", token)
	}
	want := 3
	if kind.IsQuad() {
		want = 4
	}
	if len(tiles) != want {
		return 0, nil, 0, fmt.Errorf("kifu: meld token %q has %d tiles", token, len(tiles))
	}
	return kind, tiles, slot, nil
}
