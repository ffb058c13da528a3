package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit 牌的花色
type Suit int8

const (
	SuitMan   Suit = iota // 万子
	SuitPin               // 筒子
	SuitSou               // 索子
	SuitHonor             // 字牌 (1东 2南 3西 4北 5白 6发 7中)
)

// Letter 返回花色的单字母表示
func (s Suit) Letter() string {
	switch s {
	case SuitMan:
		return "m"
	case SuitPin:
		return "p"
	case SuitSou:
		return "s"
	case SuitHonor:
		return "z"
	default:
		return "?"
	}
}

// 字牌序号
const (
	HonorEast  int8 = 1
	HonorSouth int8 = 2
	HonorWest  int8 = 3
	HonorNorth int8 = 4
	HonorWhite int8 = 5 // 白 (P)
	HonorGreen int8 = 6 // 发 (F)
	HonorRed   int8 = 7 // 中 (C)
)

var honorLetters = [...]string{"", "E", "S", "W", "N", "P", "F", "C"}

// Tile 麻将牌
// Red 只对数牌的 5 有意义
type Tile struct {
	Suit Suit
	Rank int8
	Red  bool
}

// NewTile 创建数牌
func NewTile(suit Suit, rank int8) Tile {
	return Tile{Suit: suit, Rank: rank}
}

// RedFive 创建赤五
func RedFive(suit Suit) Tile {
	return Tile{Suit: suit, Rank: 5, Red: true}
}

// Honor 创建字牌
func Honor(rank int8) Tile {
	return Tile{Suit: SuitHonor, Rank: rank}
}

// IsHonor 是否字牌
func (t Tile) IsHonor() bool {
	return t.Suit == SuitHonor
}

// IsTerminal 是否老头牌 (数牌 1/9)
func (t Tile) IsTerminal() bool {
	return !t.IsHonor() && (t.Rank == 1 || t.Rank == 9)
}

// Valid 检查牌是否合法
func (t Tile) Valid() bool {
	switch t.Suit {
	case SuitMan, SuitPin, SuitSou:
		if t.Rank < 1 || t.Rank > 9 {
			return false
		}
		return !t.Red || t.Rank == 5
	case SuitHonor:
		return t.Rank >= 1 && t.Rank <= 7 && !t.Red
	default:
		return false
	}
}

// Canonical 返回规范化后的牌
// 对已规范化的牌再次调用结果不变
func (t Tile) Canonical() Tile {
	if t.Red && (t.Suit == SuitHonor || t.Rank != 5) {
		t.Red = false
	}
	return t
}

// Normalized 去掉赤宝牌标记，只保留牌值
func (t Tile) Normalized() Tile {
	t.Red = false
	return t
}

// SameValue 判断牌值是否相同 (赤五与普通五视为相同)
func (t Tile) SameValue(other Tile) bool {
	return t.Suit == other.Suit && t.Rank == other.Rank
}

// String 返回牌的文本表示: 1m..9m, 0m 为赤五, 字牌为 E S W N P F C
func (t Tile) String() string {
	if !t.Valid() {
		return fmt.Sprintf("?%d%d", t.Suit, t.Rank)
	}
	if t.IsHonor() {
		return honorLetters[t.Rank]
	}
	if t.Red {
		return "0" + t.Suit.Letter()
	}
	return fmt.Sprintf("%d%s", t.Rank, t.Suit.Letter())
}

// MarshalJSON 以文本形式输出
func (t Tile) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON 通过 ParseTile 解析
func (t *Tile) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTile(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Seat 座位 (东南西北，按逆时针顺序)
type Seat int8

const (
	East Seat = iota
	South
	West
	North
)

// SeatCount 座位数量
const SeatCount = 4

// Seats 全部座位
var Seats = [SeatCount]Seat{East, South, West, North}

// Next 下家
func (s Seat) Next() Seat {
	return Seat((int(s) + 1) % SeatCount)
}

// Prev 上家
func (s Seat) Prev() Seat {
	return Seat((int(s) + SeatCount - 1) % SeatCount)
}

// Opposite 对家
func (s Seat) Opposite() Seat {
	return Seat((int(s) + 2) % SeatCount)
}

// Offset 返回从 s 出发逆时针数到 other 的步数 (0..3)
func (s Seat) Offset(other Seat) int {
	return (int(other) - int(s) + SeatCount) % SeatCount
}

// Valid 检查座位是否合法
func (s Seat) Valid() bool {
	return s >= East && s <= North
}

func (s Seat) String() string {
	switch s {
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	case North:
		return "N"
	default:
		return "?"
	}
}

// ParseSeat 解析座位
func ParseSeat(s string) (Seat, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "E", "EAST", "0":
		return East, nil
	case "S", "SOUTH", "1":
		return South, nil
	case "W", "WEST", "2":
		return West, nil
	case "N", "NORTH", "3":
		return North, nil
	default:
		return 0, fmt.Errorf("invalid seat %q", s)
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (s Seat) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *Seat) UnmarshalText(text []byte) error {
	seat, err := ParseSeat(string(text))
	if err != nil {
		return err
	}
	*s = seat
	return nil
}

// Relation 相对位置
type Relation int8

const (
	RelationSelf     Relation = iota // 自家
	RelationShimocha                 // 下家
	RelationToimen                   // 对家
	RelationKamicha                  // 上家
)

// RelationOf 返回 other 相对 s 的位置
func (s Seat) RelationOf(other Seat) Relation {
	return Relation(s.Offset(other))
}

// MeldKind 副露类型
type MeldKind int8

const (
	MeldChi       MeldKind = iota // 吃
	MeldPon                       // 碰
	MeldDaiminkan                 // 大明杠
	MeldAnkan                     // 暗杠
	MeldKakan                     // 加杠
)

func (k MeldKind) String() string {
	switch k {
	case MeldChi:
		return "chi"
	case MeldPon:
		return "pon"
	case MeldDaiminkan:
		return "minkan"
	case MeldAnkan:
		return "ankan"
	case MeldKakan:
		return "kakan"
	default:
		return "unknown"
	}
}

// IsQuad 是否为杠
func (k MeldKind) IsQuad() bool {
	return k == MeldDaiminkan || k == MeldAnkan || k == MeldKakan
}

// MarshalText 实现 encoding.TextMarshaler
func (k MeldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Meld 副露
// Tiles 按牌桌上的摆放顺序排列，被叫的牌位于 CalledIndex
type Meld struct {
	Kind        MeldKind `json:"kind"`
	Tiles       []Tile   `json:"tiles"`
	Owner       Seat     `json:"owner"`
	From        Seat     `json:"from"`        // 被叫牌的来源，暗杠时等于 Owner
	Called      *Tile    `json:"called"`      // 被叫的牌，暗杠时为空
	CalledIndex int      `json:"calledIndex"` // 被叫的牌在 Tiles 中的位置，暗杠时为 -1
	Added       *Tile    `json:"added"`       // 加杠时补上的牌
}

// Open 是否为明副露 (暗杠不破门清)
func (m Meld) Open() bool {
	return m.Kind != MeldAnkan
}

// Clone 深拷贝
func (m Meld) Clone() Meld {
	c := m
	c.Tiles = CloneTiles(m.Tiles)
	if m.Called != nil {
		called := *m.Called
		c.Called = &called
	}
	if m.Added != nil {
		added := *m.Added
		c.Added = &added
	}
	return c
}

// CloneMelds 深拷贝副露列表
func CloneMelds(melds []Meld) []Meld {
	if melds == nil {
		return nil
	}
	result := make([]Meld, len(melds))
	for i, m := range melds {
		result[i] = m.Clone()
	}
	return result
}
