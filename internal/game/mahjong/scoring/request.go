package scoring

import (
	"errors"
	"fmt"
	"strings"

	"sudooom.kifu/internal/game/mahjong/core"
)

// 评分服务的和了类型
const (
	WinTypeRon   = "ron"
	WinTypeTsumo = "tsumo"
)

// MeldPayload 评分请求中的副露
type MeldPayload struct {
	Kind       string      `json:"kind"`
	Tiles      []core.Tile `json:"tiles"`
	CalledTile *core.Tile  `json:"calledTile,omitempty"`
	CalledFrom string      `json:"calledFrom,omitempty"`
}

// Request 评分请求 (POST /analysis/hand)
type Request struct {
	Hand    []core.Tile   `json:"hand"`
	WinTile core.Tile     `json:"winTile"`
	Melds   []MeldPayload `json:"melds"`
	WinType string        `json:"winType"`

	IsClosed        bool `json:"isClosed"`
	Riichi          bool `json:"riichi"`
	Ippatsu         bool `json:"ippatsu"`
	IsRinshan       bool `json:"is_rinshan"`
	IsChankan       bool `json:"is_chankan"`
	IsHaitei        bool `json:"is_haitei"`
	IsHoutei        bool `json:"is_houtei"`
	IsDaburuRiichi  bool `json:"is_daburu_riichi"`
	IsNagashiMangan bool `json:"is_nagashi_mangan"`
	IsTenhou        bool `json:"is_tenhou"`
	IsRenhou        bool `json:"is_renhou"`
	IsChiihou       bool `json:"is_chiihou"`
	IsOpenRiichi    bool `json:"is_open_riichi"`
	Paarenchan      int  `json:"paarenchan"`

	RoundWind         string      `json:"roundWind"`
	SeatWind          string      `json:"seatWind"`
	Dealer            bool        `json:"dealer"`
	DoraIndicators    []core.Tile `json:"doraIndicators"`
	UraDoraIndicators []core.Tile `json:"uraDoraIndicators"`
	Honba             int         `json:"honba"`
	RiichiSticks      int         `json:"riichiSticks"`
	Debug             bool        `json:"debug,omitempty"`
}

// Tsumo 是否自摸
func (r Request) Tsumo() bool {
	return r.WinType == WinTypeTsumo
}

// InRiichi 立直或两立直
func (r Request) InRiichi() bool {
	return r.Riichi || r.IsDaburuRiichi || r.IsOpenRiichi
}

// AllTiles 手牌、和了牌和副露的全部牌
func (r Request) AllTiles() []core.Tile {
	tiles := core.CloneTiles(r.Hand)
	tiles = append(tiles, r.WinTile)
	for _, m := range r.Melds {
		tiles = append(tiles, m.Tiles...)
	}
	return tiles
}

// Clone 深拷贝
func (r Request) Clone() Request {
	c := r
	c.Hand = core.CloneTiles(r.Hand)
	c.DoraIndicators = core.CloneTiles(r.DoraIndicators)
	c.UraDoraIndicators = core.CloneTiles(r.UraDoraIndicators)
	c.Melds = make([]MeldPayload, len(r.Melds))
	for i, m := range r.Melds {
		c.Melds[i] = MeldPayload{Kind: m.Kind, Tiles: core.CloneTiles(m.Tiles), CalledFrom: m.CalledFrom}
		if m.CalledTile != nil {
			called := *m.CalledTile
			c.Melds[i].CalledTile = &called
		}
	}
	return c
}

// Validate 提交前检查牌数，避免评分服务端报错
func (r Request) Validate() error {
	counts := make(map[core.Tile]int)
	reds := make(map[core.Tile]int)
	for _, t := range r.AllTiles() {
		if !t.Valid() {
			return fmt.Errorf("invalid tile: %s", t)
		}
		counts[t.Normalized()]++
		if t.Red {
			reds[t]++
		}
	}
	for t, n := range counts {
		if n > 4 {
			return fmt.Errorf("tile overflow: %s x%d", t, n)
		}
	}
	for t, n := range reds {
		if n > 1 {
			return fmt.Errorf("red overflow: %s x%d", t, n)
		}
	}
	return nil
}

// ResponseCost 评分服务返回的支付额
type ResponseCost struct {
	Main       int `json:"main"`
	Additional int `json:"additional"`
}

// ResponseResult 评分服务返回的结果
type ResponseResult struct {
	Han  int           `json:"han"`
	Fu   int           `json:"fu"`
	Cost *ResponseCost `json:"cost"`
	Yaku []string      `json:"yaku"`
}

// Response 评分服务响应
type Response struct {
	OK     bool            `json:"ok"`
	Result *ResponseResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	Debug  []string        `json:"debug,omitempty"`
}

// Scored 是否得到有效番数
func (r *Response) Scored() bool {
	return r != nil && r.OK && r.Result != nil && r.Result.Han > 0
}

// 评分服务的错误标识
var (
	ErrHandNotWinning       = errors.New("hand is not winning")
	ErrNoYaku               = errors.New("hand has no yaku")
	ErrWinTileNotInHand     = errors.New("winning tile not in hand")
	ErrOpenHandRiichi       = errors.New("riichi is not allowed with an open hand")
	ErrOpenHandDaburi       = errors.New("double riichi is not allowed with an open hand")
	ErrIppatsuWithoutRiichi = errors.New("ippatsu requires riichi")
	ErrScoringRejected      = errors.New("scoring rejected")
)

var responseErrors = map[string]error{
	"hand_not_winning":                   ErrHandNotWinning,
	"no_yaku":                            ErrNoYaku,
	"winning_tile_not_in_hand":           ErrWinTileNotInHand,
	"open_hand_riichi_not_allowed":       ErrOpenHandRiichi,
	"open_hand_daburi_not_allowed":       ErrOpenHandDaburi,
	"ippatsu_without_riichi_not_allowed": ErrIppatsuWithoutRiichi,
}

// Err 把响应中的错误标识转换为错误值
func (r *Response) Err() error {
	if r == nil {
		return ErrScoringRejected
	}
	if r.Scored() {
		return nil
	}
	if target, ok := responseErrors[strings.TrimSpace(r.Error)]; ok {
		return target
	}
	if r.Error != "" {
		return fmt.Errorf("%w: %s", ErrScoringRejected, r.Error)
	}
	return fmt.Errorf("%w: no han", ErrScoringRejected)
}
