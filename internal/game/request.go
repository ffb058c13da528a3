package game

import (
	"fmt"
	"strings"

	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/riichi"
)

// CreateGameRequest 创建牌局
type CreateGameRequest struct {
	Title    string        `json:"title"`
	Subtitle string        `json:"subtitle"`
	Names    [4]string     `json:"names"`
	Preset   string        `json:"preset"`
	Rules    *riichi.Rules `json:"rules,omitempty"` // 优先于 Preset
	Disp     string        `json:"disp"`
}

// StartHandRequest 开始一局
// Hands 依次为东南西北的配牌，如 "123m456p789s1122z"
type StartHandRequest struct {
	Hands [4]string         `json:"hands"`
	Dora  string            `json:"dora"`
	Round *riichi.RoundInfo `json:"round,omitempty"` // 为空时按上一局结果推算
}

// 操作类型
const (
	ActDraw    = "draw"
	ActDiscard = "discard"
	ActRiichi  = "riichi"
	ActChi     = "chi"
	ActPon     = "pon"
	ActKan     = "kan"     // 大明杠
	ActSelfKan = "selfkan" // 暗杠、加杠
	ActPass    = "pass"
	ActDora    = "dora"
)

// ActionRequest 记录一次操作
// Seat 为空时取当前轮到的座位
type ActionRequest struct {
	Kind        string `json:"kind" binding:"required"`
	Seat        string `json:"seat"`
	Tile        string `json:"tile"`
	Tiles       string `json:"tiles"`       // 吃碰杠用的手牌
	Replacement string `json:"replacement"` // 岭上牌
}

// WinRequest 和了
type WinRequest struct {
	Seat          string `json:"seat" binding:"required"`
	Tsumo         bool   `json:"tsumo"`
	Ura           string `json:"ura"`
	Chankan       bool   `json:"chankan"`
	NagashiMangan bool   `json:"nagashiMangan"`
	OpenRiichi    bool   `json:"openRiichi"`
	Paarenchan    int    `json:"paarenchan"`
	DoraOverride  int    `json:"doraOverride"` // 手动修正宝牌数
}

// DrawRequest 荒牌流局
// Tenpai 为空时使用听牌查询结果
type DrawRequest struct {
	Tenpai *[4]bool `json:"tenpai,omitempty"`
}

func parseTile(field, raw string) (core.Tile, error) {
	t, err := core.ParseTile(raw)
	if err != nil {
		return core.Tile{}, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, field, err)
	}
	return t, nil
}

func parseOptionalTile(field, raw string) (*core.Tile, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parseTile(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseTiles(field, raw string) ([]core.Tile, error) {
	tiles, err := core.ParseTiles(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, field, err)
	}
	return tiles, nil
}

// resolveSeat 解析座位，为空时取 fallback
func resolveSeat(raw string, fallback core.Seat) (core.Seat, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	seat, err := core.ParseSeat(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: seat: %v", ErrInvalidRequest, err)
	}
	return seat, nil
}

// transition 把操作请求转换为状态转换
func (req ActionRequest) transition() (Transition, error) {
	kind := strings.ToLower(strings.TrimSpace(req.Kind))

	tile, err := parseOptionalTile("tile", req.Tile)
	if err != nil {
		return nil, err
	}
	replacement, err := parseOptionalTile("replacement", req.Replacement)
	if err != nil {
		return nil, err
	}
	tiles, err := parseTiles("tiles", req.Tiles)
	if err != nil {
		return nil, err
	}
	needTile := func() error {
		if tile == nil {
			return fmt.Errorf("%w: tile is required for %s", ErrInvalidRequest, kind)
		}
		return nil
	}

	switch kind {
	case ActDraw, ActDiscard, ActSelfKan, ActDora:
		if err := needTile(); err != nil {
			return nil, err
		}
	case ActRiichi, ActChi, ActPon, ActKan, ActPass:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Kind)
	}

	return func(s riichi.GameState) (riichi.GameState, error) {
		seat, err := resolveSeat(req.Seat, s.Turn)
		if err != nil {
			return s, err
		}

		switch kind {
		case ActDraw:
			return riichi.Draw(s, seat, *tile)
		case ActDiscard:
			return riichi.Discard(s, seat, *tile)
		case ActRiichi:
			next, err := riichi.DeclareRiichi(s, seat)
			if err != nil || tile == nil {
				return next, err
			}
			// 宣言和宣言牌在同一步，撤销时一起撤销
			return riichi.Discard(next, seat, *tile)
		case ActChi, ActPon, ActKan:
			meldKind := map[string]core.MeldKind{
				ActChi: core.MeldChi,
				ActPon: core.MeldPon,
				ActKan: core.MeldDaiminkan,
			}[kind]
			return riichi.Claim(s, riichi.ClaimRequest{
				Seat:        seat,
				Kind:        meldKind,
				Tiles:       tiles,
				Replacement: replacement,
			})
		case ActSelfKan:
			return riichi.SelfKan(s, seat, *tile, replacement)
		case ActPass:
			return riichi.AdvanceToNextDraw(s)
		case ActDora:
			return riichi.RevealDora(s, *tile)
		default:
			return s, fmt.Errorf("%w: %q", ErrUnknownAction, req.Kind)
		}
	}, nil
}

// claim 转换为和了宣言
func (req WinRequest) claim() (riichi.WinClaim, error) {
	seat, err := core.ParseSeat(req.Seat)
	if err != nil {
		return riichi.WinClaim{}, fmt.Errorf("%w: seat: %v", ErrInvalidRequest, err)
	}
	ura, err := parseTiles("ura", req.Ura)
	if err != nil {
		return riichi.WinClaim{}, err
	}
	return riichi.WinClaim{
		Seat:          seat,
		Tsumo:         req.Tsumo,
		UraIndicators: ura,
		Chankan:       req.Chankan,
		NagashiMangan: req.NagashiMangan,
		OpenRiichi:    req.OpenRiichi,
		Paarenchan:    req.Paarenchan,
	}, nil
}
