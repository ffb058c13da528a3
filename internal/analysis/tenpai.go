package analysis

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/riichi"
	"sudooom.kifu/internal/game/mahjong/scoring"
)

// TenpaiClient 听牌查询
type TenpaiClient interface {
	Tenpai(ctx context.Context, req TenpaiRequest) (*TenpaiResult, error)
}

// TenpaiService 带缓存的听牌查询
// 先查进程内缓存，再查二级缓存 (Redis)，相同手牌的并发请求只发一次
type TenpaiService struct {
	client TenpaiClient
	local  *MemoryCache
	remote Cache
	group  singleflight.Group
	logger *slog.Logger
}

// NewTenpaiService 创建听牌查询服务，remote 可以为空
func NewTenpaiService(client TenpaiClient, local *MemoryCache, remote Cache) *TenpaiService {
	if local == nil {
		local = NewMemoryCache(0)
	}
	return &TenpaiService{
		client: client,
		local:  local,
		remote: remote,
		logger: slog.Default().With("component", "TenpaiService"),
	}
}

// Lookup 查询一手牌的听牌
// 赤五按普通五查询，结果按签名缓存
func (s *TenpaiService) Lookup(ctx context.Context, concealed []core.Tile, melds []core.Meld) (*TenpaiResult, error) {
	key := core.Signature(concealed, melds)
	if r, ok, _ := s.local.Get(ctx, key); ok {
		return r, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if s.remote != nil {
			r, ok, err := s.remote.Get(ctx, key)
			if err != nil {
				s.logger.Warn("Tenpai cache read failed", "error", err)
			} else if ok {
				_ = s.local.Set(ctx, key, r)
				return r, nil
			}
		}

		req := TenpaiRequest{Hand: core.SortedTiles(core.NormalizeTiles(concealed))}
		for _, m := range melds {
			req.Melds = append(req.Melds, scoring.MeldPayload{Kind: m.Kind.String(), Tiles: core.NormalizeTiles(m.Tiles)})
		}
		r, err := s.client.Tenpai(ctx, req)
		if err != nil {
			return nil, err
		}
		_ = s.local.Set(ctx, key, r)
		if s.remote != nil {
			if err := s.remote.Set(ctx, key, r); err != nil {
				s.logger.Warn("Tenpai cache write failed", "error", err)
			}
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TenpaiResult), nil
}

// SeatWaits 一个座位的听牌查询结果
// Err 不为空时该座位的听牌状态未确定
type SeatWaits struct {
	Seat      core.Seat
	Signature string
	Result    *TenpaiResult
	Err       error
}

// LookupAll 并发查询听牌结果已过期的座位
// 单个座位失败不影响其他座位，返回时所有查询都已结束
func (s *TenpaiService) LookupAll(ctx context.Context, state riichi.GameState) []SeatWaits {
	var pending []core.Seat
	for _, seat := range core.Seats {
		if !state.Players[seat].WaitsValid() {
			pending = append(pending, seat)
		}
	}

	results := make([]SeatWaits, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	for i, seat := range pending {
		i := i // per-iteration copy; go directive is pre-1.22 loopvar semantics
		p := state.Players[seat]
		results[i] = SeatWaits{Seat: seat, Signature: p.Signature()}
		g.Go(func() error {
			r, err := s.Lookup(gctx, p.Concealed, p.Melds)
			results[i].Result, results[i].Err = r, err
			return nil
		})
	}
	_ = g.Wait()
	return results
}
