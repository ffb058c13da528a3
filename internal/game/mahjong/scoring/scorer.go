package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Scorer 外部评分服务
type Scorer interface {
	ScoreHand(ctx context.Context, req Request) (*Response, error)
}

// Result 规范化后的评分结果
type Result struct {
	Han     int        `json:"han"`
	Fu      int        `json:"fu"`
	Yakuman int        `json:"yakuman"`
	Cost    Cost       `json:"cost"`
	Yaku    []Yaku     `json:"yaku"`
	Dora    DoraCounts `json:"dora"`
	Variant string     `json:"variant"`
}

// Summary 牌谱中的点数说明，如 "30符3飜3900点" "満貫8000点" "1300-2600点" "4000点∀"
func (r Result) Summary(dealer, tsumo bool) string {
	var points string
	switch {
	case !tsumo:
		points = fmt.Sprintf("%d点", r.Cost.Main)
	case dealer:
		points = fmt.Sprintf("%d点∀", r.Cost.Main)
	default:
		points = fmt.Sprintf("%d-%d点", r.Cost.Additional, r.Cost.Main)
	}
	if r.Cost.Limit != LimitNone {
		return r.Cost.Limit.Label() + points
	}
	return fmt.Sprintf("%d符%d飜%s", r.Fu, r.Han, points)
}

// Resolve 按 Variants 的顺序提交，返回第一个有番数的响应
// 全部失败时返回第一次尝试的响应
func Resolve(ctx context.Context, scorer Scorer, req Request) (*Response, string, error) {
	var (
		firstResp    *Response
		firstErr     error
		firstVariant string
	)

	for i, v := range Variants {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		resp, err := scorer.ScoreHand(ctx, v.Apply(req))
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return nil, "", err
		}
		if i == 0 {
			firstResp, firstErr, firstVariant = resp, err, v.Name
		}
		if err != nil {
			slog.Debug("Scoring attempt failed", "variant", v.Name, "error", err)
			continue
		}
		if resp.Scored() {
			return resp, v.Name, nil
		}
		slog.Debug("Scoring attempt rejected", "variant", v.Name, "error", resp.Error)
	}

	return firstResp, firstVariant, firstErr
}

// Engine 评分引擎：校验、提交、规范化
type Engine struct {
	scorer Scorer
	logger *slog.Logger
}

// NewEngine 创建评分引擎
func NewEngine(scorer Scorer) *Engine {
	return &Engine{
		scorer: scorer,
		logger: slog.Default().With("component", "ScoringEngine"),
	}
}

// Score 计算和了结果
func (e *Engine) Score(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrScoringRejected, err)
	}

	resp, variant, err := Resolve(ctx, e.scorer, req)
	if err != nil {
		return Result{}, err
	}
	if resp == nil {
		return Result{Variant: variant}, ErrScoringRejected
	}
	if !resp.Scored() {
		e.logger.Info("Hand rejected by scorer", "error", resp.Error, "variant", variant)
		return Result{Variant: variant}, resp.Err()
	}

	result := BuildResult(req, resp.Result)
	result.Variant = variant
	return result, nil
}

// BuildResult 由评分服务的番符重新计算支付额
func BuildResult(req Request, raw *ResponseResult) Result {
	yaku := NormalizeYaku(raw.Yaku, req.IsClosed)
	yakuman := YakumanMultiplier(yaku)

	return Result{
		Han:     raw.Han,
		Fu:      raw.Fu,
		Yakuman: yakuman,
		Cost:    ComputeCost(raw.Han, raw.Fu, yakuman, req.Dealer, req.Tsumo()),
		Yaku:    yaku,
		Dora:    CountDora(req.AllTiles(), req.DoraIndicators, req.UraDoraIndicators, req.InRiichi()),
	}
}
