package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"sudooom.kifu/internal/game/mahjong/core"
	"sudooom.kifu/internal/game/mahjong/scoring"
)

// ErrUnavailable 分析服务不可用：网络错误、超时或非 2xx 响应
var ErrUnavailable = errors.New("analysis service unavailable")

// ErrRejected 分析服务拒绝了请求 (ok=false)
var ErrRejected = errors.New("analysis request rejected")

const (
	pathHand   = "/analysis/hand"
	pathTenpai = "/analysis/tenpai"
	pathImage  = "/analysis/tiles-from-image"

	maxResponseSize = 1 << 20
)

// Options 客户端配置
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	ImageTimeout time.Duration
}

// Client 分析服务 HTTP 客户端
type Client struct {
	baseURL      string
	timeout      time.Duration
	imageTimeout time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient 创建分析服务客户端
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.ImageTimeout <= 0 {
		opts.ImageTimeout = 30 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		timeout:      opts.Timeout,
		imageTimeout: opts.ImageTimeout,
		httpClient:   &http.Client{},
		logger:       slog.Default().With("component", "AnalysisClient"),
	}
}

// ScoreHand 调用评分服务，实现 scoring.Scorer
func (c *Client) ScoreHand(ctx context.Context, req scoring.Request) (*scoring.Response, error) {
	var resp scoring.Response
	if err := c.postJSON(ctx, pathHand, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TenpaiRequest 听牌查询
type TenpaiRequest struct {
	Hand  []core.Tile           `json:"hand"`
	Melds []scoring.MeldPayload `json:"melds"`
}

type tenpaiResponse struct {
	OK      bool     `json:"ok"`
	Status  string   `json:"status"`
	Shanten *int     `json:"shanten"`
	Waits   []string `json:"waits"`
	Error   string   `json:"error"`
}

// 听牌状态
const (
	StatusTenpai  = "tenpai"
	StatusShanten = "shanten"
	StatusAgari   = "agari"
)

// TenpaiResult 听牌查询结果
type TenpaiResult struct {
	Status  string      `json:"status"`
	Shanten int         `json:"shanten"`
	Waits   []core.Tile `json:"waits"`
}

// Tenpai 是否听牌
func (r TenpaiResult) Tenpai() bool {
	return r.Status == StatusTenpai && len(r.Waits) > 0
}

// Tenpai 查询听牌
func (c *Client) Tenpai(ctx context.Context, req TenpaiRequest) (*TenpaiResult, error) {
	var resp tenpaiResponse
	if err := c.postJSON(ctx, pathTenpai, req, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}

	result := &TenpaiResult{Status: resp.Status, Shanten: -2}
	if resp.Shanten != nil {
		result.Shanten = *resp.Shanten
	}
	for _, token := range resp.Waits {
		tile, err := core.ParseTile(token)
		if err != nil {
			c.logger.Warn("Skip unparsable wait", "tile", token, "error", err)
			continue
		}
		result.Waits = append(result.Waits, tile)
	}
	return result, nil
}

type recognizeResponse struct {
	OK    bool     `json:"ok"`
	Tiles []string `json:"tiles"`
	Raw   []string `json:"raw"`
	Error string   `json:"error"`
}

// Recognition 图片识别结果：前 13 张为手牌，第 14 张 (如果有) 为摸到的牌
type Recognition struct {
	Hand    []core.Tile `json:"hand"`
	Drawn   *core.Tile  `json:"drawn,omitempty"`
	Raw     []string    `json:"raw"`
	Skipped []string    `json:"skipped,omitempty"`
}

// RecognizeTiles 上传图片识别牌
func (c *Client) RecognizeTiles(ctx context.Context, filename string, image io.Reader) (*Recognition, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.imageTimeout)
	defer cancel()

	var resp recognizeResponse
	if err := c.do(ctx, pathImage, writer.FormDataContentType(), &body, &resp); err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}

	result := &Recognition{Raw: resp.Raw}
	var tiles []core.Tile
	for _, token := range resp.Tiles {
		tile, err := core.ParseTile(token)
		if err != nil {
			result.Skipped = append(result.Skipped, token)
			continue
		}
		tiles = append(tiles, tile)
	}
	switch {
	case len(tiles) > 13:
		drawn := tiles[13]
		result.Hand = tiles[:13]
		result.Drawn = &drawn
	default:
		result.Hand = tiles
	}
	return result, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.do(ctx, path, "application/json", bytes.NewReader(data), out)
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", contentType)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Analysis request failed", "path", path, "error", err)
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Analysis request returned error status", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s returned %d", ErrUnavailable, path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrUnavailable, path, err)
	}
	c.logger.Debug("Analysis request done", "path", path, "elapsed", time.Since(started))
	return nil
}
