package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"sudooom.kifu/internal/game"
	"sudooom.kifu/internal/game/mahjong/core"
	appErrors "sudooom.kifu/pkg/errors"
	"sudooom.kifu/pkg/response"
)

// maxImageSize 上传图片大小上限
const maxImageSize = 10 << 20

// GameHandler 记分处理器
type GameHandler struct {
	gameService *game.Service
}

// NewGameHandler 创建记分处理器
func NewGameHandler(gameService *game.Service) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// CreateGame 创建牌局
// POST /api/v1/games
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req game.CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, appErrors.CodeInvalidParams, err.Error())
		return
	}

	view, err := h.gameService.CreateGame(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}

// GetGame 获取牌局
// GET /api/v1/games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	view, err := h.gameService.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}

// StartHand 开始新的一局
// POST /api/v1/games/:id/hands
func (h *GameHandler) StartHand(c *gin.Context) {
	var req game.StartHandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, appErrors.CodeInvalidParams, err.Error())
		return
	}

	view, err := h.gameService.StartHand(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}

// Actions 当前合法操作
// GET /api/v1/games/:id/actions?seat=E
func (h *GameHandler) Actions(c *gin.Context) {
	var viewer *core.Seat
	if raw := c.Query("seat"); raw != "" {
		seat, err := core.ParseSeat(raw)
		if err != nil {
			response.ErrorWithMsg(c, appErrors.CodeInvalidParams, err.Error())
			return
		}
		viewer = &seat
	}

	actions, err := h.gameService.Actions(c.Param("id"), viewer)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": actions})
}

// Act 记录一次操作
// POST /api/v1/games/:id/actions
func (h *GameHandler) Act(c *gin.Context) {
	var req game.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, appErrors.CodeInvalidParams, err.Error())
		return
	}

	view, err := h.gameService.Act(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}

// Undo 撤销上一次操作
// POST /api/v1/games/:id/undo
func (h *GameHandler) Undo(c *gin.Context) {
	view, err := h.gameService.Undo(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}

// Win 和了
// POST /api/v1/games/:id/win
func (h *GameHandler) Win(c *gin.Context) {
	var req game.WinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithMsg(c, appErrors.CodeInvalidParams, err.Error())
		return
	}

	view, err := h.gameService.Win(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}

// ExhaustiveDraw 荒牌流局
// POST /api/v1/games/:id/draw
func (h *GameHandler) ExhaustiveDraw(c *gin.Context) {
	var req game.DrawRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithMsg(c, appErrors.CodeInvalidParams, err.Error())
			return
		}
	}

	view, err := h.gameService.ExhaustiveDraw(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}

// Kifu 导出牌谱
// GET /api/v1/games/:id/kifu
// raw=1 时直接返回牌谱文档，可以被牌谱查看器打开
func (h *GameHandler) Kifu(c *gin.Context) {
	doc, warnings, err := h.gameService.Kifu(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	if c.Query("raw") == "1" {
		c.JSON(http.StatusOK, doc)
		return
	}
	response.Success(c, gin.H{"kifu": doc, "warnings": warnings})
}

// Recognize 识别图片中的牌
// POST /api/v1/recognize (multipart, 字段 image)
func (h *GameHandler) Recognize(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.ErrorWithMsg(c, appErrors.CodeInvalidParams, "image is required")
		return
	}
	if file.Size > maxImageSize {
		response.ErrorWithMsg(c, appErrors.CodeInvalidParams, "image too large")
		return
	}

	f, err := file.Open()
	if err != nil {
		fail(c, err)
		return
	}
	defer f.Close()

	result, err := h.gameService.Recognize(c.Request.Context(), filepath.Base(file.Filename), f)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, result)
}
