package handler

import (
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"sudooom.kifu/internal/game/mahjong/kifu"
	"sudooom.kifu/internal/repository"
	appErrors "sudooom.kifu/pkg/errors"
	"sudooom.kifu/pkg/response"
)

// KifuArchive 已保存的牌谱
type KifuArchive interface {
	FindByID(ctx context.Context, gameID string) (*repository.KifuRecord, error)
	List(ctx context.Context, limit, offset int) ([]repository.KifuSummary, error)
}

// ArchiveHandler 牌谱存档处理器
type ArchiveHandler struct {
	archive KifuArchive
}

// NewArchiveHandler 创建存档处理器，archive 为空时只提供校验接口
func NewArchiveHandler(archive KifuArchive) *ArchiveHandler {
	return &ArchiveHandler{archive: archive}
}

// Enabled 是否配置了存储
func (h *ArchiveHandler) Enabled() bool {
	return h.archive != nil
}

// List 牌谱列表
// GET /api/v1/kifu?limit=20&offset=0
func (h *ArchiveHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		response.ErrorWithMsg(c, appErrors.CodeInvalidParams, "limit must be 1..100")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.ErrorWithMsg(c, appErrors.CodeInvalidParams, "invalid offset")
		return
	}

	list, err := h.archive.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.ErrorFromAppError(c, appErrors.ErrDBError.Wrap(err))
		return
	}
	response.Success(c, gin.H{"list": list})
}

// Get 获取已保存的牌谱
// GET /api/v1/kifu/:id
func (h *ArchiveHandler) Get(c *gin.Context) {
	rec, err := h.archive.FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, repository.ErrKifuNotFound) {
		response.ErrorFromAppError(c, appErrors.ErrGameNotFound)
		return
	}
	if err != nil {
		response.ErrorFromAppError(c, appErrors.ErrDBError.Wrap(err))
		return
	}
	response.Success(c, rec)
}

// Validate 校验牌谱文档
// POST /api/v1/kifu/validate
func (h *ArchiveHandler) Validate(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImageSize))
	if err != nil {
		response.ErrorWithMsg(c, appErrors.CodeInvalidParams, err.Error())
		return
	}
	problems := kifu.Validate(data)
	response.Success(c, gin.H{"ok": len(problems) == 0, "problems": problems})
}
