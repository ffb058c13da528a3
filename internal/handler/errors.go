package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"sudooom.kifu/internal/analysis"
	"sudooom.kifu/internal/game"
	"sudooom.kifu/internal/game/mahjong/riichi"
	"sudooom.kifu/internal/game/mahjong/scoring"
	"sudooom.kifu/internal/repository"
	appErrors "sudooom.kifu/pkg/errors"
	"sudooom.kifu/pkg/response"
)

// toAppError 把领域错误转换为带错误码的 AppError，data 为附加诊断信息
func toAppError(err error) (*appErrors.AppError, gin.H) {
	var gameErr *riichi.GameError
	switch {
	case errors.Is(err, game.ErrGameNotFound), errors.Is(err, repository.ErrKifuNotFound):
		return appErrors.ErrGameNotFound, nil
	case errors.Is(err, game.ErrNoActiveHand):
		return appErrors.ErrNoActiveHand, nil
	case errors.Is(err, game.ErrNothingToUndo):
		return appErrors.ErrNothingToUndo, nil
	case errors.Is(err, game.ErrHandInProgress):
		return appErrors.ErrHandInProgress, nil
	case errors.Is(err, game.ErrTooManyGames):
		return appErrors.ErrTooManyGames, nil
	case errors.Is(err, game.ErrTenpaiUndetermined):
		return appErrors.ErrTenpaiUndetermined, nil
	case errors.Is(err, game.ErrStateChanged):
		return appErrors.ErrIllegalAction.WithMessage("评分期间牌局已变化，请重试"), nil
	case errors.Is(err, game.ErrInvalidRequest),
		errors.Is(err, game.ErrUnknownAction),
		errors.Is(err, game.ErrUnknownPreset):
		return appErrors.ErrInvalidParams.WithMessage(err.Error()), nil

	case errors.Is(err, riichi.ErrInvalidTile), errors.Is(err, riichi.ErrRedFiveDisabled):
		return appErrors.ErrInvalidTile, gameErrorData(err)
	case errors.As(err, &gameErr):
		return appErrors.ErrIllegalAction.WithMessage(gameErr.Message), gameErrorData(err)

	case errors.Is(err, scoring.ErrHandNotWinning):
		return appErrors.ErrHandNotWinning, gin.H{"reason": err.Error()}
	case errors.Is(err, scoring.ErrNoYaku):
		return appErrors.ErrNoYaku, gin.H{"reason": err.Error()}
	case errors.Is(err, scoring.ErrWinTileNotInHand),
		errors.Is(err, scoring.ErrOpenHandRiichi),
		errors.Is(err, scoring.ErrOpenHandDaburi),
		errors.Is(err, scoring.ErrIppatsuWithoutRiichi),
		errors.Is(err, scoring.ErrScoringRejected):
		return appErrors.ErrScoringRejected, gin.H{"reason": err.Error()}

	case errors.Is(err, analysis.ErrRejected):
		return appErrors.ErrInvalidParams.WithMessage(err.Error()), nil
	case errors.Is(err, analysis.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return appErrors.ErrAnalysisDown, nil
	}
	return appErrors.ErrServerError.Wrap(err), nil
}

func gameErrorData(err error) gin.H {
	var gameErr *riichi.GameError
	if !errors.As(err, &gameErr) {
		return nil
	}
	return gin.H{"code": gameErr.Code, "context": gameErr.Context}
}

// fail 写入错误响应
func fail(c *gin.Context, err error) {
	appErr, data := toAppError(err)
	if appErr.Code == appErrors.CodeServerError {
		slog.Error("Unhandled error", "path", c.FullPath(), "error", err)
	}
	response.ErrorWithData(c, appErr, data)
}
