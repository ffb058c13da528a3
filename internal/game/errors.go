package game

import "errors"

// 牌局会话相关错误定义

var (
	// ErrGameNotFound 牌局不存在
	ErrGameNotFound = errors.New("game not found")

	// ErrTooManyGames 牌局数量达到上限
	ErrTooManyGames = errors.New("too many games")

	// ErrNoActiveHand 还没有开始任何一局
	ErrNoActiveHand = errors.New("no active hand")

	// ErrHandInProgress 上一局尚未结束
	ErrHandInProgress = errors.New("current hand has not ended")

	// ErrNothingToUndo 没有可撤销的操作
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrStateChanged 评分期间牌局状态被修改
	ErrStateChanged = errors.New("state changed while waiting for scorer")

	// ErrTenpaiUndetermined 流局时无法确定各家是否听牌
	ErrTenpaiUndetermined = errors.New("tenpai could not be determined")

	// ErrUnknownAction 未知的操作类型
	ErrUnknownAction = errors.New("unknown action")

	// ErrUnknownPreset 未知的规则集
	ErrUnknownPreset = errors.New("unknown rule preset")

	// ErrInvalidRequest 请求参数无法解析
	ErrInvalidRequest = errors.New("invalid request")
)
