package riichi

import "fmt"

// GameError 游戏错误类型
type GameError struct {
	Code    string                 // 错误代码
	Message string                 // 错误消息
	Cause   error                  // 原因错误
	Context map[string]interface{} // 错误上下文
}

func (e *GameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// Is 按错误代码比较，带上下文的副本与预定义错误视为相同
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Code == e.Code
}

// NewGameError 创建游戏错误
func NewGameError(code, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

func (e *GameError) clone() *GameError {
	c := &GameError{Code: e.Code, Message: e.Message, Cause: e.Cause, Context: make(map[string]interface{}, len(e.Context)+1)}
	for k, v := range e.Context {
		c.Context[k] = v
	}
	return c
}

// WithCause 添加原因错误，返回副本
func (e *GameError) WithCause(cause error) *GameError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithContext 添加上下文信息，返回副本
func (e *GameError) WithContext(key string, value interface{}) *GameError {
	c := e.clone()
	c.Context[key] = value
	return c
}

// 手牌相关错误
var (
	ErrTileNotInHand   = NewGameError("TILE_NOT_IN_HAND", "手牌中没有指定的牌")
	ErrInvalidHandSize = NewGameError("INVALID_HAND_SIZE", "手牌数量不正确")
	ErrInvalidTile     = NewGameError("INVALID_TILE", "无效的牌")
	ErrRedFiveDisabled = NewGameError("RED_FIVE_DISABLED", "本局不使用赤宝牌")
)

// 牌局阶段相关错误
var (
	ErrInvalidGamePhase = NewGameError("INVALID_GAME_PHASE", "当前阶段不允许此操作")
	ErrNotYourTurn      = NewGameError("NOT_YOUR_TURN", "还没有轮到该座位")
	ErrWallExhausted    = NewGameError("WALL_EXHAUSTED", "牌山已空，只能流局")
	ErrHandEnded        = NewGameError("HAND_ENDED", "本局已结束")
	ErrInvalidSeat      = NewGameError("INVALID_SEAT", "无效的座位")
)

// 规则相关错误
var (
	ErrCannotChi          = NewGameError("CANNOT_CHI", "不能吃")
	ErrCannotPon          = NewGameError("CANNOT_PON", "不能碰")
	ErrCannotKan          = NewGameError("CANNOT_KAN", "不能杠")
	ErrCannotRiichi       = NewGameError("CANNOT_RIICHI", "不能立直")
	ErrCannotWin          = NewGameError("CANNOT_WIN", "不能和牌")
	ErrRiichiLocked       = NewGameError("RIICHI_LOCKED", "立直后不能进行此操作")
	ErrMustDiscardDrawn   = NewGameError("MUST_DISCARD_DRAWN", "立直后只能打出摸到的牌")
	ErrFuriten            = NewGameError("FURITEN", "振听状态不能荣和")
	ErrCallNotOffered     = NewGameError("CALL_NOT_OFFERED", "该鸣牌不在可选范围内")
	ErrReplacementMissing = NewGameError("REPLACEMENT_MISSING", "杠后需要指定岭上牌")
	ErrNoHiddenIndicator  = NewGameError("NO_HIDDEN_INDICATOR", "没有待翻开的宝牌指示牌")
	ErrInvalidMove        = NewGameError("INVALID_MOVE", "无效的操作")
)
