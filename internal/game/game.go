package game

import (
	"sync"
	"time"

	"sudooom.kifu/internal/game/mahjong/kifu"
	"sudooom.kifu/internal/game/mahjong/riichi"
)

// Transition 纯状态转换
type Transition func(riichi.GameState) (riichi.GameState, error)

// Game 一场牌局的会话
// 持有当前一局的快照、撤销栈和已结束的各局，使用 RWMutex 保证并发安全
type Game struct {
	mu sync.RWMutex

	id        string
	header    kifu.Header
	rules     riichi.Rules
	undoLimit int

	current   *riichi.GameState
	history   []riichi.GameState // 当前一局的撤销栈
	completed []riichi.GameState

	createdAt  time.Time
	lastActive time.Time
	dirty      bool
	version    uint64
}

// NewGame 创建牌局
func NewGame(id string, header kifu.Header, rules riichi.Rules, undoLimit int) *Game {
	now := time.Now()
	return &Game{
		id:         id,
		header:     header,
		rules:      rules,
		undoLimit:  undoLimit,
		createdAt:  now,
		lastActive: now,
	}
}

func (g *Game) ID() string {
	return g.id
}

func (g *Game) Header() kifu.Header {
	return g.header
}

func (g *Game) Rules() riichi.Rules {
	return g.rules
}

// Current 当前一局的快照
func (g *Game) Current() (riichi.GameState, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return riichi.GameState{}, false
	}
	return *g.current, true
}

// StartHand 开始新的一局，上一局必须已经结束
func (g *Game) StartHand(s riichi.GameState) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current != nil {
		if !g.current.Ended() {
			return ErrHandInProgress
		}
		g.completed = append(g.completed, *g.current)
	}
	g.current = &s
	g.history = nil
	g.touch()
	return nil
}

// Apply 执行一次状态转换并压入撤销栈
// 转换失败时状态不变
func (g *Game) Apply(fn Transition) (riichi.GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return riichi.GameState{}, ErrNoActiveHand
	}
	next, err := fn(*g.current)
	if err != nil {
		return *g.current, err
	}

	g.history = append(g.history, *g.current)
	if g.undoLimit > 0 && len(g.history) > g.undoLimit {
		g.history = g.history[len(g.history)-g.undoLimit:]
	}
	g.current = &next
	g.touch()
	return next, nil
}

// Refresh 执行不进入撤销栈的更新，如写入听牌结果
func (g *Game) Refresh(fn func(riichi.GameState) (riichi.GameState, bool)) (riichi.GameState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return riichi.GameState{}, false
	}
	next, changed := fn(*g.current)
	if !changed {
		return *g.current, false
	}
	g.current = &next
	g.touch()
	return next, true
}

// Undo 撤销上一次操作
func (g *Game) Undo() (riichi.GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(g.history)
	if n == 0 {
		return riichi.GameState{}, ErrNothingToUndo
	}
	prev := g.history[n-1]
	g.history = g.history[:n-1]
	g.current = &prev
	g.touch()
	return prev, nil
}

// CanUndo 撤销栈是否非空
func (g *Game) CanUndo() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.history) > 0
}

// Hands 全部各局，包括进行中的一局
func (g *Game) Hands() []riichi.GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	hands := make([]riichi.GameState, 0, len(g.completed)+1)
	hands = append(hands, g.completed...)
	if g.current != nil {
		hands = append(hands, *g.current)
	}
	return hands
}

// EndedHands 已结束的各局
func (g *Game) EndedHands() []riichi.GameState {
	hands := g.Hands()
	if n := len(hands); n > 0 && !hands[n-1].Ended() {
		hands = hands[:n-1]
	}
	return hands
}

// HandCount 已开始的局数
func (g *Game) HandCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := len(g.completed)
	if g.current != nil {
		n++
	}
	return n
}

func (g *Game) touch() {
	g.dirty = true
	g.version++
	g.lastActive = time.Now()
}

// Version 每次修改加一
func (g *Game) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// IsDirty 是否有未保存的修改
func (g *Game) IsDirty() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dirty
}

// MarkClean 标记为已保存
// 保存期间又有修改时保留脏标记
func (g *Game) MarkClean(version uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.version == version {
		g.dirty = false
	}
}

// LastActiveTime 获取最后活跃时间
func (g *Game) LastActiveTime() time.Time {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastActive
}

func (g *Game) CreatedAt() time.Time {
	return g.createdAt
}
