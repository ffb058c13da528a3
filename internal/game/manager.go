package game

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sudooom.kifu/internal/game/mahjong/kifu"
	"sudooom.kifu/internal/game/mahjong/riichi"
)

// PersistFunc 保存牌局
type PersistFunc func(ctx context.Context, g *Game) error

// GameManager 牌局管理器
type GameManager struct {
	games sync.Map // gameId -> *Game

	maxGames     int
	evictTimeout time.Duration
	evictTicker  *time.Ticker
	persist      PersistFunc

	stopChan chan struct{} // 停止信号通道
	stopOnce sync.Once

	logger *slog.Logger
}

// NewGameManager 创建牌局管理器
// persist 可以为空，淘汰和关闭时用它保存有修改的牌局
func NewGameManager(maxGames int, evictTimeout, evictInterval time.Duration, persist PersistFunc) *GameManager {
	if evictInterval <= 0 {
		evictInterval = time.Minute
	}
	m := &GameManager{
		maxGames:     maxGames,
		evictTimeout: evictTimeout,
		evictTicker:  time.NewTicker(evictInterval),
		persist:      persist,
		stopChan:     make(chan struct{}),
		logger:       slog.Default().With("component", "GameManager"),
	}

	go m.evictLoop()

	return m
}

// Create 创建牌局
func (m *GameManager) Create(header kifu.Header, rules riichi.Rules, undoLimit int) (*Game, error) {
	if m.maxGames > 0 && m.Count() >= m.maxGames {
		return nil, ErrTooManyGames
	}

	game := NewGame(uuid.NewString(), header, rules, undoLimit)
	m.games.Store(game.ID(), game)
	m.logger.Info("Created game", "gameId", game.ID())
	return game, nil
}

// Get 获取牌局
func (m *GameManager) Get(gameID string) (*Game, bool) {
	val, ok := m.games.Load(gameID)
	if !ok {
		return nil, false
	}
	return val.(*Game), true
}

// Remove 移除牌局
func (m *GameManager) Remove(gameID string) {
	m.games.Delete(gameID)
	m.logger.Info("Removed game", "gameId", gameID)
}

// Count 返回当前牌局数
func (m *GameManager) Count() int {
	count := 0
	m.games.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}

// evictLoop 淘汰循环
func (m *GameManager) evictLoop() {
	for {
		select {
		case <-m.evictTicker.C:
			m.evictInactive(time.Now())
		case <-m.stopChan:
			m.logger.Info("Evict loop stopped")
			return
		}
	}
}

// evictInactive 淘汰不活跃的牌局，淘汰前保存
func (m *GameManager) evictInactive(now time.Time) {
	toEvict := []*Game{}

	m.games.Range(func(key, value interface{}) bool {
		game := value.(*Game)
		if now.Sub(game.LastActiveTime()) > m.evictTimeout {
			toEvict = append(toEvict, game)
		}
		return true
	})

	for _, game := range toEvict {
		if game.IsDirty() {
			m.logger.Info("Saving game before eviction", "gameId", game.ID())
			if err := m.save(game); err != nil {
				m.logger.Error("Failed to save game, keeping it", "gameId", game.ID(), "error", err)
				continue
			}
		}

		m.Remove(game.ID())
		m.logger.Info("Evicted inactive game", "gameId", game.ID())
	}
}

func (m *GameManager) save(game *Game) error {
	if m.persist == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.persist(ctx, game)
}

// Shutdown 关闭管理器，保存所有有修改的牌局
func (m *GameManager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down GameManager")

	// 发送停止信号给 evictLoop
	m.stopOnce.Do(func() { close(m.stopChan) })

	// 停止定时器
	m.evictTicker.Stop()

	if m.persist != nil {
		m.games.Range(func(key, value interface{}) bool {
			game := value.(*Game)
			if !game.IsDirty() {
				return true
			}
			m.logger.Info("Saving game on shutdown", "gameId", game.ID())
			if err := m.persist(ctx, game); err != nil {
				m.logger.Error("Failed to save game on shutdown", "gameId", game.ID(), "error", err)
			}
			return ctx.Err() == nil
		})
	}

	m.logger.Info("GameManager shutdown complete")
	return ctx.Err()
}
