package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.kifu/internal/game/mahjong/kifu"
	"sudooom.kifu/internal/game/mahjong/riichi"
)

type persistRecorder struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (p *persistRecorder) persist(ctx context.Context, g *Game) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, g.ID())
	g.MarkClean(g.Version())
	return nil
}

func TestGameManager_CreateAndGet(t *testing.T) {
	m := NewGameManager(2, time.Hour, time.Hour, nil)
	defer m.Shutdown(context.Background())

	g1, err := m.Create(kifu.Header{}, riichi.DefaultRules(), 10)
	require.NoError(t, err)
	g2, err := m.Create(kifu.Header{}, riichi.DefaultRules(), 10)
	require.NoError(t, err)
	assert.NotEqual(t, g1.ID(), g2.ID())

	_, err = m.Create(kifu.Header{}, riichi.DefaultRules(), 10)
	assert.ErrorIs(t, err, ErrTooManyGames)

	got, ok := m.Get(g1.ID())
	require.True(t, ok)
	assert.Same(t, g1, got)

	m.Remove(g1.ID())
	_, ok = m.Get(g1.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, m.Count())
}

func TestGameManager_EvictInactive(t *testing.T) {
	rec := &persistRecorder{}
	m := NewGameManager(0, time.Minute, time.Hour, rec.persist)
	defer m.Shutdown(context.Background())

	clean, err := m.Create(kifu.Header{}, riichi.DefaultRules(), 10)
	require.NoError(t, err)
	dirty, err := m.Create(kifu.Header{}, riichi.DefaultRules(), 10)
	require.NoError(t, err)
	require.NoError(t, dirty.StartHand(newTestState(t)))

	m.evictInactive(time.Now())
	assert.Equal(t, 2, m.Count())

	m.evictInactive(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, []string{dirty.ID()}, rec.saved)
	_, ok := m.Get(clean.ID())
	assert.False(t, ok)
}

func TestGameManager_EvictKeepsUnsaved(t *testing.T) {
	rec := &persistRecorder{err: errors.New("db down")}
	m := NewGameManager(0, time.Minute, time.Hour, rec.persist)
	defer m.Shutdown(context.Background())

	g, err := m.Create(kifu.Header{}, riichi.DefaultRules(), 10)
	require.NoError(t, err)
	require.NoError(t, g.StartHand(newTestState(t)))

	m.evictInactive(time.Now().Add(2 * time.Minute))
	_, ok := m.Get(g.ID())
	assert.True(t, ok)
}

func TestGameManager_ShutdownSavesDirty(t *testing.T) {
	rec := &persistRecorder{}
	m := NewGameManager(0, time.Hour, time.Hour, rec.persist)

	g, err := m.Create(kifu.Header{}, riichi.DefaultRules(), 10)
	require.NoError(t, err)
	require.NoError(t, g.StartHand(newTestState(t)))
	_, err = m.Create(kifu.Header{}, riichi.DefaultRules(), 10)
	require.NoError(t, err)

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{g.ID()}, rec.saved)

	// 重复关闭不会 panic
	require.NoError(t, m.Shutdown(context.Background()))
}
