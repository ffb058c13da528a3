package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrKifuNotFound = errors.New("kifu record not found")

// KifuRecord 导出的牌谱记录
type KifuRecord struct {
	GameID    string          `json:"gameId"`
	Title     string          `json:"title"`
	Hands     int             `json:"hands"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// KifuSummary 列表项，不含牌谱正文
type KifuSummary struct {
	GameID    string    `json:"gameId"`
	Title     string    `json:"title"`
	Hands     int       `json:"hands"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const schema = `
	CREATE TABLE IF NOT EXISTS kifu_records (
		game_id    UUID PRIMARY KEY,
		title      TEXT NOT NULL DEFAULT '',
		hands      INT NOT NULL DEFAULT 0,
		document   JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// KifuRepository 牌谱仓库
type KifuRepository struct {
	db *pgxpool.Pool
}

// NewKifuRepository 创建牌谱仓库
func NewKifuRepository(db *pgxpool.Pool) *KifuRepository {
	return &KifuRepository{db: db}
}

// Migrate 建表
func (r *KifuRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

// Save 保存牌谱，同一局重复保存时覆盖
func (r *KifuRepository) Save(ctx context.Context, rec *KifuRecord) error {
	query := `
		INSERT INTO kifu_records (game_id, title, hands, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (game_id) DO UPDATE
		SET title = EXCLUDED.title, hands = EXCLUDED.hands, document = EXCLUDED.document, updated_at = NOW()
		RETURNING created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		rec.GameID,
		rec.Title,
		rec.Hands,
		[]byte(rec.Document),
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

// FindByID 根据局 ID 查找牌谱
func (r *KifuRepository) FindByID(ctx context.Context, gameID string) (*KifuRecord, error) {
	query := `
		SELECT game_id::text, title, hands, document, created_at, updated_at
		FROM kifu_records WHERE game_id = $1
	`

	rec := &KifuRecord{}
	var document []byte
	err := r.db.QueryRow(ctx, query, gameID).Scan(
		&rec.GameID,
		&rec.Title,
		&rec.Hands,
		&document,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKifuNotFound
		}
		return nil, err
	}
	rec.Document = document
	return rec, nil
}

// List 按更新时间倒序列出牌谱
func (r *KifuRepository) List(ctx context.Context, limit, offset int) ([]KifuSummary, error) {
	query := `
		SELECT game_id::text, title, hands, updated_at
		FROM kifu_records
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []KifuSummary
	for rows.Next() {
		var s KifuSummary
		if err := rows.Scan(&s.GameID, &s.Title, &s.Hands, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Delete 删除牌谱
func (r *KifuRepository) Delete(ctx context.Context, gameID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM kifu_records WHERE game_id = $1`, gameID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrKifuNotFound
	}
	return nil
}
