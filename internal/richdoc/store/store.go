// Пакет store сохраняет снимки документов сессий в SQLite через GORM.
//
// Основные возможности:
//   - Снимок каждой версии документа в формате TipTap JSON вместе с markdown.
//   - Чтение последнего снимка и истории версий сессии.
//   - Слушатель сессии, который пишет снимки в фоне.
//   - Восстановление сессии из последнего снимка.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	gormLog "gorm.io/gorm/logger"

	"github.com/aisa-it/richdoc/internal/richdoc/editor/model"
	"github.com/aisa-it/richdoc/internal/richdoc/editor/tiptap"
	"github.com/aisa-it/richdoc/internal/richdoc/metrics"
	"github.com/aisa-it/richdoc/internal/richdoc/session"
)

var ErrNotFound = errors.New("store: snapshot not found")

// Snapshot - сохраненная версия документа.
type Snapshot struct {
	ID        uuid.UUID      `gorm:"column:id;primaryKey;type:text" json:"id"`
	SessionID uuid.UUID      `gorm:"column:session_id;type:text;uniqueIndex:snapshots_session_version,priority:1" json:"session_id"`
	Version   int            `gorm:"uniqueIndex:snapshots_session_version,priority:2" json:"version"`
	Content   tiptap.Content `json:"content"`
	Markdown  string         `json:"markdown"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Snapshot) TableName() string { return "snapshots" }

// Store - хранилище снимков.
type Store struct {
	db      *gorm.DB
	reg     *model.Registry
	metrics *metrics.Metrics
}

// Open открывает базу SQLite по пути path (":memory:" для временной базы) и мигрирует схему.
// Документы снимков читаются по реестру reg.
func Open(path string, reg *model.Registry, logger gormLog.Interface, m *metrics.Metrics) (*Store, error) {
	if logger == nil {
		logger = gormLog.Default.LogMode(gormLog.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open snapshots db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite пишет в один поток, а база в памяти живет внутри одного соединения
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("migrate snapshots: %w", err)
	}
	return &Store{db: db, reg: reg, metrics: m}, nil
}

// Close закрывает соединение с базой.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save сохраняет снимок версии из события сессии.
func (s *Store) Save(ctx context.Context, ev session.Event) (*Snapshot, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		ID:        id,
		SessionID: ev.SessionID,
		Version:   ev.Version,
		Content:   tiptap.Content{Doc: ev.Doc},
		Markdown:  ev.Markdown,
	}
	err = s.db.WithContext(ctx).Create(snap).Error
	s.metrics.SnapshotSaved(err)
	if err != nil {
		return nil, fmt.Errorf("save snapshot %s@%d: %w", ev.SessionID, ev.Version, err)
	}
	return snap, nil
}

// Latest возвращает последний снимок сессии.
func (s *Store) Latest(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("version desc").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := snap.Content.Decode(s.reg); err != nil {
		return nil, fmt.Errorf("decode snapshot %s@%d: %w", sessionID, snap.Version, err)
	}
	return &snap, nil
}

// History возвращает до limit последних снимков сессии, от новых к старым. limit <= 0 - все.
func (s *Store) History(ctx context.Context, sessionID uuid.UUID, limit int) ([]Snapshot, error) {
	var snaps []Snapshot
	q := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("version desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&snaps).Error; err != nil {
		return nil, err
	}
	for i := range snaps {
		if err := snaps[i].Content.Decode(s.reg); err != nil {
			return nil, fmt.Errorf("decode snapshot %s@%d: %w", sessionID, snaps[i].Version, err)
		}
	}
	return snaps, nil
}

// Listener возвращает слушателя сессии, сохраняющего каждую версию.
func (s *Store) Listener() session.Listener {
	return func(ctx context.Context, ev session.Event) {
		if _, err := s.Save(ctx, ev); err != nil {
			slog.Error("Save session snapshot", "session", ev.SessionID, "version", ev.Version, "err", err)
		}
	}
}

// Restore открывает новую сессию с идентификатором sessionID над документом последнего снимка.
// Слушатель сохранения подключается автоматически.
func (s *Store) Restore(ctx context.Context, sessionID uuid.UUID, opts ...session.Option) (*session.Session, error) {
	snap, err := s.Latest(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		session.WithID(sessionID),
		session.WithVersion(snap.Version),
		session.WithListener(s.Listener()),
	)
	return session.New(snap.Content.Doc, opts...)
}
