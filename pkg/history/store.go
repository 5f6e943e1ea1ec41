package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kiyor/k2tube/pkg/content"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is one watched video.
type Entry struct {
	VideoID   string `gorm:"primaryKey"`
	Title     string
	Channel   string
	Thumbnail string
	Views     int64
	Watches   int
	WatchedAt time.Time `gorm:"index"`
	Detail    datatypes.JSON
}

// Store persists watch history in sqlite.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_journal_mode=WAL&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Record upserts v under key, bumping its watch count.
func (s *Store) Record(ctx context.Context, key string, v *content.VideoDetail) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("history: encode %s: %w", key, err)
	}
	e := Entry{
		VideoID:   key,
		Title:     v.Title,
		Watches:   1,
		WatchedAt: time.Now(),
		Detail:    datatypes.JSON(raw),
	}
	if v.Author != nil {
		e.Channel = v.Author.Title
	}
	if len(v.Thumbnails) > 0 {
		e.Thumbnail = v.Thumbnails[0].URL
	}
	if v.Stats != nil {
		e.Views = v.Stats.Views
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "video_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"title":      e.Title,
			"channel":    e.Channel,
			"thumbnail":  e.Thumbnail,
			"views":      e.Views,
			"watched_at": e.WatchedAt,
			"detail":     e.Detail,
			"watches":    gorm.Expr("watches + 1"),
		}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("history: record %s: %w", key, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	var out []Entry
	err := s.db.WithContext(ctx).Order("watched_at desc").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	return out, nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{}).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
