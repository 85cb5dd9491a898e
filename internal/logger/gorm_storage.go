package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormRequestRecord 请求记录的数据库模型
type GormRequestRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Timestamp  time.Time `gorm:"index;not null"`
	RequestID  string    `gorm:"index;size:64"`
	Channel    string    `gorm:"index;size:128"`
	Model      string    `gorm:"size:128"`
	Method     string    `gorm:"size:16"`
	Path       string    `gorm:"size:512"`
	StatusCode int       `gorm:"index"`
	DurationMs int64
	Tokens     int64
	Attempts   int
	Error      string `gorm:"type:text"`
}

// TableName 指定表名
func (GormRequestRecord) TableName() string {
	return "request_logs"
}

// GORMStorage 基于GORM+SQLite的请求日志存储
type GORMStorage struct {
	db *gorm.DB
}

// NewGORMStorage 在指定目录创建（或打开）请求日志数据库
func NewGORMStorage(logDir string) (*GORMStorage, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	dbPath := filepath.Join(logDir, "requests.db")
	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open request log database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1) // SQLite 写串行化，避免 database is locked
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&GormRequestRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate request log database: %v", err)
	}

	return &GORMStorage{db: db}, nil
}

// Save 写入一条请求记录。存储是旁路能力，失败静默丢弃不影响请求处理。
func (s *GORMStorage) Save(rec *RequestRecord) {
	row := &GormRequestRecord{
		Timestamp:  rec.Timestamp,
		RequestID:  rec.RequestID,
		Channel:    rec.Channel,
		Model:      rec.Model,
		Method:     rec.Method,
		Path:       rec.Path,
		StatusCode: rec.StatusCode,
		DurationMs: rec.DurationMs,
		Tokens:     rec.Tokens,
		Attempts:   rec.Attempts,
		Error:      rec.Error,
	}
	s.db.Create(row)
}

// Recent 按时间倒序分页查询
func (s *GORMStorage) Recent(limit, offset int, failedOnly bool) ([]*RequestRecord, int64, error) {
	query := s.db.Model(&GormRequestRecord{})
	if failedOnly {
		query = query.Where("status_code >= ?", 400)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []GormRequestRecord
	if err := query.Order("timestamp DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	records := make([]*RequestRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, &RequestRecord{
			Timestamp:  row.Timestamp,
			RequestID:  row.RequestID,
			Channel:    row.Channel,
			Model:      row.Model,
			Method:     row.Method,
			Path:       row.Path,
			StatusCode: row.StatusCode,
			DurationMs: row.DurationMs,
			Tokens:     row.Tokens,
			Attempts:   row.Attempts,
			Error:      row.Error,
		})
	}
	return records, total, nil
}

// CleanupOlderThan 清理指定天数之前的记录
func (s *GORMStorage) CleanupOlderThan(days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	result := s.db.Where("timestamp < ?", cutoff).Delete(&GormRequestRecord{})
	return result.RowsAffected, result.Error
}

// Close 关闭数据库连接
func (s *GORMStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
