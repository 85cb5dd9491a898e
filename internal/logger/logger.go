package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogConfig 日志配置
type LogConfig struct {
	Level     string
	Directory string // 请求日志数据库所在目录，空则不落库
}

// RequestRecord 单次网关请求的完成记录
type RequestRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
	Channel    string    `json:"channel"`
	Model      string    `json:"model"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	DurationMs int64     `json:"duration_ms"`
	Tokens     int64     `json:"tokens"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
}

// Storage 请求记录存储接口
type Storage interface {
	Save(rec *RequestRecord)
	Recent(limit, offset int, failedOnly bool) ([]*RequestRecord, int64, error)
	CleanupOlderThan(days int) (int64, error)
	Close() error
}

// Logger 统一日志器：控制台走logrus，请求记录另存储储层
type Logger struct {
	logger  *logrus.Logger
	storage Storage
	config  LogConfig
}

// NewLogger 创建日志器。Directory 非空时初始化GORM请求日志存储。
func NewLogger(config LogConfig) (*Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	var storage Storage
	if config.Directory != "" {
		storage, err = NewGORMStorage(config.Directory)
		if err != nil {
			return nil, err
		}
	}

	return &Logger{logger: l, storage: storage, config: config}, nil
}

// LogRequest 记录一次完成的网关请求
func (l *Logger) LogRequest(rec *RequestRecord) {
	if l.storage != nil {
		l.storage.Save(rec)
	}

	fields := logrus.Fields{
		"request_id":  rec.RequestID,
		"channel":     rec.Channel,
		"method":      rec.Method,
		"path":        rec.Path,
		"status_code": rec.StatusCode,
		"duration_ms": rec.DurationMs,
		"tokens":      rec.Tokens,
	}
	if rec.Model != "" {
		fields["model"] = rec.Model
	}
	if rec.Attempts > 1 {
		fields["attempts"] = rec.Attempts
	}
	if rec.Error != "" {
		fields["error"] = rec.Error
	}

	if rec.StatusCode >= 400 {
		l.logger.WithFields(fields).Error("Request failed")
	} else {
		l.logger.WithFields(fields).Info("Request completed")
	}
}

func (l *Logger) Info(msg string, fields ...logrus.Fields) {
	if len(fields) > 0 {
		l.logger.WithFields(fields[0]).Info(msg)
	} else {
		l.logger.Info(msg)
	}
}

func (l *Logger) Warn(msg string, fields ...logrus.Fields) {
	if len(fields) > 0 {
		l.logger.WithFields(fields[0]).Warn(msg)
	} else {
		l.logger.Warn(msg)
	}
}

func (l *Logger) Error(msg string, err error, fields ...logrus.Fields) {
	f := logrus.Fields{}
	if len(fields) > 0 {
		f = fields[0]
	}
	if err != nil {
		f["error"] = err.Error()
	}
	l.logger.WithFields(f).Error(msg)
}

func (l *Logger) Debug(msg string, fields ...logrus.Fields) {
	if len(fields) > 0 {
		l.logger.WithFields(fields[0]).Debug(msg)
	} else {
		l.logger.Debug(msg)
	}
}

// GetRecords 查询请求记录，供管理接口使用
func (l *Logger) GetRecords(limit, offset int, failedOnly bool) ([]*RequestRecord, int64, error) {
	if l.storage == nil {
		return nil, 0, nil
	}
	return l.storage.Recent(limit, offset, failedOnly)
}

// Close 关闭底层存储
func (l *Logger) Close() error {
	if l.storage != nil {
		return l.storage.Close()
	}
	return nil
}
