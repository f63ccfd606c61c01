package logger

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// Setup initializes Logrus via a rotating file mirrored to stdout and
// returns the writer so the HTTP access log can share it.
func Setup(file, level string) io.Writer {
	if file == "" {
		file = "./logs/app.log"
	}
	_ = os.MkdirAll(filepath.Dir(file), 0o755)

	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   true,
	}
	out := io.MultiWriter(os.Stdout, rotator)

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
		logrus.WithField("level", level).Warn("unknown log level, using info")
	}
	logrus.SetLevel(lvl)
	return out
}

// GormLogger routes GORM's slow-query and error logs through Logrus.
func GormLogger() gormlogger.Interface {
	level := gormlogger.Warn
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return gormlogger.New(logrus.StandardLogger(), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// AccessLog writes one line per HTTP request to w. Health and metrics probes are skipped.
func AccessLog(w io.Writer) gin.HandlerFunc {
	return ginlogger.SetLogger(
		ginlogger.WithWriter(w),
		ginlogger.WithUTC(true),
		ginlogger.WithSkipPath([]string{"/metrics", "/api/health"}),
		ginlogger.WithSkipPathRegexps(regexp.MustCompile(`^/uploads/`)),
	)
}
