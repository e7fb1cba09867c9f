package logger

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LoggerService owns the process log file. Entries are JSON (logrus) and go
// to stdout and the current file; files rotate by size and old ones are
// zipped after retention_days.
type LoggerService struct {
	Config        map[string]interface{}
	log           *logrus.Logger
	file          *os.File
	mu            sync.Mutex
	stopCh        chan struct{}
	wg            sync.WaitGroup
	currentLog    string
	maxFileBytes  int64
	retentionDays int
	folderPath    string
}

func NewLoggerService(config map[string]interface{}) *LoggerService {
	maxMB := intFromConfig(config, "max_file_mb")
	retention := intFromConfig(config, "retention_days")
	folder, _ := config["folder_path"].(string)
	if folder == "" {
		folder = "./logs"
	}

	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	if lvl, ok := config["level"].(string); ok && lvl != "" {
		if parsed, err := logrus.ParseLevel(lvl); err == nil {
			l.SetLevel(parsed)
		}
	}

	return &LoggerService{
		Config:        config,
		log:           l,
		stopCh:        make(chan struct{}),
		maxFileBytes:  int64(maxMB) * 1024 * 1024,
		retentionDays: retention,
		folderPath:    folder,
	}
}

func intFromConfig(config map[string]interface{}, key string) int {
	switch v := config[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (l *LoggerService) Name() string {
	return "logger"
}

func (l *LoggerService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.folderPath, 0755); err != nil {
		return err
	}
	logFile := l.nextLogFileName()
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = file
	l.currentLog = logFile
	l.log.SetOutput(io.MultiWriter(os.Stdout, file))
	l.log.WithField("file", logFile).Info("logger started")

	l.wg.Add(1)
	go l.backgroundWorker()

	return nil
}

func (l *LoggerService) Stop() error {
	close(l.stopCh)
	l.wg.Wait()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.log.Info("logger stopping")
		l.log.SetOutput(os.Stdout)
		return l.file.Close()
	}
	return nil
}

func (l *LoggerService) nextLogFileName() string {
	timestamp := time.Now().Format("20060102_150405")
	return filepath.Join(l.folderPath, fmt.Sprintf("billtracker_%s.log", timestamp))
}

func (l *LoggerService) rotateIfNeeded() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil || l.maxFileBytes <= 0 {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.maxFileBytes {
		return nil
	}
	l.file.Close()
	newLog := l.nextLogFileName()
	file, err := os.OpenFile(newLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		l.file = nil
		l.log.SetOutput(os.Stdout)
		return err
	}
	l.file = file
	l.currentLog = newLog
	l.log.SetOutput(io.MultiWriter(os.Stdout, file))
	l.log.WithField("file", newLog).Info("rotated log file")
	return nil
}

func (l *LoggerService) backgroundWorker() {
	defer l.wg.Done()
	ticker := time.NewTicker(10 * time.Second)
	retentionTicker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	defer retentionTicker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			if err := l.rotateIfNeeded(); err != nil {
				l.log.WithError(err).Warn("log rotation failed")
			}
		case <-retentionTicker.C:
			l.zipAndCleanOldLogs(time.Now())
		}
	}
}

// zipAndCleanOldLogs moves .log files older than the retention window into a
// dated zip and removes them.
func (l *LoggerService) zipAndCleanOldLogs(now time.Time) {
	if l.retentionDays <= 0 {
		return
	}
	cutoff := now.AddDate(0, 0, -l.retentionDays)
	files, err := os.ReadDir(l.folderPath)
	if err != nil {
		return
	}

	var stale []string
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".log" {
			continue
		}
		fullPath := filepath.Join(l.folderPath, f.Name())
		if fullPath == l.currentLog {
			continue
		}
		info, err := os.Stat(fullPath)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		stale = append(stale, fullPath)
	}
	if len(stale) == 0 {
		return
	}

	zipName := filepath.Join(l.folderPath, fmt.Sprintf("logs_%s.zip", now.Format("20060102")))
	zipFile, err := os.Create(zipName)
	if err != nil {
		return
	}
	defer zipFile.Close()
	zipWriter := zip.NewWriter(zipFile)
	defer zipWriter.Close()

	for _, fullPath := range stale {
		w, err := zipWriter.Create(filepath.Base(fullPath))
		if err != nil {
			continue
		}
		src, err := os.Open(fullPath)
		if err != nil {
			continue
		}
		_, copyErr := io.Copy(w, src)
		src.Close()
		if copyErr == nil {
			os.Remove(fullPath)
		}
	}
}

// Logger exposes the underlying logrus logger for packages that take a FieldLogger.
func (l *LoggerService) Logger() *logrus.Logger {
	return l.log
}

func (l *LoggerService) LogAudit(msg string) {
	l.log.WithField("audit", true).Info(msg)
}

var GlobalLogger *LoggerService

var fallback = logrus.New()

func init() {
	fallback.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	fallback.SetOutput(os.Stdout)
}

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}

// L returns the global logrus logger, or a stdout logger before the service is started.
func L() *logrus.Logger {
	if GlobalLogger != nil {
		return GlobalLogger.log
	}
	return fallback
}

// Audit writes an audit line through the global logger when available.
func Audit(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if GlobalLogger != nil {
		GlobalLogger.LogAudit(msg)
		return
	}
	fallback.WithField("audit", true).Info(msg)
}

// LogError records an error with its call-site context.
func LogError(log logrus.FieldLogger, module, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	log.WithFields(fields).Error(err.Error())
}
