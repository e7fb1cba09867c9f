package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerService_ReadsConfig(t *testing.T) {
	svc := NewLoggerService(map[string]interface{}{
		"max_file_mb":    float64(2),
		"retention_days": 7,
		"folder_path":    "/tmp/x",
		"level":          "debug",
	})
	assert.Equal(t, int64(2*1024*1024), svc.maxFileBytes)
	assert.Equal(t, 7, svc.retentionDays)
	assert.Equal(t, "/tmp/x", svc.folderPath)
	assert.Equal(t, logrus.DebugLevel, svc.Logger().GetLevel())
	assert.Equal(t, "logger", svc.Name())
}

func TestStartStop_WritesToFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewLoggerService(map[string]interface{}{"folder_path": dir})
	require.NoError(t, svc.Start())
	svc.LogAudit("import finished")
	require.NoError(t, svc.Stop())

	data, err := os.ReadFile(svc.currentLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "import finished")
	assert.Contains(t, string(data), `"audit":true`)
}

func TestZipAndCleanOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "billtracker_old.log")
	fresh := filepath.Join(dir, "billtracker_new.log")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("new"), 0644))
	past := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(old, past, past))

	svc := NewLoggerService(map[string]interface{}{"folder_path": dir, "retention_days": 3})
	svc.zipAndCleanOldLogs(time.Now())

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	matches, _ := filepath.Glob(filepath.Join(dir, "logs_*.zip"))
	assert.Len(t, matches, 1)
}

func TestLogError_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	LogError(l, "bills", "Import", "row 4", map[string]int{"row": 4}, errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bills", entry["module"])
	assert.Equal(t, "Import", entry["funcName"])
	assert.Equal(t, "row 4", entry["context"])
	assert.Equal(t, "boom", entry["msg"])
	assert.NotNil(t, entry["data"])
}
