package gormlogger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	gormLog "gorm.io/gorm/logger"
)

func newLogger(buf *bytes.Buffer) *GormLogger {
	l := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewGormLogger(l, 100*time.Millisecond, true)
}

func TestTrace(t *testing.T) {
	ctx := context.Background()
	query := func(sql string) func() (string, int64) {
		return func() (string, int64) { return sql, 1 }
	}

	tests := []struct {
		name  string
		begin time.Time
		sql   string
		err   error
		want  string
	}{
		{"error", time.Now(), "SELECT 1", errors.New("boom"), "level=ERROR"},
		{"not found", time.Now(), "SELECT 1", gorm.ErrRecordNotFound, "SQL trace"},
		{"slow", time.Now().Add(-time.Second), "SELECT 1", nil, "SLOW SQL"},
		{"slow delete", time.Now().Add(-time.Second), "DELETE FROM snapshots", nil, ""},
		{"fast", time.Now(), "SELECT 1", nil, "SQL trace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newLogger(&buf).Trace(ctx, tt.begin, query(tt.sql), tt.err)
			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestLogMode(t *testing.T) {
	var buf bytes.Buffer
	gl := newLogger(&buf)

	silent := gl.LogMode(gormLog.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("boom"))
	silent.Error(context.Background(), "fail %d", 1)
	assert.Empty(t, buf.String())

	gl.LogMode(gormLog.Warn).Warn(context.Background(), "table %s", "snapshots")
	assert.Contains(t, buf.String(), "table snapshots")
	assert.Equal(t, 100*time.Millisecond, silent.(*GormLogger).SlowThreshold)
}

func TestParamsFilter(t *testing.T) {
	var buf bytes.Buffer
	gl := newLogger(&buf)
	sql, params := gl.ParamsFilter(context.Background(), "SELECT ?", 1)
	assert.Equal(t, "SELECT ?", sql)
	assert.Nil(t, params)

	gl.ParameterizedQueries = false
	_, params = gl.ParamsFilter(context.Background(), "SELECT ?", 1)
	assert.Equal(t, []interface{}{1}, params)
}
