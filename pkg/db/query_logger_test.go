package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/yardops-backend/pkg/logger"
)

func TestQueryLoggerLogsSlowAndFailedStatements(t *testing.T) {
	buf := &bytes.Buffer{}
	ql := newQueryLogger(logger.New(logger.Options{ServiceName: "db-test", Output: buf, Format: "json"}), 50*time.Millisecond)
	sql := func() (string, int64) { return "SELECT * FROM racks", 3 }
	ctx := context.Background()

	ql.Trace(ctx, time.Now(), sql, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast statement should not log: %s", buf.String())
	}

	ql.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("not found is not a failure: %s", buf.String())
	}

	ql.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	if !strings.Contains(buf.String(), "db.query_slow") || !strings.Contains(buf.String(), `"rows":3`) {
		t.Fatalf("expected slow query entry: %s", buf.String())
	}

	buf.Reset()
	ql.Trace(ctx, time.Now(), sql, errors.New("deadlock detected"))
	if !strings.Contains(buf.String(), "db.query_failed") {
		t.Fatalf("expected failure entry: %s", buf.String())
	}

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), sql, errors.New("deadlock detected"))
	if buf.Len() != 0 {
		t.Fatalf("silent mode should not log: %s", buf.String())
	}
}

func TestNewQueryLoggerWithoutLogger(t *testing.T) {
	if newQueryLogger(nil, time.Second) != gormlogger.Discard {
		t.Fatal("expected discard logger")
	}
}
