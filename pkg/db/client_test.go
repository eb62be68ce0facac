package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/yardops-backend/pkg/config"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_outbox_events_event_aggregate"}
	if !IsUniqueViolation(pgErr, "") {
		t.Fatal("expected unique violation for 23505")
	}
	if !IsUniqueViolation(fmt.Errorf("insert: %w", pgErr), "ux_outbox_events_event_aggregate") {
		t.Fatal("expected wrapped constraint match")
	}
	if IsUniqueViolation(pgErr, "other_constraint") {
		t.Fatal("constraint name mismatch should not match")
	}
	if !IsUniqueViolation(errors.New("ERROR: duplicate key value violates unique constraint"), "") {
		t.Fatal("expected message fallback to match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error is never a violation")
	}
}

func TestIsCheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "ck_racks_occupied_le_capacity"}
	if !IsCheckViolation(pgErr, "ck_racks_occupied_le_capacity") {
		t.Fatal("expected check violation")
	}
	if IsCheckViolation(&pgconn.PgError{Code: "23505"}, "") {
		t.Fatal("unique violation is not a check violation")
	}
}

func TestDialectorFor(t *testing.T) {
	for _, driver := range []string{"", "postgres", "sqlite"} {
		if _, err := dialectorFor(config.DBConfig{Driver: driver, DSN: "x"}); err != nil {
			t.Fatalf("driver %q: unexpected error %v", driver, err)
		}
	}
	if _, err := dialectorFor(config.DBConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}
