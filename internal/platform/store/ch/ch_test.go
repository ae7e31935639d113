package ch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

type fakeBatch struct {
	driver.Batch
	rows    [][]any
	sent    bool
	aborted bool
	failAt  int
}

func (b *fakeBatch) Append(v ...any) error {
	if b.failAt > 0 && len(b.rows)+1 == b.failAt {
		return errors.New("column mismatch")
	}
	b.rows = append(b.rows, v)
	return nil
}
func (b *fakeBatch) Send() error  { b.sent = true; return nil }
func (b *fakeBatch) Abort() error { b.aborted = true; return nil }

type fakeConn struct {
	driver.Conn
	query string
	batch *fakeBatch
}

func (c *fakeConn) PrepareBatch(_ context.Context, q string, _ ...driver.PrepareBatchOption) (driver.Batch, error) {
	c.query = q
	return c.batch, nil
}
func (c *fakeConn) Ping(context.Context) error { return nil }
func (c *fakeConn) Close() error               { return nil }

func TestInsert_AppendsAndSends(t *testing.T) {
	t.Parallel()

	fc := &fakeConn{batch: &fakeBatch{}}
	c := New(fc)
	rows := [][]any{{"c-1", "eu"}, {"c-2", "us"}}
	if err := c.Insert(context.Background(), "call_records_search", rows); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if fc.query != "INSERT INTO call_records_search" {
		t.Fatalf("query = %q", fc.query)
	}
	if len(fc.batch.rows) != 2 || !fc.batch.sent {
		t.Fatalf("batch = %+v", fc.batch)
	}
}

func TestInsert_EmptyIsNoop(t *testing.T) {
	t.Parallel()
	fc := &fakeConn{batch: &fakeBatch{}}
	if err := New(fc).Insert(context.Background(), "t", nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if fc.query != "" {
		t.Fatalf("no batch should be prepared")
	}
}

func TestInsert_AppendFailureAborts(t *testing.T) {
	t.Parallel()
	fc := &fakeConn{batch: &fakeBatch{failAt: 2}}
	err := New(fc).Insert(context.Background(), "t", [][]any{{1}, {2}, {3}})
	if err == nil || !strings.Contains(err.Error(), "row 1") {
		t.Fatalf("err = %v", err)
	}
	if !fc.batch.aborted || fc.batch.sent {
		t.Fatalf("batch must be aborted, not sent")
	}
}

func TestInsert_RejectsOddTableNames(t *testing.T) {
	t.Parallel()
	fc := &fakeConn{batch: &fakeBatch{}}
	if err := New(fc).Insert(context.Background(), "t; DROP TABLE x", [][]any{{1}}); err == nil {
		t.Fatalf("expected table name error")
	}
}

func TestBuildClientInfo(t *testing.T) {
	t.Parallel()
	info := BuildClientInfo("api", "cdrflow")
	if len(info.Products) < 4 {
		t.Fatalf("products = %+v", info.Products)
	}
	if info.Products[0].Name != "cdrflow" || info.Products[1].Version != "api" {
		t.Fatalf("products = %+v", info.Products)
	}
}

func TestOpen_BadDSN(t *testing.T) {
	t.Parallel()
	if _, err := Open(context.Background(), Config{URL: "http://%zz"}); err == nil {
		t.Fatalf("expected dsn error")
	}
}
