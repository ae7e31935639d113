package store

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"cdrflow/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxFakeRow implements pgx.Row
type pgxFakeRow struct {
	scan func(dest ...any) error
}

func (r *pgxFakeRow) Scan(dest ...any) error {
	if r.scan != nil {
		return r.scan(dest...)
	}
	return nil
}

// pgxFakeRows implements pgx.Rows
type pgxFakeRows struct {
	fields []pgconn.FieldDescription
	data   [][]any
	idx    int
	err    error
	closed bool
	ct     pgconn.CommandTag
}

func newPgxFakeRows(cols []string, data [][]any) *pgxFakeRows {
	fds := make([]pgconn.FieldDescription, len(cols))
	for i, c := range cols {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return &pgxFakeRows{fields: fds, data: data, idx: -1}
}

func (r *pgxFakeRows) Conn() *pgx.Conn { return nil }

func (r *pgxFakeRows) Close()                        { r.closed = true }
func (r *pgxFakeRows) Err() error                    { return r.err }
func (r *pgxFakeRows) CommandTag() pgconn.CommandTag { return r.ct }
func (r *pgxFakeRows) FieldDescriptions() []pgconn.FieldDescription {
	return r.fields
}
func (r *pgxFakeRows) Next() bool {
	if r.err != nil {
		return false
	}
	r.idx++
	return r.idx >= 0 && r.idx < len(r.data)
}
func (r *pgxFakeRows) RawValues() [][]byte { return nil }
func (r *pgxFakeRows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.data) {
		return nil, errors.New("out of range")
	}
	return r.data[r.idx], nil
}
func (r *pgxFakeRows) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if r.idx < 0 || r.idx >= len(r.data) {
		return errors.New("scan out of range")
	}
	row := r.data[r.idx]
	if len(row) != len(dest) {
		return errors.New("dest len mismatch")
	}
	for i := range dest {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer || !dv.Elem().CanSet() {
			return errors.New("dest not pointer")
		}
		val := reflect.ValueOf(row[i])
		if val.IsValid() && val.Type().AssignableTo(dv.Elem().Type()) {
			dv.Elem().Set(val)
			continue
		}
		if val.IsValid() && val.Type().ConvertibleTo(dv.Elem().Type()) {
			dv.Elem().Set(val.Convert(dv.Elem().Type()))
			continue
		}
		return errors.New("type mismatch")
	}
	return nil
}

// pgxFakeTx implements pgx.Tx (only the methods txQuerier uses)
type pgxFakeTx struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (f *pgxFakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execFn != nil {
		return f.execFn(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("OK"), nil
}
func (f *pgxFakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.queryFn != nil {
		return f.queryFn(ctx, sql, args...)
	}
	return newPgxFakeRows([]string{"n"}, [][]any{{1}}), nil
}
func (f *pgxFakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.queryRowFn != nil {
		return f.queryRowFn(ctx, sql, args...)
	}
	return &pgxFakeRow{scan: func(dest ...any) error {
		if len(dest) > 0 {
			if p, ok := dest[0].(*int); ok {
				*p = 7
			}
		}
		return nil
	}}
}

func (f *pgxFakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (f *pgxFakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not implemented")
}
func (f *pgxFakeTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }
func (f *pgxFakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("not implemented")
}
func (f *pgxFakeTx) Conn() *pgx.Conn              { return nil }
func (f *pgxFakeTx) Commit(context.Context) error { return nil }
func (f *pgxFakeTx) Rollback(context.Context) error {
	return nil
}
func (f *pgxFakeTx) Begin(ctx context.Context) (pgx.Tx, error) { return f, nil }

type recTracer struct {
	mu  sync.Mutex
	evs []pg.QueryEvent
}

func (r *recTracer) OnQuery(_ context.Context, ev pg.QueryEvent) {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	r.mu.Unlock()
}

func TestTag(t *testing.T) {
	t.Parallel()
	tg := tag{t: pgconn.NewCommandTag("INSERT 0 3")}
	if tg.String() != "INSERT 0 3" || tg.RowsAffected() != 3 {
		t.Fatalf("tag = %q / %d", tg.String(), tg.RowsAffected())
	}
}

func TestRows_Iterate(t *testing.T) {
	t.Parallel()

	fr := newPgxFakeRows([]string{"id", "region"}, [][]any{{"c-1", "eu"}, {"c-2", "us"}})
	rs := rows{r: fr}

	if cols := rs.Columns(); !reflect.DeepEqual(cols, []string{"id", "region"}) {
		t.Fatalf("Columns = %v", cols)
	}
	var ids, regions []string
	for rs.Next() {
		var id, region string
		if err := rs.Scan(&id, &region); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		ids = append(ids, id)
		regions = append(regions, region)
	}
	if err := rs.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}
	rs.Close()
	if !fr.closed {
		t.Fatalf("underlying rows not closed")
	}
	if !reflect.DeepEqual(ids, []string{"c-1", "c-2"}) || !reflect.DeepEqual(regions, []string{"eu", "us"}) {
		t.Fatalf("ids=%v regions=%v", ids, regions)
	}
}

func TestRows_ErrStopsIteration(t *testing.T) {
	t.Parallel()
	fr := newPgxFakeRows([]string{"n"}, nil)
	fr.err = errors.New("boom")
	rs := rows{r: fr}
	if rs.Next() {
		t.Fatal("Next must be false once rows carry an error")
	}
	if err := rs.Err(); err == nil || err.Error() != "boom" {
		t.Fatalf("Err = %v", err)
	}
}

func TestTxQuerier_TracesStatements(t *testing.T) {
	t.Parallel()

	fx := &pgxFakeTx{
		execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if len(args) != 2 {
				return pgconn.NewCommandTag(""), errors.New("unexpected args")
			}
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
		queryRowFn: func(context.Context, string, ...any) pgx.Row {
			return &pgxFakeRow{scan: func(dest ...any) error { return errors.New("scan failed") }}
		},
	}
	tr := &recTracer{}
	q := txQuerier{tx: fx, tracer: tr, slowMs: 0}

	ct, err := q.Exec(context.Background(), "INSERT INTO call_records (id, region) VALUES ($1, $2)", "c-1", "eu")
	if err != nil || ct.RowsAffected() != 1 {
		t.Fatalf("Exec = %v, %v", ct, err)
	}
	var n int
	if err := q.QueryRow(context.Background(), "SELECT count(*) FROM call_records").Scan(&n); err == nil {
		t.Fatalf("expected scan error")
	}
	rs, err := q.Query(context.Background(), "SELECT n")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	rs.Close()

	if len(tr.evs) != 3 {
		t.Fatalf("want 3 events, got %d", len(tr.evs))
	}
	if len(tr.evs[0].Args) != 2 || tr.evs[0].Err != nil {
		t.Fatalf("exec event = %+v", tr.evs[0])
	}
	if tr.evs[1].Err == nil {
		t.Fatalf("scan error must reach tracer")
	}
	if !tr.evs[0].Slow {
		t.Fatalf("slowMs=0 marks every statement slow")
	}
}

func TestTxQuerier_NoTracer(t *testing.T) {
	t.Parallel()
	fx := &pgxFakeTx{
		queryFn: func(context.Context, string, ...any) (pgx.Rows, error) { return nil, errors.New("query failed") },
	}
	q := txQuerier{tx: fx, slowMs: -1}
	if _, err := q.Query(context.Background(), "x"); err == nil {
		t.Fatalf("expected Query error")
	}
	if _, err := q.Exec(context.Background(), "x"); err != nil {
		t.Fatalf("default Exec: %v", err)
	}
}
