package repokit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	kit "cdrflow/internal/platform/testkit"
)

type tag struct{}

func (tag) String() string      { return "OK" }
func (tag) RowsAffected() int64 { return 0 }

type fakeQ struct {
	execs   []string
	failOn  string
	txCalls int
}

func (f *fakeQ) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return nil, errors.New("exec failed")
	}
	return tag{}, nil
}
func (f *fakeQ) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (f *fakeQ) QueryRow(context.Context, string, ...any) Row        { return nil }
func (f *fakeQ) Tx(_ context.Context, fn func(Queryer) error) error {
	f.txCalls++
	return fn(f)
}

func TestWithBeginHooks_RunsHooksFirst(t *testing.T) {
	t.Parallel()
	q := &fakeQ{}
	tx := WithBeginHooks(q, StatementTimeout(1500*time.Millisecond))

	err := WithTx(context.Background(), tx, func(inner Queryer) error {
		_, err := inner.Exec(context.Background(), "INSERT 1")
		return err
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if len(q.execs) != 2 || q.execs[0] != "SET LOCAL statement_timeout = 1500" || q.execs[1] != "INSERT 1" {
		t.Fatalf("execs = %v", q.execs)
	}
}

func TestWithBeginHooks_HookErrorSkipsFn(t *testing.T) {
	t.Parallel()
	q := &fakeQ{failOn: "statement_timeout"}
	tx := WithBeginHooks(q, StatementTimeout(time.Second))
	called := false
	err := tx.Tx(context.Background(), func(Queryer) error { called = true; return nil })
	if err == nil || called {
		t.Fatalf("err = %v called = %v", err, called)
	}
}

func TestWithBeginHooks_NoHooksIsIdentity(t *testing.T) {
	t.Parallel()
	q := &fakeQ{}
	if got := WithBeginHooks(q); got != TxRunner(q) {
		t.Fatalf("expected inner runner back")
	}
	tx := WithBeginHooks(q, StatementTimeout(time.Second))
	if _, err := tx.Exec(context.Background(), "SELECT 1"); err != nil || q.execs[0] != "SELECT 1" {
		t.Fatalf("exec not delegated: %v %v", err, q.execs)
	}
}

func TestMustBind(t *testing.T) {
	t.Parallel()
	b := BindFunc[int](func(Queryer) int { return 7 })
	if MustBind[int](b, &fakeQ{}) != 7 {
		t.Fatalf("bind result wrong")
	}
	kit.MustPanic(t, func() { MustBind[int](b, nil) })
}

type guardFunc func(context.Context) error

func (g guardFunc) Guard(ctx context.Context) error { return g(ctx) }

func TestMustGuard(t *testing.T) {
	t.Parallel()
	kit.MustNotPanic(t, func() {
		MustGuard(context.Background(), guardFunc(func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		}))
	})
	kit.MustPanic(t, func() {
		MustGuard(context.Background(), guardFunc(func(context.Context) error { return errors.New("down") }))
	})
}
