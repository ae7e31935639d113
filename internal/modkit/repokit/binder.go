package repokit

// Binder binds a repo to a Queryer, usually the one a transaction hands out
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc makes a Binder from a function
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind panics on a nil Queryer, then binds
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}
