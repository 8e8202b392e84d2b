package di

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lightestnight/di/errorx"
)

type readWriter struct {
	io.Reader
	io.Writer
}

func newReadWriter(c Container) any {
	return &readWriter{Reader: Get[io.Reader](c), Writer: Get[io.Writer](c)}
}

func TestFactory_Basic(t *testing.T) {
	b := Builder()
	b.ConfigureOptions(func(o *Options) { o.ValidateOnBuild = true })

	b.Add(TransientFactory[io.ReadWriter](newReadWriter))
	b.Add(TransientFactory[io.Reader](func(Container) any { return strings.NewReader("hello") }))
	b.Add(ScopedFactory[io.Writer](func(Container) any { return &strings.Builder{} }))
	c := b.Build()

	rw := Get[io.ReadWriter](c).(*readWriter)
	require.IsType(t, &strings.Reader{}, rw.Reader)
	require.IsType(t, &strings.Builder{}, rw.Writer)
}

func TestFactory_Lifetimes(t *testing.T) {
	var scoped, singleton counter
	b := Builder()
	b.ConfigureOptions(func(o *Options) { o.ValidateScopes = true })
	AddScopedFactory[int32](b, func(Container) any { return scoped.next() })
	AddSingletonFactory[int64](b, func(Container) any { return int64(singleton.next()) })

	c := b.Build()

	for i := int32(1); i <= 3; i++ {
		s := Get[ScopeFactory](c).CreateScope()
		require.Equal(t, i, Get[int32](s.Container()))
		require.Equal(t, i, Get[int32](s.Container()))
		require.EqualValues(t, 1, Get[int64](s.Container()))
	}
}

type greeting func() string

func TestFactory_ConvertsToNamedFunc(t *testing.T) {
	b := Builder()
	AddTransientFactory[greeting](b, func(Container) any { return func() string { return "hi" } })
	c := b.Build()

	require.Equal(t, "hi", Get[greeting](c)())
}

func TestFactory_InvalidResults(t *testing.T) {
	b := Builder()
	AddTransientFactory[io.Reader](b, func(Container) any { return nil })
	AddTransientFactory[io.Writer](b, func(Container) any { return 42 })
	c := b.Build()

	_, err := TryGet[io.Reader](c)
	require.ErrorContains(t, err, "returned nil")

	_, err = TryGet[io.Writer](c)
	var typeErr *errorx.TypeIncompatibilityError
	require.ErrorAs(t, err, &typeErr)

	require.Panics(t, func() { TransientFactory[io.Reader](nil) })
}

func TestTryAddSingletonFactory(t *testing.T) {
	b := Builder()
	require.True(t, TryAddSingletonFactory[io.Reader](b, func(Container) any { return strings.NewReader("a") }))
	require.False(t, TryAddSingletonFactory[io.Reader](b, func(Container) any { return strings.NewReader("b") }))

	data, err := io.ReadAll(Get[io.Reader](b.Build()))
	require.NoError(t, err)
	require.Equal(t, "a", string(data))
}

func resolveWithin(t *testing.T, timeout time.Duration, resolve func()) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		defer close(done)
		resolve()
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("resolution did not return")
	}
}

type scopedService struct {
	dep any
}

func TestFactory_ScopedResolvesScoped(t *testing.T) {
	b := Builder()
	AddScoped[*closer](b, func() *closer { return &closer{} })
	AddScopedFactory[*scopedService](b, func(c Container) any {
		return &scopedService{dep: Get[*closer](c)}
	})
	c := b.Build()

	s := Get[ScopeFactory](c).CreateScope()
	var svc *scopedService
	resolveWithin(t, 2*time.Second, func() { svc = Get[*scopedService](s.Container()) })

	require.Same(t, Get[*closer](s.Container()), svc.dep)
	require.Same(t, svc, Get[*scopedService](s.Container()))

	s.Dispose()
	require.True(t, svc.dep.(*closer).closed.Load())
}

func TestFactory_ScopedResolvesTransientDisposable(t *testing.T) {
	b := Builder()
	AddTransient[*closer](b, func() *closer { return &closer{} })
	AddScopedFactory[*scopedService](b, func(c Container) any {
		return &scopedService{dep: Get[*closer](c)}
	})
	c := b.Build()

	s := Get[ScopeFactory](c).CreateScope()
	var svc *scopedService
	resolveWithin(t, 2*time.Second, func() { svc = Get[*scopedService](s.Container()) })

	s.Dispose()
	require.True(t, svc.dep.(*closer).closed.Load())
}

func TestFactory_ScopedConcurrently(t *testing.T) {
	var cnt counter
	b := Builder()
	AddScoped[*closer](b, func() *closer { return &closer{id: cnt.next()} })
	AddScopedFactory[*scopedService](b, func(c Container) any {
		return &scopedService{dep: Get[*closer](c)}
	})
	c := b.Build()
	s := Get[ScopeFactory](c).CreateScope()

	results := make([]*scopedService, 20)
	resolveWithin(t, 5*time.Second, func() {
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = Get[*scopedService](s.Container())
			}()
		}
		wg.Wait()
	})

	for _, r := range results {
		require.Same(t, results[0], r)
	}
	require.EqualValues(t, 1, cnt.n)
}
