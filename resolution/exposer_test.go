package resolution

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lightestnight/di"
	"github.com/lightestnight/di/errorx"
	"github.com/lightestnight/di/reflectx"
)

type testDelegate func() string

type testDelegateExposer struct{}

func (*testDelegateExposer) ExposeDelegates(cb di.ContainerBuilder) error {
	di.AddInstance[testDelegate](cb, testDelegate(func() string { return "TEST" }))
	return nil
}

var exposerModule = NewModule("exposer_test", ConcreteOf[*testDelegateExposer]())

func init() {
	Register(exposerModule)
}

func TestAddExposedDelegates_DefaultModules(t *testing.T) {
	cb := di.Builder()

	require.NoError(t, AddExposedDelegates(cb))

	c := cb.Build()
	require.Equal(t, "TEST", di.Get[testDelegate](c)())
	require.NotNil(t, di.Get[ServiceFactory](c))
}

func TestAddExposedDelegates_ExplicitModules(t *testing.T) {
	cb := di.Builder()

	require.NoError(t, AddExposedDelegates(cb, WithModules(exposerModule)))

	require.True(t, cb.Contains(reflectx.TypeOf[testDelegate]()))
	require.False(t, cb.Contains(ServiceFactoryType))
}

type countedService struct{ name string }

type countingExposer struct{}

func (*countingExposer) ExposeDelegates(cb di.ContainerBuilder) error {
	di.AddTransient[*countedService](cb, func() *countedService { return &countedService{} })
	return nil
}

func TestAddExposedDelegates_Concurrent(t *testing.T) {
	numModules, numExposers := 8, 16

	modules := make([]*Module, numModules)
	for i := range modules {
		entries := make([]Entry, numExposers)
		for j := range entries {
			entries[j] = ConcreteOf[*countingExposer]()
		}
		modules[i] = NewModule(fmt.Sprintf("counting_%d", i), entries...)
	}

	cb := di.Builder()
	require.NoError(t, AddExposedDelegates(cb, WithModules(modules...)))

	c := cb.Build()
	require.Len(t, di.GetAll[*countedService](c), numModules*numExposers)
}

var errExpose = errors.New("expose failed")

type failingExposer struct{}

func (*failingExposer) ExposeDelegates(di.ContainerBuilder) error {
	return errExpose
}

type panickingExposer struct{}

func (*panickingExposer) ExposeDelegates(di.ContainerBuilder) error {
	panic("exposer panicked")
}

type parameterizedExposer struct{ name string }

func (*parameterizedExposer) ExposeDelegates(di.ContainerBuilder) error {
	return nil
}

func TestAddExposedDelegates_Failures(t *testing.T) {
	err := AddExposedDelegates(di.Builder(),
		WithModules(NewModule("failing", ConcreteOf[*failingExposer]())))
	require.ErrorIs(t, err, errExpose)

	err = AddExposedDelegates(di.Builder(),
		WithModules(NewModule("panicking", ConcreteOf[*panickingExposer]())))
	var panicErr *errorx.PanicError
	require.ErrorAs(t, err, &panicErr)

	err = AddExposedDelegates(di.Builder(),
		WithModules(NewModule("parameterized",
			Concrete(func(name string) *parameterizedExposer { return &parameterizedExposer{name: name} }))))
	var paramErr *errorx.UnresolvableParameterError
	require.ErrorAs(t, err, &paramErr)

	var nilErr *errorx.ArgumentNilError
	require.ErrorAs(t, AddExposedDelegates(nil), &nilErr)
}

type widget struct{ name string }

func newWidget(name string) *widget {
	return &widget{name: name}
}

func TestAddExposedDelegates_ServiceFactoryUsesGivenModules(t *testing.T) {
	app := NewModule("widget_app", Concrete(newWidget))

	var buf bytes.Buffer
	cb := di.Builder()
	require.NoError(t, AddExposedDelegates(cb, WithModules(app, Self),
		WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))))

	w, err := Create[*widget](di.Get[ServiceFactory](cb.Build()), "w")
	require.NoError(t, err)
	require.Equal(t, "w", w.name)
	require.Contains(t, buf.String(), "Service resolution")
}
