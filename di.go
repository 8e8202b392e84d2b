// Package di is a dependency-injection container: services are registered
// on a ContainerBuilder as descriptors and resolved by type from the built
// Container or from one of its scopes.
package di

import (
	"errors"
	"reflect"

	"github.com/lightestnight/di/errorx"
	"github.com/lightestnight/di/reflectx"
)

// Container resolves services by type.
type Container interface {
	Get(reflect.Type) (any, error)
}

// Scope is a container owning its scoped services. Dispose disposes
// what it captured.
type Scope interface {
	Container() Container
	Dispose()
}

type ScopeFactory interface {
	CreateScope() Scope
}

// IsService reports whether a type is registered, a slice counting when its
// element type is. Every container resolves it.
type IsService interface {
	IsService(serviceType reflect.Type) bool
}

// Disposable services are disposed with the scope that built them.
type Disposable interface {
	Dispose()
}

// Get service of the type T from the container c
func Get[T any](c Container) T {
	result, err := TryGet[T](c)
	if err != nil {
		panic(err)
	}
	return result
}

func TryGet[T any](c Container) (result T, err error) {
	t := reflectx.TypeOf[T]()
	v, err := c.Get(t)
	if err != nil {
		return
	}

	result, ok := v.(T)
	if !ok {
		err = &errorx.TypeIncompatibilityError{To: t, From: reflect.TypeOf(v)}
		return
	}

	return
}

// GetAll returns every service registered as T, in registration order.
func GetAll[T any](c Container) []T {
	return Get[[]T](c)
}

// Invoke calls fn with its parameters resolved from the Container c and
// returns its results.
func Invoke(c Container, fn any) ([]any, error) {
	vfn := reflect.ValueOf(fn)
	if vfn.Kind() != reflect.Func {
		return nil, errors.New("fn is not a function")
	}

	params := reflectx.GetInParameters(vfn.Type())
	in := make([]reflect.Value, len(params))
	for i, t := range params {
		v, err := c.Get(t)
		if err != nil {
			return nil, err
		}
		in[i] = valueOf(v, t)
	}

	out := vfn.Call(in)
	if len(out) == 0 {
		return nil, nil
	}

	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}
