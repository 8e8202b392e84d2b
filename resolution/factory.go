package resolution

import (
	"errors"
	"reflect"
	"sort"

	"github.com/lightestnight/di"
	"github.com/lightestnight/di/errorx"
	"github.com/lightestnight/di/reflectx"
)

// ServiceFactory creates an object of serviceType, passing args to its
// constructor for the parameters that cannot be resolved otherwise.
type ServiceFactory func(serviceType reflect.Type, args ...any) (any, error)

var ServiceFactoryType = reflectx.TypeOf[ServiceFactory]()

// Create builds a T through the factory f.
func Create[T any](f ServiceFactory, args ...any) (result T, err error) {
	t := reflectx.TypeOf[T]()
	v, err := f(t, args...)
	if err != nil {
		return
	}

	result, ok := v.(T)
	if !ok {
		err = &errorx.TypeIncompatibilityError{To: t, From: reflect.TypeOf(v)}
	}
	return
}

// AddServiceResolution registers a singleton ServiceFactory that activates
// types through the container. An existing ServiceFactory registration is
// kept; the result reports whether one was added.
func AddServiceResolution(cb di.ContainerBuilder, opts ...Option) bool {
	return addServiceResolution(cb, newOptions(opts))
}

func addServiceResolution(cb di.ContainerBuilder, o options) bool {
	ctors := indexConstructors(o.resolveModules())

	added := di.TryAddSingletonFactory[ServiceFactory](cb, func(c di.Container) any {
		return newServiceFactory(c, ctors)
	})

	o.logger.Debug().Bool("added", added).Msg("Service resolution")
	return added
}

// Activator returns a ServiceFactory that works without a container: the
// constructor parameters are taken from the caller's arguments only.
func Activator(opts ...Option) ServiceFactory {
	o := newOptions(opts)
	return newServiceFactory(nil, indexConstructors(o.resolveModules()))
}

func newServiceFactory(c di.Container, ctors constructorIndex) ServiceFactory {
	return func(serviceType reflect.Type, args ...any) (any, error) {
		if serviceType == nil {
			return nil, errorx.NewArgumentNilError("serviceType")
		}

		candidates := ctors[serviceType]
		if len(candidates) == 0 {
			if len(args) == 0 && reflectx.IsConcrete(serviceType) {
				return reflectx.NewZero(serviceType).Interface(), nil
			}
			return nil, &errorx.ConstructorNotFound{ServiceType: serviceType}
		}

		var lastErr error
		for _, ctor := range candidates {
			v, err := di.CreateInstance(c, ctor, args...)
			var unresolvable *errorx.UnresolvableParameterError
			if errors.As(err, &unresolvable) {
				lastErr = err
				continue
			}
			return v, err
		}
		return nil, lastErr
	}
}

// constructors by constructed type, most parameters first
type constructorIndex map[reflect.Type][]any

func indexConstructors(modules []*Module) constructorIndex {
	index := make(constructorIndex)
	for _, m := range modules {
		for _, e := range m.entries {
			if e.IsConcrete() {
				index[e.typ] = append(index[e.typ], e.ctor)
			}
		}
	}

	for _, ctors := range index {
		sort.SliceStable(ctors, func(i, j int) bool {
			return reflect.TypeOf(ctors[i]).NumIn() > reflect.TypeOf(ctors[j]).NumIn()
		})
	}
	return index
}
