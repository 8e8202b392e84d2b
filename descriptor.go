package di

import (
	"fmt"
	"reflect"

	"github.com/lightestnight/di/reflectx"
)

type Lifetime byte

const (
	Lifetime_Singleton Lifetime = iota
	Lifetime_Scoped
	Lifetime_Transient
)

func (l Lifetime) String() string {
	switch l {
	case Lifetime_Singleton:
		return "Singleton"
	case Lifetime_Scoped:
		return "Scoped"
	case Lifetime_Transient:
		return "Transient"
	default:
		return fmt.Sprintf("Lifetime(%d)", byte(l))
	}
}

// Factory creates a service from the container of the resolving scope.
type Factory func(Container) any

// Constructor is a function building a service, optionally returning an
// error as its second result.
type Constructor struct {
	fn     reflect.Value
	Type   reflect.Type
	Params []reflect.Type
}

func newConstructor(fn any) *Constructor {
	c := &Constructor{fn: reflect.ValueOf(fn), Type: reflect.TypeOf(fn)}
	if c.Type != nil && c.Type.Kind() == reflect.Func {
		c.Params = reflectx.GetInParameters(c.Type)
	}
	return c
}

// Result returns the type the constructor builds, nil when it builds nothing.
func (c *Constructor) Result() reflect.Type {
	if c.Type == nil || c.Type.Kind() != reflect.Func || c.Type.NumOut() == 0 {
		return nil
	}
	return c.Type.Out(0)
}

// Call invokes the constructor and splits its results.
func (c *Constructor) Call(in []reflect.Value) (any, error) {
	out := c.fn.Call(in)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

func (c *Constructor) check(serviceType reflect.Type) error {
	ft := c.Type
	if ft == nil || ft.Kind() != reflect.Func {
		return fmt.Errorf("the constructor of the service '%v' is not a function", serviceType)
	}

	numOut := ft.NumOut()
	if numOut == 0 || numOut > 2 ||
		!ft.Out(0).AssignableTo(serviceType) ||
		(numOut == 2 && !reflectx.IsErrorType(ft.Out(1))) {
		return fmt.Errorf("the constructor must returns a '%v' and an optional error", serviceType)
	}
	return nil
}

// CheckConstructor reports whether ctor can construct a serviceType.
func CheckConstructor(serviceType reflect.Type, ctor any) error {
	return newConstructor(ctor).check(serviceType)
}

// Descriptor describes how one registration of a service is built. Exactly
// one of Ctor, Instance and Factory is set.
type Descriptor struct {
	ServiceType reflect.Type
	Lifetime    Lifetime
	Ctor        *Constructor
	Instance    any
	Factory     Factory
}

// ImplementationType returns the concrete type the descriptor produces,
// or nil when it is only known at resolution time.
func (d *Descriptor) ImplementationType() reflect.Type {
	switch {
	case d.Instance != nil:
		return reflect.TypeOf(d.Instance)
	case d.Ctor != nil:
		return d.Ctor.Result()
	default:
		return nil
	}
}

func (d *Descriptor) String() string {
	switch {
	case d.Ctor != nil:
		return fmt.Sprintf("%v %v built by %v", d.Lifetime, d.ServiceType, d.Ctor.Type)
	case d.Factory != nil:
		return fmt.Sprintf("%v %v built by a factory", d.Lifetime, d.ServiceType)
	default:
		return fmt.Sprintf("%v %v instance %v", d.Lifetime, d.ServiceType, d.Instance)
	}
}

func NewInstanceDescriptor(serviceType reflect.Type, instance any) *Descriptor {
	t := reflect.TypeOf(instance)
	if t == nil {
		panic(fmt.Errorf("the instance of the service '%v' is nil", serviceType))
	}
	if !t.AssignableTo(serviceType) {
		panic(fmt.Errorf("the instance of type '%v' can not assignable to type '%v'", t, serviceType))
	}

	return &Descriptor{ServiceType: serviceType, Lifetime: Lifetime_Singleton, Instance: instance}
}

func NewConstructorDescriptor(serviceType reflect.Type, lifetime Lifetime, ctor any) *Descriptor {
	c := newConstructor(ctor)
	if err := c.check(serviceType); err != nil {
		panic(err)
	}

	return &Descriptor{ServiceType: serviceType, Lifetime: lifetime, Ctor: c}
}

func NewFactoryDescriptor(serviceType reflect.Type, lifetime Lifetime, factory Factory) *Descriptor {
	if factory == nil {
		panic(fmt.Errorf("the factory of the service '%v' is nil", serviceType))
	}

	return &Descriptor{ServiceType: serviceType, Lifetime: lifetime, Factory: factory}
}
