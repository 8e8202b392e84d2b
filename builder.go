package di

import (
	"reflect"
	"sync"

	"github.com/lightestnight/di/reflectx"
)

// ContainerBuilder collects service descriptors and builds a Container.
// It is safe for concurrent use.
type ContainerBuilder interface {
	// Add appends the descriptors, keeping any registered before.
	Add(...*Descriptor)
	// TryAdd appends the descriptor only when no descriptor of the same
	// service type was registered. It reports whether it was added.
	TryAdd(*Descriptor) bool
	Contains(reflect.Type) bool
	// Remove drops every descriptor of the service type.
	Remove(reflect.Type)
	// Descriptors returns a snapshot of the registered descriptors.
	Descriptors() []*Descriptor
	Build() Container
	ConfigureOptions(func(*Options))
}

type containerBuilder struct {
	mu                   sync.Mutex
	descriptors          []*Descriptor
	optionsConfigurators []func(*Options)
}

func (b *containerBuilder) ConfigureOptions(f func(*Options)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.optionsConfigurators = append(b.optionsConfigurators, f)
}

func (b *containerBuilder) Add(d ...*Descriptor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.descriptors = append(b.descriptors, d...)
}

func (b *containerBuilder) TryAdd(d *Descriptor) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.indexOf(d.ServiceType) >= 0 {
		return false
	}
	b.descriptors = append(b.descriptors, d)
	return true
}

func (b *containerBuilder) Contains(serviceType reflect.Type) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.indexOf(serviceType) >= 0
}

func (b *containerBuilder) Remove(serviceType reflect.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.descriptors[:0]
	for _, d := range b.descriptors {
		if d.ServiceType != serviceType {
			kept = append(kept, d)
		}
	}
	for i := len(kept); i < len(b.descriptors); i++ {
		b.descriptors[i] = nil
	}
	b.descriptors = kept
}

func (b *containerBuilder) Descriptors() []*Descriptor {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := make([]*Descriptor, len(b.descriptors))
	copy(d, b.descriptors)
	return d
}

// must be called with b.mu held
func (b *containerBuilder) indexOf(serviceType reflect.Type) int {
	for i, d := range b.descriptors {
		if d.ServiceType == serviceType {
			return i
		}
	}
	return -1
}

// Build creates a Container from a snapshot of the descriptors. It panics
// with an errorx.AggregateError when ValidateOnBuild is set and some
// descriptors cannot be planned.
func (b *containerBuilder) Build() Container {
	b.mu.Lock()
	options := DefaultOptions()
	for _, f := range b.optionsConfigurators {
		f(&options)
	}
	descriptors := make([]*Descriptor, len(b.descriptors))
	copy(descriptors, b.descriptors)
	b.mu.Unlock()

	c := newContainer(descriptors, options)
	if options.ValidateOnBuild {
		if err := c.validate(descriptors); err != nil {
			panic(err)
		}
	}
	return c
}

// Builder returns an empty ContainerBuilder.
func Builder() ContainerBuilder {
	return &containerBuilder{}
}

// Instance describes a singleton service T served by an existing value.
func Instance[T any](instance any) *Descriptor {
	return NewInstanceDescriptor(reflectx.TypeOf[T](), instance)
}

// Transient describes a service T built by ctor on every resolution.
func Transient[T any](ctor any) *Descriptor {
	return NewConstructorDescriptor(reflectx.TypeOf[T](), Lifetime_Transient, ctor)
}

// Scoped describes a service T built by ctor once per scope.
func Scoped[T any](ctor any) *Descriptor {
	return NewConstructorDescriptor(reflectx.TypeOf[T](), Lifetime_Scoped, ctor)
}

// Singleton describes a service T built by ctor once per container.
func Singleton[T any](ctor any) *Descriptor {
	return NewConstructorDescriptor(reflectx.TypeOf[T](), Lifetime_Singleton, ctor)
}

func TransientFactory[T any](factory Factory) *Descriptor {
	return NewFactoryDescriptor(reflectx.TypeOf[T](), Lifetime_Transient, factory)
}

func ScopedFactory[T any](factory Factory) *Descriptor {
	return NewFactoryDescriptor(reflectx.TypeOf[T](), Lifetime_Scoped, factory)
}

func SingletonFactory[T any](factory Factory) *Descriptor {
	return NewFactoryDescriptor(reflectx.TypeOf[T](), Lifetime_Singleton, factory)
}

// The Add helpers register a descriptor of T on cb. ctor must return a value
// assignable to T, optionally followed by an error; its parameters are
// resolved from the container.

func AddTransient[T any](cb ContainerBuilder, ctor any) {
	cb.Add(Transient[T](ctor))
}

func AddScoped[T any](cb ContainerBuilder, ctor any) {
	cb.Add(Scoped[T](ctor))
}

func AddSingleton[T any](cb ContainerBuilder, ctor any) {
	cb.Add(Singleton[T](ctor))
}

// AddInstance registers instance, which must be assignable to T.
func AddInstance[T any](cb ContainerBuilder, instance any) {
	cb.Add(Instance[T](instance))
}

func AddTransientFactory[T any](cb ContainerBuilder, factory Factory) {
	cb.Add(TransientFactory[T](factory))
}

func AddScopedFactory[T any](cb ContainerBuilder, factory Factory) {
	cb.Add(ScopedFactory[T](factory))
}

func AddSingletonFactory[T any](cb ContainerBuilder, factory Factory) {
	cb.Add(SingletonFactory[T](factory))
}

// The TryAdd helpers register a descriptor of T unless T already has one,
// reporting whether they did.

func TryAddTransient[T any](cb ContainerBuilder, ctor any) bool {
	return cb.TryAdd(Transient[T](ctor))
}

func TryAddSingleton[T any](cb ContainerBuilder, ctor any) bool {
	return cb.TryAdd(Singleton[T](ctor))
}

func TryAddSingletonFactory[T any](cb ContainerBuilder, factory Factory) bool {
	return cb.TryAdd(SingletonFactory[T](factory))
}
