package resolution

import (
	"fmt"
	"reflect"

	"github.com/lightestnight/di/errorx"
	"github.com/lightestnight/di/reflectx"
)

// ConcreteRegistration asks for every concretion of an interface to be
// registered as a transient service.
type ConcreteRegistration struct {
	// InterfaceType is the requested interface. When Open is set it may be
	// any instantiation of a generic interface and stands for the generic
	// definition.
	InterfaceType reflect.Type
	Open          bool
	// AddIfAlreadyExists adds the concretions even when the interface
	// already has a registration.
	AddIfAlreadyExists bool
}

// Closed requests the concretions of the interface I.
func Closed[I any]() ConcreteRegistration {
	return ConcreteRegistration{InterfaceType: reflectx.TypeOf[I]()}
}

// Open requests the concretions of every instantiation of the generic
// interface I belongs to; Open[Handler[any]] stands for Handler[T].
func Open[I any]() ConcreteRegistration {
	return ConcreteRegistration{InterfaceType: reflectx.TypeOf[I](), Open: true}
}

func (r ConcreteRegistration) AlwaysAdd() ConcreteRegistration {
	r.AddIfAlreadyExists = true
	return r
}

func (r ConcreteRegistration) String() string {
	s := fmt.Sprint(r.InterfaceType)
	if def, ok := r.definition(); ok {
		s = def.String()
	}
	if r.AddIfAlreadyExists {
		s += " (always add)"
	}
	return s
}

func (r ConcreteRegistration) definition() (reflectx.Definition, bool) {
	if !r.Open {
		return reflectx.Definition{}, false
	}
	return reflectx.GenericDefinition(r.InterfaceType)
}

func (r ConcreteRegistration) validate() error {
	if r.InterfaceType == nil {
		return errorx.NewArgumentNilError("InterfaceType")
	}
	if r.InterfaceType.Kind() != reflect.Interface {
		return errorx.NewArgumentError(fmt.Sprintf("'%v' is not an interface", r.InterfaceType))
	}
	if r.Open && !reflectx.IsGeneric(r.InterfaceType) {
		return errorx.NewArgumentError(fmt.Sprintf("'%v' is not a generic interface", r.InterfaceType))
	}
	return nil
}
