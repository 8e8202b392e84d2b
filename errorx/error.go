// Package errorx holds the typed errors returned by the container and the
// resolution layer.
package errorx

import (
	"fmt"
	"reflect"
	"strings"
)

type ArgumentNilError struct {
	Name string
}

func (e *ArgumentNilError) Error() string {
	return fmt.Sprintf("ArgumentNilError: %v", e.Name)
}

func NewArgumentNilError(name string) *ArgumentNilError {
	return &ArgumentNilError{name}
}

type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("ArgumentError: %v", e.Message)
}

func NewArgumentError(message string) *ArgumentError {
	return &ArgumentError{message}
}

type CircularDependencyError struct {
	Message string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("CircularDependencyError: %v", e.Message)
}

type ServiceNotFound struct {
	ServiceType reflect.Type
}

func (e *ServiceNotFound) Error() string {
	return fmt.Sprintf("ServiceNotFound '%v'", e.ServiceType)
}

// InvalidDescriptor reports a descriptor with neither a constructor, an
// instance nor a factory.
type InvalidDescriptor struct {
	ServiceType reflect.Type
}

func (e *InvalidDescriptor) Error() string {
	return fmt.Sprintf("InvalidDescriptor '%v'", e.ServiceType)
}

type TypeIncompatibilityError struct {
	To   reflect.Type
	From reflect.Type
}

func (e *TypeIncompatibilityError) Error() string {
	return fmt.Sprintf("the value of type '%v' can not assignable to type '%v'", e.From, e.To)
}

type ObjectDisposedError struct {
	Message string
}

func (e *ObjectDisposedError) Error() string {
	return fmt.Sprintf("ObjectDisposedError: %v", e.Message)
}

type ScopedServiceFromRootError struct {
	Message string
}

func (e *ScopedServiceFromRootError) Error() string {
	return fmt.Sprintf("ScopedServiceFromRootError: %v", e.Message)
}

// AggregateError collects independent failures. errors.Is and errors.As
// look into every collected error.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Add(err error) {
	e.Errors = append(e.Errors, err)
}

func (e *AggregateError) Error() string {
	var b strings.Builder
	b.WriteString("AggregateError:")
	for _, err := range e.Errors {
		b.WriteString("\n")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

type ConstructorNotFound struct {
	ServiceType reflect.Type
}

func (e *ConstructorNotFound) Error() string {
	return fmt.Sprintf("ConstructorNotFound '%v'", e.ServiceType)
}

// UnresolvableParameterError reports a constructor parameter that neither the
// container nor the caller supplied arguments could satisfy.
type UnresolvableParameterError struct {
	Constructor reflect.Type
	Index       int
	Parameter   reflect.Type
}

func (e *UnresolvableParameterError) Error() string {
	return fmt.Sprintf("UnresolvableParameterError: parameter %d of type '%v' of constructor '%v'",
		e.Index, e.Parameter, e.Constructor)
}

type InstantiationError struct {
	ServiceType reflect.Type
	Err         error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("InstantiationError '%v': %v", e.ServiceType, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// FromRecovered converts a value returned by recover into an error.
func FromRecovered(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return &PanicError{Value: p}
}
