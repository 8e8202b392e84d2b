// Package reflectx extends reflect with the type helpers the container and
// the resolution layer share.
package reflectx

import (
	"fmt"
	"reflect"
)

var errorType = TypeOf[error]()

// TypeOf returns the reflect.Type of T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// GetInParameters returns the parameter types of a function type.
func GetInParameters(funcType reflect.Type) []reflect.Type {
	if funcType.Kind() != reflect.Func {
		panic(fmt.Errorf("the kind of type '%v' is not function", funcType))
	}
	params := make([]reflect.Type, funcType.NumIn())
	for i := range params {
		params[i] = funcType.In(i)
	}
	return params
}

func IsErrorType(t reflect.Type) bool {
	return t.AssignableTo(errorType)
}

// ZeroConstructor returns a function of type func() T that builds the zero
// value of t, allocating the element when t is a pointer.
func ZeroConstructor(t reflect.Type) any {
	ft := reflect.FuncOf(nil, []reflect.Type{t}, false)
	return reflect.MakeFunc(ft, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{NewZero(t)}
	}).Interface()
}

// NewZero returns the zero value of t, or a pointer to a new zero element when
// t is a pointer type.
func NewZero(t reflect.Type) reflect.Value {
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem())
	}
	return reflect.Zero(t)
}

// IsConcrete reports whether values of t can be constructed directly.
func IsConcrete(t reflect.Type) bool {
	return t != nil && t.Kind() != reflect.Interface
}
