package di

import (
	"fmt"
	"reflect"

	"github.com/lightestnight/di/errorx"
)

// CreateInstance calls ctor, resolving each of its parameters from the
// Container c. A parameter the container does not know is taken from the
// first unused element of args assignable to it.
// c may be nil, in which case every parameter comes from args.
//
// A parameter the container knows is always resolved from it, even when
// args holds a value of that type. Slices count as known only when their
// element type is registered, so a slice argument is used otherwise.
func CreateInstance(c Container, ctor any, args ...any) (any, error) {
	ci := newConstructor(ctor)
	if err := checkActivatable(ci); err != nil {
		return nil, err
	}

	in, err := bindParameters(c, ci, args)
	if err != nil {
		return nil, err
	}

	return ci.Call(in)
}

func checkActivatable(ci *Constructor) error {
	if ci.Type == nil || ci.Type.Kind() != reflect.Func {
		return errorx.NewArgumentError(fmt.Sprintf("'%v' is not a function", ci.Type))
	}
	if ci.Type.IsVariadic() {
		return errorx.NewArgumentError(fmt.Sprintf("variadic constructor '%v' is not supported", ci.Type))
	}
	if ci.Result() == nil {
		return errorx.NewArgumentError(fmt.Sprintf("the constructor '%v' returns nothing", ci.Type))
	}
	return ci.check(ci.Result())
}

func bindParameters(c Container, ci *Constructor, args []any) ([]reflect.Value, error) {
	var isService IsService
	if c != nil {
		isService, _ = TryGet[IsService](c)
	}

	used := make([]bool, len(args))
	in := make([]reflect.Value, len(ci.Params))

	for i, p := range ci.Params {
		if isService != nil && isService.IsService(p) {
			v, err := c.Get(p)
			if err != nil {
				return nil, err
			}
			in[i] = valueOf(v, p)
			continue
		}

		j := matchArgument(p, args, used)
		if j < 0 {
			return nil, &errorx.UnresolvableParameterError{Constructor: ci.Type, Index: i, Parameter: p}
		}
		used[j] = true
		in[i] = valueOf(args[j], p)
	}

	return in, nil
}

func matchArgument(p reflect.Type, args []any, used []bool) int {
	for j, a := range args {
		if used[j] {
			continue
		}
		if a == nil {
			if nillable(p) {
				return j
			}
			continue
		}
		if reflect.TypeOf(a).AssignableTo(p) {
			return j
		}
	}
	return -1
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return true
	default:
		return false
	}
}

func valueOf(v any, t reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(v)
}
