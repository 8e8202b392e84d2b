package di

import (
	"fmt"
	"reflect"

	"github.com/lightestnight/di/errorx"
)

// resolution is the state of one Get call.
type resolution struct {
	scope *scope
}

func resolve(p *plan, r resolution) (any, error) {
	switch p.kind {
	case planKind_Constant:
		return p.constant, nil
	case planKind_Scope:
		return r.scope, nil
	}

	switch p.lifetime {
	case Lifetime_Singleton:
		return resolveSingleton(p, r)
	case Lifetime_Scoped:
		if r.scope.isRoot {
			return resolveSingleton(p, r)
		}
		return resolveScoped(p, r)
	default:
		v, err := build(p, r)
		if err != nil {
			return nil, err
		}
		return v, r.scope.capture(v)
	}
}

// resolveSingleton builds p once, within the root scope.
func resolveSingleton(p *plan, r resolution) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.built {
		return p.singleton, nil
	}

	root := r.scope.container.root
	v, err := build(p, resolution{scope: root})
	if err != nil {
		return nil, err
	}
	if p.kind != planKind_Slice {
		if err := root.capture(v); err != nil {
			return nil, err
		}
	}

	p.singleton, p.built = v, true
	return v, nil
}

// resolveScoped builds p once per scope. Only the entry of p is locked
// while building, so factories may resolve other services of the scope.
func resolveScoped(p *plan, r resolution) (any, error) {
	s := r.scope
	e := s.entry(p.key())

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.built {
		return e.value, nil
	}

	v, err := build(p, resolution{scope: s})
	if err != nil {
		return nil, err
	}
	if p.kind != planKind_Slice {
		if err := s.capture(v); err != nil {
			return nil, err
		}
	}

	e.value, e.built = v, true
	return v, nil
}

func build(p *plan, r resolution) (any, error) {
	switch p.kind {
	case planKind_Constructor:
		in := make([]reflect.Value, len(p.deps))
		for i, dep := range p.deps {
			v, err := resolve(dep, r)
			if err != nil {
				return nil, err
			}
			in[i] = valueOf(v, p.ctor.Params[i])
		}
		return p.ctor.Call(in)

	case planKind_Factory:
		return callFactory(p, r.scope)

	case planKind_Slice:
		elem := p.serviceType.Elem()
		s := reflect.MakeSlice(p.serviceType, len(p.deps), len(p.deps))
		for i, dep := range p.deps {
			v, err := resolve(dep, r)
			if err != nil {
				return nil, err
			}
			s.Index(i).Set(valueOf(v, elem))
		}
		return s.Interface(), nil

	default:
		return nil, fmt.Errorf("unexpected plan of the service '%v'", p.serviceType)
	}
}

func callFactory(p *plan, s *scope) (any, error) {
	v := p.factory(s)
	if v == nil {
		return nil, fmt.Errorf("the factory of the service '%v' returned nil", p.serviceType)
	}

	t := reflect.TypeOf(v)
	if !t.AssignableTo(p.serviceType) {
		return nil, &errorx.TypeIncompatibilityError{To: p.serviceType, From: t}
	}
	// unnamed func literals must carry the named service type
	if t != p.serviceType && p.serviceType.Kind() != reflect.Interface {
		return reflect.ValueOf(v).Convert(p.serviceType).Interface(), nil
	}
	return v, nil
}
