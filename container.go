package di

import (
	"fmt"
	"reflect"
	"sync/atomic"

	"github.com/lightestnight/di/errorx"
	"github.com/lightestnight/di/reflectx"
)

var ContainerType = reflectx.TypeOf[Container]()
var ScopeFactoryType = reflectx.TypeOf[ScopeFactory]()
var IsServiceType = reflectx.TypeOf[IsService]()

// Container options.
type Options struct {
	// ValidateScopes rejects scoped services resolved from the root scope
	// and scoped services consumed by singletons.
	ValidateScopes bool
	// ValidateOnBuild plans every descriptor when building, so that missing
	// dependencies and cycles make Build panic.
	ValidateOnBuild bool
}

// Get default container options.
func DefaultOptions() Options {
	return Options{}
}

type container struct {
	root     *scope
	planner  *planner
	options  Options
	disposed atomic.Bool
}

func newContainer(descriptors []*Descriptor, options Options) *container {
	c := &container{
		planner: newPlanner(descriptors, options.ValidateScopes),
		options: options,
	}
	c.root = newScope(c, true)

	c.planner.addBuiltIn(ContainerType, planKind_Scope, nil)
	c.planner.addBuiltIn(ScopeFactoryType, planKind_Constant, c.root)
	c.planner.addBuiltIn(IsServiceType, planKind_Constant, c.planner)
	return c
}

func (c *container) Get(serviceType reflect.Type) (any, error) {
	return c.get(serviceType, c.root)
}

func (c *container) CreateScope() Scope {
	if c.disposed.Load() {
		panic(&errorx.ObjectDisposedError{Message: "the container is disposed"})
	}
	return newScope(c, false)
}

func (c *container) Dispose() {
	c.root.Dispose()
}

func (c *container) get(serviceType reflect.Type, s *scope) (result any, err error) {
	if c.disposed.Load() {
		return nil, &errorx.ObjectDisposedError{Message: "the container is disposed"}
	}

	defer func() {
		if p := recover(); p != nil {
			err = errorx.FromRecovered(p)
		}
	}()

	p, err := c.planner.planOf(serviceType, nil)
	if err != nil {
		return nil, err
	}

	if c.options.ValidateScopes && s.isRoot {
		if scoped := p.requiredScope(); scoped == serviceType {
			return nil, &errorx.ScopedServiceFromRootError{
				Message: fmt.Sprintf("cannot resolve scoped service '%v' from root scope", serviceType)}
		} else if scoped != nil {
			return nil, &errorx.ScopedServiceFromRootError{
				Message: fmt.Sprintf("cannot resolve '%v' from root scope because it requires scoped service '%v'", serviceType, scoped)}
		}
	}

	return resolve(p, resolution{scope: s})
}

// validate plans every descriptor, collecting the failures.
func (c *container) validate(descriptors []*Descriptor) error {
	var errs errorx.AggregateError
	for _, d := range descriptors {
		if _, err := c.planner.planOfDescriptor(d); err != nil {
			errs.Add(err)
		}
	}
	if len(errs.Errors) > 0 {
		return &errs
	}
	return nil
}
