package di

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/lightestnight/di/errorx"
	"github.com/lightestnight/di/syncx"
)

type planKind byte

const (
	planKind_Constant planKind = iota
	planKind_Constructor
	planKind_Factory
	planKind_Slice
	// the resolving scope itself
	planKind_Scope
)

// planKey identifies one registration of a service. Slot 0 is the last
// registration, the one a plain Get resolves.
type planKey struct {
	ServiceType reflect.Type
	Slot        int
}

// plan is the recipe the resolver follows to build one registration.
type plan struct {
	kind        planKind
	serviceType reflect.Type
	lifetime    Lifetime
	slot        int

	constant any
	ctor     *Constructor
	factory  Factory
	deps     []*plan

	// first scoped service the plan depends on
	scopedDep reflect.Type

	mu        sync.Mutex
	built     bool
	singleton any
}

func (p *plan) key() planKey {
	return planKey{p.serviceType, p.slot}
}

// requiredScope returns the scoped service that keeps the plan from being
// resolved from the root scope, or nil.
func (p *plan) requiredScope() reflect.Type {
	if p.lifetime == Lifetime_Scoped && (p.kind == planKind_Constructor || p.kind == planKind_Factory) {
		return p.serviceType
	}
	return p.scopedDep
}

// chain is the path of services being planned, used to detect cycles.
type chain []reflect.Type

func (c chain) check(serviceType reflect.Type) error {
	for i, t := range c {
		if t != serviceType {
			continue
		}

		path := make([]string, 0, len(c)-i+1)
		for _, p := range c[i:] {
			path = append(path, p.String())
		}
		path = append(path, serviceType.String())

		return &errorx.CircularDependencyError{Message: fmt.Sprintf(
			"a circular dependency was detected for the service of type '%v': %s",
			serviceType, strings.Join(path, " -> "))}
	}
	return nil
}

// planner turns descriptors into plans, memoizing one plan per registration.
type planner struct {
	descriptors    map[reflect.Type][]*Descriptor
	plans          *syncx.Map[planKey, *plan]
	locks          syncx.LockMap
	validateScopes bool
}

func newPlanner(descriptors []*Descriptor, validateScopes bool) *planner {
	p := &planner{
		descriptors:    make(map[reflect.Type][]*Descriptor),
		plans:          syncx.NewMap[planKey, *plan](),
		validateScopes: validateScopes,
	}
	for _, d := range descriptors {
		p.descriptors[d.ServiceType] = append(p.descriptors[d.ServiceType], d)
	}
	return p
}

// addBuiltIn registers a plan that does not come from a descriptor.
func (p *planner) addBuiltIn(serviceType reflect.Type, kind planKind, constant any) {
	p.plans.Store(planKey{serviceType, 0}, &plan{
		kind:        kind,
		serviceType: serviceType,
		lifetime:    Lifetime_Transient,
		constant:    constant,
	})
}

// IsService reports whether serviceType is registered. A slice is a service
// when its element type is, even though Get resolves any slice type.
func (p *planner) IsService(serviceType reflect.Type) bool {
	if serviceType == nil {
		return false
	}
	if _, ok := p.descriptors[serviceType]; ok {
		return true
	}
	if serviceType.Kind() == reflect.Slice {
		return len(p.descriptors[serviceType.Elem()]) > 0
	}
	_, ok := p.plans.Load(planKey{serviceType, 0})
	return ok
}

func (p *planner) planOf(serviceType reflect.Type, c chain) (*plan, error) {
	if pl, ok := p.plans.Load(planKey{serviceType, 0}); ok {
		return pl, nil
	}
	if err := c.check(serviceType); err != nil {
		return nil, err
	}

	l := p.locks.LoadOrCreate(serviceType)
	l.Lock()
	defer l.Unlock()

	if ds, ok := p.descriptors[serviceType]; ok {
		return p.planDescriptor(ds[len(ds)-1], 0, c)
	}
	if serviceType.Kind() == reflect.Slice {
		return p.planSlice(serviceType, c)
	}
	return nil, &errorx.ServiceNotFound{ServiceType: serviceType}
}

// planOfDescriptor returns the plan of a registered descriptor.
func (p *planner) planOfDescriptor(d *Descriptor) (*plan, error) {
	ds := p.descriptors[d.ServiceType]
	for i := range ds {
		if ds[i] == d {
			return p.planDescriptor(d, len(ds)-1-i, nil)
		}
	}
	return nil, fmt.Errorf("the descriptor '%v' is not registered", d)
}

func (p *planner) planDescriptor(d *Descriptor, slot int, c chain) (*plan, error) {
	key := planKey{d.ServiceType, slot}
	if pl, ok := p.plans.Load(key); ok {
		return pl, nil
	}

	pl := &plan{serviceType: d.ServiceType, lifetime: d.Lifetime, slot: slot}
	switch {
	case d.Instance != nil:
		pl.kind = planKind_Constant
		pl.constant = d.Instance
	case d.Factory != nil:
		pl.kind = planKind_Factory
		pl.factory = d.Factory
	case d.Ctor != nil:
		pl.kind = planKind_Constructor
		pl.ctor = d.Ctor

		c = append(c, d.ServiceType)
		for _, t := range d.Ctor.Params {
			dep, err := p.planOf(t, c)
			if err != nil {
				return nil, err
			}
			pl.deps = append(pl.deps, dep)
		}
	default:
		return nil, &errorx.InvalidDescriptor{ServiceType: d.ServiceType}
	}

	if err := p.checkScopes(pl); err != nil {
		return nil, err
	}

	pl, _ = p.plans.LoadOrStore(key, pl)
	return pl, nil
}

// planSlice plans every registration of the element type, in registration
// order. The slice is cached as long as its shortest lived element.
func (p *planner) planSlice(serviceType reflect.Type, c chain) (*plan, error) {
	key := planKey{serviceType, 0}
	if pl, ok := p.plans.Load(key); ok {
		return pl, nil
	}

	pl := &plan{kind: planKind_Slice, serviceType: serviceType, lifetime: Lifetime_Singleton}

	c = append(c, serviceType)
	ds := p.descriptors[serviceType.Elem()]
	for i, d := range ds {
		dep, err := p.planDescriptor(d, len(ds)-1-i, c)
		if err != nil {
			return nil, err
		}
		if dep.kind != planKind_Constant && dep.lifetime > pl.lifetime {
			pl.lifetime = dep.lifetime
		}
		pl.deps = append(pl.deps, dep)
	}

	if err := p.checkScopes(pl); err != nil {
		return nil, err
	}

	pl, _ = p.plans.LoadOrStore(key, pl)
	return pl, nil
}

func (p *planner) checkScopes(pl *plan) error {
	for _, dep := range pl.deps {
		if pl.scopedDep = dep.requiredScope(); pl.scopedDep != nil {
			break
		}
	}

	if p.validateScopes && pl.lifetime == Lifetime_Singleton && pl.kind != planKind_Slice && pl.scopedDep != nil {
		return fmt.Errorf("cannot consume scoped service '%v' from singleton '%v'", pl.scopedDep, pl.serviceType)
	}
	return nil
}
