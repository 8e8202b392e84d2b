package resolution

import (
	"reflect"
	"slices"

	"github.com/rs/zerolog"

	"github.com/lightestnight/di"
	"github.com/lightestnight/di/errorx"
	"github.com/lightestnight/di/reflectx"
)

// RegisterServices scans modules for the concretions of each requested
// interface and adds them to cb as transient services. When modules is
// empty the registered modules and Self are scanned.
//
// Without AddIfAlreadyExists an interface that already has a registration
// is left untouched. A generic concretion that fails to instantiate for an
// interface is skipped.
func RegisterServices(cb di.ContainerBuilder, modules []*Module, registrations []ConcreteRegistration, opts ...Option) error {
	if cb == nil {
		return errorx.NewArgumentNilError("cb")
	}

	var errs errorx.AggregateError
	for _, r := range registrations {
		if err := r.validate(); err != nil {
			errs.Add(err)
		}
	}
	if len(errs.Errors) == 1 {
		return errs.Errors[0]
	} else if len(errs.Errors) > 1 {
		return &errs
	}

	o := newOptions(opts)
	if len(modules) > 0 {
		o.modules = modules
	}
	s := newScanner(o.resolveModules(), o.logger)

	for _, r := range registrations {
		if def, ok := r.definition(); ok {
			s.connectImplementationsToTypesClosing(cb, def, r.AddIfAlreadyExists)
		} else {
			s.connectImplementationsToTypes(cb, r.InterfaceType, r.AddIfAlreadyExists)
		}
	}

	return nil
}

type scanner struct {
	entries []*Entry
	open    []*Entry
	byType  map[reflect.Type][]*Entry
	// interfaces declared anywhere in the scanned modules, in discovery order
	known  []reflect.Type
	logger zerolog.Logger
}

func newScanner(modules []*Module, logger zerolog.Logger) *scanner {
	s := &scanner{
		byType: make(map[reflect.Type][]*Entry),
		logger: logger,
	}

	for _, m := range modules {
		for i := range m.entries {
			e := &m.entries[i]
			if e.kind == entryKind_OpenConcrete {
				s.open = append(s.open, e)
				continue
			}

			s.entries = append(s.entries, e)
			s.byType[e.typ] = append(s.byType[e.typ], e)
			if e.kind == entryKind_Interface {
				s.known = appendUnique(s.known, e.typ)
			}
			s.known = appendUnique(s.known, e.declares...)
		}
	}

	return s
}

func (s *scanner) connectImplementationsToTypes(cb di.ContainerBuilder, iface reflect.Type, always bool) {
	var concretions []*Entry
	for _, e := range s.entries {
		if e.IsConcrete() && canBeCastTo(e.typ, iface) {
			concretions = append(concretions, e)
		}
	}

	s.register(cb, iface, concretions, always)
}

func (s *scanner) connectImplementationsToTypesClosing(cb di.ContainerBuilder, def reflectx.Definition, always bool) {
	var concretions []*Entry
	var interfaces []reflect.Type

	for _, e := range s.entries {
		closing := s.findInterfacesThatClose(e, def)
		if len(closing) == 0 {
			continue
		}

		concretions = append(concretions, e)
		interfaces = appendUnique(interfaces, closing...)
	}

	// known instantiations without a closed concretion can still be served
	// by an open one
	if s.hasOpenConcretion(def) {
		for _, k := range s.known {
			if d, ok := reflectx.GenericDefinition(k); ok && d == def {
				interfaces = appendUnique(interfaces, k)
			}
		}
	}

	for _, iface := range interfaces {
		var matches []*Entry
		for _, c := range concretions {
			if canBeCastTo(c.typ, iface) {
				matches = append(matches, c)
			}
		}

		s.register(cb, iface, matches, always)
		s.addConcretionsThatCouldBeClosed(cb, iface)
	}
}

func (s *scanner) register(cb di.ContainerBuilder, iface reflect.Type, concretions []*Entry, always bool) {
	if always {
		for _, c := range concretions {
			cb.Add(di.NewConstructorDescriptor(iface, di.Lifetime_Transient, c.ctor))
			s.logger.Debug().Stringer("interface", iface).Stringer("concretion", c.typ).Msg("Added transient service")
		}
		return
	}

	if len(concretions) > 1 {
		matching := make([]*Entry, 0, len(concretions))
		for _, c := range concretions {
			if s.isMatchingWithInterface(c.typ, iface) {
				matching = append(matching, c)
			}
		}

		if len(matching) == 0 {
			s.logger.Warn().
				Stringer("interface", iface).
				Int("candidates", len(concretions)).
				Msg("No concretion declares the requested type arguments, nothing registered")
			return
		}
		concretions = matching
	}

	for _, c := range concretions {
		added := cb.TryAdd(di.NewConstructorDescriptor(iface, di.Lifetime_Transient, c.ctor))
		s.logger.Debug().
			Stringer("interface", iface).
			Stringer("concretion", c.typ).
			Bool("added", added).
			Msg("Tried to add transient service")
	}
}

// findInterfacesThatClose returns the instantiations of def implemented by a
// concrete entry. Declared interfaces are collected from the entry and from
// the entries of the types it embeds, recursively.
func (s *scanner) findInterfacesThatClose(e *Entry, def reflectx.Definition) []reflect.Type {
	if !e.IsConcrete() {
		return nil
	}

	var result []reflect.Type
	candidates := append(s.declaredInterfaces(e.typ), s.known...)
	for _, iface := range candidates {
		if d, ok := reflectx.GenericDefinition(iface); ok && d == def && canBeCastTo(e.typ, iface) {
			result = appendUnique(result, iface)
		}
	}
	return result
}

// declaredInterfaces walks t and its embedded types, collecting the
// interfaces declared by their entries.
func (s *scanner) declaredInterfaces(t reflect.Type) []reflect.Type {
	var result []reflect.Type
	visited := make(map[reflect.Type]bool)
	pending := []reflect.Type{t}

	for len(pending) > 0 {
		current := pending[0]
		pending = pending[1:]

		if current.Kind() == reflect.Pointer {
			current = current.Elem()
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, e := range s.byType[current] {
			result = appendUnique(result, e.declares...)
		}
		for _, e := range s.byType[reflect.PointerTo(current)] {
			result = appendUnique(result, e.declares...)
		}

		if current.Kind() != reflect.Struct {
			continue
		}
		for i := 0; i < current.NumField(); i++ {
			if f := current.Field(i); f.Anonymous {
				pending = append(pending, f.Type)
			}
		}
	}

	return result
}

// isMatchingWithInterface reports whether the concretion's own
// instantiation of the generic interface is iface itself. Declared
// interfaces decide first; otherwise the concretion must structurally
// implement a single known instantiation. Instantiations are compared as
// types, so same-named type arguments from different scopes stay distinct.
func (s *scanner) isMatchingWithInterface(t reflect.Type, iface reflect.Type) bool {
	def, ok := reflectx.GenericDefinition(iface)
	if !ok {
		return true
	}

	declaredAny := false
	for _, d := range s.declaredInterfaces(t) {
		if dd, ok := reflectx.GenericDefinition(d); ok && dd == def {
			if d == iface {
				return true
			}
			declaredAny = true
		}
	}
	if declaredAny {
		return false
	}

	var own []reflect.Type
	for _, k := range appendUnique(slices.Clone(s.known), iface) {
		if d, ok := reflectx.GenericDefinition(k); ok && d == def && canBeCastTo(t, k) {
			own = append(own, k)
		}
	}
	return len(own) == 1 && own[0] == iface
}

// addConcretionsThatCouldBeClosed instantiates the open concretions of the
// generic definition of iface. Failures only skip the concretion.
func (s *scanner) addConcretionsThatCouldBeClosed(cb di.ContainerBuilder, iface reflect.Type) {
	def, ok := reflectx.GenericDefinition(iface)
	if !ok {
		return
	}

	for _, o := range s.open {
		if o.closes != def {
			continue
		}

		ctor, err := instantiate(o, iface)
		if err != nil {
			s.logger.Debug().Err(err).Stringer("interface", iface).Msg("Skipped open concretion")
			continue
		}

		added := cb.TryAdd(di.NewConstructorDescriptor(iface, di.Lifetime_Transient, ctor))
		s.logger.Debug().
			Stringer("interface", iface).
			Str("constructor", reflect.TypeOf(ctor).String()).
			Bool("added", added).
			Msg("Tried to add closed generic service")
	}
}

func (s *scanner) hasOpenConcretion(def reflectx.Definition) bool {
	for _, o := range s.open {
		if o.closes == def {
			return true
		}
	}
	return false
}

func instantiate(o *Entry, iface reflect.Type) (ctor any, err error) {
	defer func() {
		if p := recover(); p != nil {
			ctor, err = nil, &errorx.InstantiationError{ServiceType: iface, Err: errorx.FromRecovered(p)}
		}
	}()

	ctor, err = o.instantiate(iface)
	if err != nil {
		return nil, &errorx.InstantiationError{ServiceType: iface, Err: err}
	}
	if err = di.CheckConstructor(iface, ctor); err != nil {
		return nil, &errorx.InstantiationError{ServiceType: iface, Err: err}
	}
	return ctor, nil
}

func canBeCastTo(plugged, plugin reflect.Type) bool {
	if plugged == nil || plugin == nil {
		return false
	}
	return plugged == plugin || (plugin.Kind() == reflect.Interface && plugged.Implements(plugin))
}

func appendUnique(list []reflect.Type, values ...reflect.Type) []reflect.Type {
	for _, v := range values {
		if !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
