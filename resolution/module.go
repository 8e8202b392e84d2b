package resolution

import (
	"fmt"
	"reflect"

	"github.com/lightestnight/di"
	"github.com/lightestnight/di/reflectx"
)

type entryKind byte

const (
	entryKind_Concrete entryKind = iota
	entryKind_Abstract
	entryKind_Interface
	entryKind_OpenConcrete
)

func (k entryKind) String() string {
	switch k {
	case entryKind_Concrete:
		return "concrete"
	case entryKind_Abstract:
		return "abstract"
	case entryKind_Interface:
		return "interface"
	case entryKind_OpenConcrete:
		return "open concrete"
	default:
		return fmt.Sprintf("entryKind(%d)", byte(k))
	}
}

// Instantiator builds the constructor of a generic concretion instantiated
// for the closed interface iface. It returns an error when the concretion
// has no instantiation for iface.
type Instantiator func(iface reflect.Type) (ctor any, err error)

// Entry describes one type declared by a Module.
type Entry struct {
	kind        entryKind
	typ         reflect.Type
	ctor        any
	closes      reflectx.Definition
	instantiate Instantiator
	declares    []reflect.Type
}

// Type returns the described type. It is nil for open concretions.
func (e Entry) Type() reflect.Type {
	return e.typ
}

// Constructor returns the constructor of a concrete entry.
func (e Entry) Constructor() any {
	return e.ctor
}

// Declared returns the interfaces the entry declares it implements.
func (e Entry) Declared() []reflect.Type {
	return append([]reflect.Type(nil), e.declares...)
}

func (e Entry) IsConcrete() bool {
	return e.kind == entryKind_Concrete
}

func (e Entry) IsOpen() bool {
	return e.kind == entryKind_OpenConcrete
}

func (e Entry) String() string {
	if e.kind == entryKind_OpenConcrete {
		return fmt.Sprintf("%v closing %v", e.kind, e.closes)
	}
	return fmt.Sprintf("%v %v", e.kind, e.typ)
}

type EntryOption func(*Entry)

// Declares records that the entry implements the interface T. Declared
// interfaces take part in closing open generic interfaces and decide
// between concretions that structurally implement several instantiations.
func Declares[T any]() EntryOption {
	t := reflectx.TypeOf[T]()
	if t.Kind() != reflect.Interface {
		panic(fmt.Errorf("declared type '%v' is not an interface", t))
	}

	return func(e *Entry) {
		for _, d := range e.declares {
			if d == t {
				return
			}
		}
		e.declares = append(e.declares, t)
	}
}

func newEntry(kind entryKind, t reflect.Type, opts []EntryOption) Entry {
	e := Entry{kind: kind, typ: t}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

func (e Entry) mustImplementDeclared() {
	for _, d := range e.declares {
		if !e.typ.Implements(d) {
			panic(fmt.Errorf("'%v' does not implement the declared interface '%v'", e.typ, d))
		}
	}
}

// Concrete declares a concrete type built by ctor. The type is the first
// result of ctor, which may also return an error.
func Concrete(ctor any, opts ...EntryOption) Entry {
	ft := reflect.TypeOf(ctor)
	if ft == nil || ft.Kind() != reflect.Func || ft.NumOut() == 0 {
		panic(fmt.Errorf("the constructor '%v' is not a function returning a value", ft))
	}

	t := ft.Out(0)
	if !reflectx.IsConcrete(t) {
		panic(fmt.Errorf("the constructor '%v' returns the interface '%v'", ft, t))
	}
	if err := di.CheckConstructor(t, ctor); err != nil {
		panic(err)
	}

	e := newEntry(entryKind_Concrete, t, opts)
	e.ctor = ctor
	e.mustImplementDeclared()
	return e
}

// ConcreteOf declares a concrete type T built from its zero value, or from a
// newly allocated element when T is a pointer.
func ConcreteOf[T any](opts ...EntryOption) Entry {
	t := reflectx.TypeOf[T]()
	if !reflectx.IsConcrete(t) {
		panic(fmt.Errorf("'%v' is an interface", t))
	}

	e := newEntry(entryKind_Concrete, t, opts)
	e.ctor = reflectx.ZeroConstructor(t)
	e.mustImplementDeclared()
	return e
}

// Abstract declares a type that is never registered itself, typically a
// base struct embedded by concrete types.
func Abstract[T any](opts ...EntryOption) Entry {
	return newEntry(entryKind_Abstract, reflectx.TypeOf[T](), opts)
}

// Interface declares a known interface. For a generic interface it names
// one instantiation that concretions may close.
func Interface[T any]() Entry {
	t := reflectx.TypeOf[T]()
	if t.Kind() != reflect.Interface {
		panic(fmt.Errorf("'%v' is not an interface", t))
	}
	return newEntry(entryKind_Interface, t, nil)
}

// OpenConcrete declares a generic concretion implementing the generic
// interface I is an instantiation of. instantiate is asked for a
// constructor whenever a closed instantiation of that interface is
// registered.
func OpenConcrete[I any](instantiate Instantiator, opts ...EntryOption) Entry {
	t := reflectx.TypeOf[I]()
	def, ok := reflectx.GenericDefinition(t)
	if !ok || t.Kind() != reflect.Interface {
		panic(fmt.Errorf("'%v' is not a generic interface", t))
	}
	if instantiate == nil {
		panic(fmt.Errorf("the instantiator closing '%v' is nil", def))
	}

	e := newEntry(entryKind_OpenConcrete, nil, opts)
	e.closes = def
	e.instantiate = instantiate
	return e
}

// Module is a statically declared set of types taking part in scanning.
type Module struct {
	name    string
	entries []Entry
}

func NewModule(name string, entries ...Entry) *Module {
	if name == "" {
		panic("module name is empty")
	}

	return &Module{
		name:    name,
		entries: append([]Entry(nil), entries...),
	}
}

func (m *Module) Name() string {
	return m.name
}

// Entries returns a copy of the module's entries in declaration order.
func (m *Module) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

func (m *Module) String() string {
	return m.name
}

func distinctModules(modules []*Module) []*Module {
	seen := make(map[*Module]struct{}, len(modules))
	result := make([]*Module, 0, len(modules))
	for _, m := range modules {
		if m == nil {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		result = append(result, m)
	}
	return result
}
