package reflectx

import (
	"fmt"
	"reflect"
	"strings"
)

// Definition identifies a generic type independently of its type arguments.
// Go has no run-time handle for an uninstantiated generic type, so the
// definition is derived from the name of any of its instantiations.
type Definition struct {
	PkgPath string
	Name    string
	Arity   int
}

func (d Definition) String() string {
	params := ""
	if d.Arity > 1 {
		params = strings.Repeat(",", d.Arity-1)
	}
	if d.PkgPath == "" {
		return fmt.Sprintf("%s[%s]", d.Name, params)
	}
	return fmt.Sprintf("%s.%s[%s]", d.PkgPath, d.Name, params)
}

// IsZero reports whether d is the zero Definition.
func (d Definition) IsZero() bool {
	return d == Definition{}
}

// IsGeneric reports whether t is an instantiation of a generic type.
func IsGeneric(t reflect.Type) bool {
	_, ok := GenericDefinition(t)
	return ok
}

// GenericDefinition returns the generic definition t instantiates. Generic
// types are declared at package level, so the package path and base name
// identify the definition. Type arguments are not compared here; callers
// that need the instantiation compare the reflect.Type itself.
func GenericDefinition(t reflect.Type) (Definition, bool) {
	base, args, ok := splitGenericName(t)
	if !ok {
		return Definition{}, false
	}
	return Definition{PkgPath: t.PkgPath(), Name: base, Arity: len(args)}, true
}

func splitGenericName(t reflect.Type) (base string, args []string, ok bool) {
	if t == nil {
		return
	}

	name := t.Name()
	open := strings.IndexByte(name, '[')
	if open <= 0 || !strings.HasSuffix(name, "]") {
		return
	}

	args = splitTopLevel(name[open+1 : len(name)-1])
	if len(args) == 0 {
		return "", nil, false
	}
	return name[:open], args, true
}

// splitTopLevel splits a type argument list on the commas that are not
// nested in brackets, parentheses or braces.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		parts = append(parts, last)
	}
	return parts
}
