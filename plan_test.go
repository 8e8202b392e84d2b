package di

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightestnight/di/errorx"
	"github.com/lightestnight/di/reflectx"
)

type (
	shape interface{ Area() int }
	plug  interface{ Plug() }

	square  struct{}
	circle  struct{}
	nodeA   struct{}
	nodeB   struct{}
	nodeC   struct{}
	nodeEnd struct{}
)

func (*square) Area() int { return 4 }
func (*circle) Area() int { return 3 }

func shapeDescriptors() []*Descriptor {
	return []*Descriptor{
		Transient[shape](func() *square { return &square{} }),
		Transient[shape](func() *circle { return &circle{} }),
		Singleton[shape](func() *square { return &square{} }),
	}
}

func TestPlanner_ServiceNotRegistered(t *testing.T) {
	p := newPlanner([]*Descriptor{Transient[*square](func() *square { return nil })}, false)

	pl, err := p.planOf(reflectx.TypeOf[*square](), nil)
	require.NoError(t, err)
	require.Equal(t, planKind_Constructor, pl.kind)

	var notFound *errorx.ServiceNotFound
	_, err = p.planOf(reflectx.TypeOf[square](), nil)
	require.ErrorAs(t, err, &notFound)

	_, err = p.planOf(reflectx.TypeOf[*circle](), nil)
	require.ErrorAs(t, err, &notFound)
}

func TestPlanner_CircularDependency(t *testing.T) {
	p := newPlanner([]*Descriptor{
		Transient[nodeA](func(nodeB) nodeA { return nodeA{} }),
		Transient[nodeB](func(nodeC) nodeB { return nodeB{} }),
		Transient[nodeC](func(nodeB, nodeEnd) nodeC { return nodeC{} }),
		Transient[nodeEnd](func() nodeEnd { return nodeEnd{} }),
	}, false)

	_, err := p.planOf(reflectx.TypeOf[nodeA](), nil)

	var cycleErr *errorx.CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	require.Contains(t, cycleErr.Message, "di.nodeB -> di.nodeC -> di.nodeB")
}

func TestPlanner_ImplicitSlice(t *testing.T) {
	p := newPlanner(shapeDescriptors(), false)

	pl, err := p.planOf(reflectx.TypeOf[[]shape](), nil)
	require.NoError(t, err)
	require.Equal(t, planKind_Slice, pl.kind)
	require.Len(t, pl.deps, 3)
	require.Equal(t, Lifetime_Transient, pl.lifetime)

	for i, dep := range pl.deps {
		require.Equal(t, len(pl.deps)-1-i, dep.slot)
	}

	last, err := p.planOf(reflectx.TypeOf[shape](), nil)
	require.NoError(t, err)
	require.Same(t, pl.deps[2], last)
}

func TestPlanner_ExactSlice(t *testing.T) {
	shapes := []shape{&circle{}, &circle{}}
	p := newPlanner(append(shapeDescriptors(),
		Transient[[]shape](func() []shape { return shapes })), false)

	pl, err := p.planOf(reflectx.TypeOf[[]shape](), nil)
	require.NoError(t, err)
	require.Equal(t, planKind_Constructor, pl.kind)
}

func TestPlanner_EmptySlice(t *testing.T) {
	p := newPlanner(shapeDescriptors(), false)

	pl, err := p.planOf(reflectx.TypeOf[[]plug](), nil)
	require.NoError(t, err)
	require.Equal(t, planKind_Slice, pl.kind)
	require.Empty(t, pl.deps)
	require.Equal(t, Lifetime_Singleton, pl.lifetime)
}

func TestPlanner_LastRegistrationWins(t *testing.T) {
	values := rand.Perm(10)
	descriptors := make([]*Descriptor, len(values))
	for i, v := range values {
		descriptors[i] = Transient[int](func() int { return v })
	}

	c := newContainer(descriptors, DefaultOptions())
	require.Equal(t, values[len(values)-1], Get[int](c))

	pl, err := c.planner.planOf(reflectx.TypeOf[int](), nil)
	require.NoError(t, err)
	require.Same(t, descriptors[len(descriptors)-1].Ctor, pl.ctor)
}

func TestPlanner_PlanOfDescriptor(t *testing.T) {
	descriptors := shapeDescriptors()
	p := newPlanner(descriptors, false)

	pl, err := p.planOfDescriptor(descriptors[0])
	require.NoError(t, err)
	require.Equal(t, 2, pl.slot)

	_, err = p.planOfDescriptor(Transient[shape](func() *circle { return nil }))
	require.Error(t, err)
}

func TestPlan_RequiredScope(t *testing.T) {
	p := newPlanner([]*Descriptor{
		Scoped[nodeEnd](func() nodeEnd { return nodeEnd{} }),
		Transient[nodeC](func(nodeEnd) nodeC { return nodeC{} }),
		Transient[nodeB](func() nodeB { return nodeB{} }),
		Singleton[nodeA](func(nodeB) nodeA { return nodeA{} }),
	}, true)

	for typ, want := range map[reflect.Type]reflect.Type{
		reflectx.TypeOf[nodeEnd](): reflectx.TypeOf[nodeEnd](),
		reflectx.TypeOf[nodeC]():   reflectx.TypeOf[nodeEnd](),
		reflectx.TypeOf[nodeB]():   nil,
		reflectx.TypeOf[nodeA]():   nil,
	} {
		pl, err := p.planOf(typ, nil)
		require.NoError(t, err)
		require.Equal(t, want, pl.requiredScope(), "%v", typ)
	}
}
