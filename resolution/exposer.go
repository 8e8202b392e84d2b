package resolution

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lightestnight/di"
	"github.com/lightestnight/di/errorx"
	"github.com/lightestnight/di/reflectx"
)

// DelegateExposer adds callable bindings to a container builder.
type DelegateExposer interface {
	ExposeDelegates(cb di.ContainerBuilder) error
}

var delegateExposerType = reflectx.TypeOf[DelegateExposer]()

// Self is the module of this package. It is part of the default modules.
var Self = NewModule("github.com/lightestnight/di/resolution",
	Concrete(newServiceResolutionExposer),
)

// serviceResolutionExposer registers the ServiceFactory over the modules
// and logger AddExposedDelegates was given.
type serviceResolutionExposer struct {
	options options
}

func newServiceResolutionExposer(o options) *serviceResolutionExposer {
	return &serviceResolutionExposer{options: o}
}

func (x *serviceResolutionExposer) ExposeDelegates(cb di.ContainerBuilder) error {
	addServiceResolution(cb, x.options)
	return nil
}

// AddExposedDelegates activates every concrete DelegateExposer of the
// modules and lets it expose its delegates to cb.
//
// Exposers are built by a ServiceFactory over the modules, with the options
// of the call as an argument. Modules, and the exposers within a module,
// are processed concurrently in no particular order. The first failing
// exposer aborts the call.
func AddExposedDelegates(cb di.ContainerBuilder, opts ...Option) error {
	if cb == nil {
		return errorx.NewArgumentNilError("cb")
	}

	o := newOptions(opts)
	modules := o.resolveModules()
	activate := newServiceFactory(nil, indexConstructors(modules))

	var g errgroup.Group
	for _, m := range modules {
		g.Go(func() error {
			for _, e := range m.entries {
				if !e.IsConcrete() || !e.typ.Implements(delegateExposerType) {
					continue
				}

				g.Go(func() (err error) {
					defer func() {
						if p := recover(); p != nil {
							err = fmt.Errorf("expose delegates of '%v': %w", e.typ, errorx.FromRecovered(p))
						}
					}()

					v, err := activate(e.typ, o)
					if err != nil {
						return fmt.Errorf("activate delegate exposer '%v': %w", e.typ, err)
					}

					if err := v.(DelegateExposer).ExposeDelegates(cb); err != nil {
						return fmt.Errorf("expose delegates of '%v': %w", e.typ, err)
					}

					o.logger.Debug().Str("module", m.name).Stringer("exposer", e.typ).Msg("Exposed delegates")
					return nil
				})
			}
			return nil
		})
	}

	return g.Wait()
}
