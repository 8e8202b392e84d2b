// Package resolution registers services into a di.ContainerBuilder by
// scanning modules instead of listing every registration by hand.
//
// A Module is a static table of the types a package contributes:
//
//	var Module = resolution.NewModule("billing",
//		resolution.Concrete(NewInvoiceStore),
//		resolution.ConcreteOf[*TaxHandler](resolution.Declares[Handler[Tax]]()),
//		resolution.Interface[Handler[Refund]](),
//	)
//
//	func init() { resolution.Register(Module) }
//
// RegisterServices then binds every concretion of the requested interfaces,
// including every instantiation of a generic interface:
//
//	err := resolution.RegisterServices(cb, nil, []resolution.ConcreteRegistration{
//		resolution.Closed[InvoiceStore](),
//		resolution.Open[Handler[any]](),
//	})
//
// AddExposedDelegates runs the DelegateExposer types of the modules, and
// AddServiceResolution makes a ServiceFactory available from the container.
package resolution
