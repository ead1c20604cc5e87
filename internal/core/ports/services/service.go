package services

// ServiceContainer holds instances of all the application services.
// It is built once in main and handed to the handlers and background workers.
type ServiceContainer struct {
	Escrow   EscrowSvcFacade
	Checkout CheckoutSvc
}
