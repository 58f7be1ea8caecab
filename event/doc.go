// Package event defines the committed-change notification stream produced by
// the patch graph core and the synchronous dispatcher that delivers it.
//
// The stream is a closed sum type: one concrete struct per event name, all
// implementing the sealed Event interface. Consumers dispatch with a type
// switch and the compiler keeps the handling exhaustive.
//
// Delivery is synchronous and in subscription order. A panicking handler is
// recovered and logged without interrupting delivery to later handlers;
// every current subscriber sees every published event at least once.
package event
