// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
//
// Services in internal/core/services depend on these interfaces and are
// wired with concrete adapters from internal/adapters/driven at startup.
package driven
