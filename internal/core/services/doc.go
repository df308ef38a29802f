// Package services contains the core business logic of the search
// pipeline, orchestrating driven ports (storage, encoder, vector index)
// to implement the driving port interfaces. Services are pure
// coordination; all I/O happens behind ports.
package services
