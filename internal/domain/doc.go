// Package domain defines the core domain types and interfaces.
//
// Model types, event wire formats, and the repository contracts consumed by
// the dispatcher and HTTP layer. No implementation code - just contracts.
// Prevents circular imports by keeping interfaces on the consumer side.
package domain
