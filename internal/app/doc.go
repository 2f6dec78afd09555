// Package app provides the application service layer.
//
// Orchestrates use cases: catalog and customer management, recommendation
// pulls, and handing freshness observations to the dispatcher. Sits between
// HTTP handlers and domain repositories. Depends on domain interfaces, not
// concrete implementations.
package app
