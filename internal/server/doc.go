// Package server implements the HTTP server using Echo framework.
//
// Routes: freshness ingestion, inventory and customer CRUD, recommendation
// pull, health, metrics, and the admin/customer WebSocket channels.
// Handlers split by domain: handlers_ingest.go, handlers_inventory.go,
// handlers_customers.go, handlers_recommendations.go, handlers_ws.go.
package server
