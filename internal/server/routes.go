package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Freshness ingestion
	s.echo.POST("/api/freshness/update", s.handleFreshnessUpdate)

	// Inventory
	s.echo.GET("/api/inventory", s.handleListItems)
	s.echo.GET("/api/inventory/:id", s.handleGetItem)
	s.echo.POST("/api/inventory", s.handleAddItem)
	s.echo.PUT("/api/inventory/:id", s.handleUpdateItem)
	s.echo.DELETE("/api/inventory/:id", s.handleRemoveItem)

	// Customers
	s.echo.GET("/api/customers", s.handleListCustomers)
	s.echo.GET("/api/customers/:id", s.handleGetCustomer)
	s.echo.POST("/api/customers", s.handleCreateCustomer)

	// Recommendations
	s.echo.GET("/api/recommendations/:customer_id", s.handleRecommendations)
	s.echo.POST("/api/recommendations/:id/viewed", s.handleMarkViewed)

	// WebSocket channels
	s.echo.GET("/ws/admin", s.handleAdminWebSocket)
	s.echo.GET("/ws/customer/:id", s.handleCustomerWebSocket)
}
