// Package registry tracks live admin and customer WebSocket connections.
//
// A single goroutine owns both subscriber maps and processes typed commands
// from a channel (no mutexes). Callers receive snapshots, never the live
// maps, so a concurrent unregister can't invalidate an iteration in
// progress. Per-connection write goroutines handle slow clients gracefully.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AntoDono/suscart/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// Role distinguishes the two subscriber address spaces.
type Role string

const (
	// RoleAdmin connections form an unaddressed broadcast set.
	RoleAdmin Role = "admin"
	// RoleCustomer connections are addressed by customer ID.
	RoleCustomer Role = "customer"
)

var (
	// ErrSendBufferFull is returned when a client's send buffer is saturated.
	ErrSendBufferFull = errors.New("client send buffer full")
	// ErrClientStopped is returned when sending to a stopped client.
	ErrClientStopped = errors.New("client writer stopped")
)

// Client is a handle to one registered connection. Sends are non-blocking:
// the message is enqueued to the connection's writer goroutine or rejected.
type Client struct {
	conn       *websocket.Conn
	writer     *clientWriter
	role       Role
	customerID uuid.UUID
}

// Conn returns the underlying connection, used as the unregistration key.
func (c *Client) Conn() *websocket.Conn { return c.conn }

// Role returns the client's address space.
func (c *Client) Role() Role { return c.role }

// CustomerID returns the bound customer for RoleCustomer clients.
func (c *Client) CustomerID() uuid.UUID { return c.customerID }

// Send enqueues a frame for delivery, at most once. It never blocks: a
// stopped writer or a full buffer yields an error and the caller decides
// whether to evict.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.writer.doneChannel:
		return ErrClientStopped
	default:
	}

	select {
	case c.writer.sendChannel <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// --- Command types ---

type registryCmd interface{ registryCmd() }

type cmdRegister struct {
	conn       *websocket.Conn
	role       Role
	customerID uuid.UUID
	errCh      chan error
}

func (cmdRegister) registryCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) registryCmd() {}

type cmdSnapshotAdmins struct {
	replyCh chan []*Client
}

func (cmdSnapshotAdmins) registryCmd() {}

type cmdLookup struct {
	customerID uuid.UUID
	replyCh    chan []*Client
}

func (cmdLookup) registryCmd() {}

type cmdCounts struct {
	replyCh chan Counts
}

func (cmdCounts) registryCmd() {}

type cmdStop struct{}

func (cmdStop) registryCmd() {}

// Counts reports live connections per address space.
type Counts struct {
	Admins    int
	Customers int
}

// --- Registry ---

// Registry is the concurrency-safe bookkeeping of live connections.
type Registry struct {
	cmdCh          chan registryCmd
	clock          clockwork.Clock
	admins         map[*websocket.Conn]*Client
	customers      map[uuid.UUID]map[*websocket.Conn]*Client
	byConn         map[*websocket.Conn]*Client
	maxPerCustomer int
	done           chan struct{}
}

// New starts a registry actor. maxPerCustomer bounds the sessions one
// customer may hold open at once (0 means unlimited).
func New(clock clockwork.Clock, maxPerCustomer int) *Registry {
	r := &Registry{
		cmdCh:          make(chan registryCmd, 256),
		clock:          clock,
		admins:         make(map[*websocket.Conn]*Client),
		customers:      make(map[uuid.UUID]map[*websocket.Conn]*Client),
		byConn:         make(map[*websocket.Conn]*Client),
		maxPerCustomer: maxPerCustomer,
		done:           make(chan struct{}),
	}
	go r.run()
	return r
}

// Register adds a connection under a role. Registering the same connection
// twice is a no-op success. customerID is required for RoleCustomer and
// ignored for RoleAdmin.
func (r *Registry) Register(conn *websocket.Conn, role Role, customerID uuid.UUID) error {
	if role == RoleCustomer && customerID == uuid.Nil {
		return fmt.Errorf("customer registration requires a customer ID")
	}

	errCh := make(chan error, 1)
	r.cmdCh <- cmdRegister{conn: conn, role: role, customerID: customerID, errCh: errCh}

	timer := r.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection and stops its writer. Safe to call
// repeatedly and for connections that were never registered.
func (r *Registry) Unregister(conn *websocket.Conn) {
	r.cmdCh <- cmdUnregister{conn: conn}
}

// Admins returns a snapshot of the admin broadcast set.
func (r *Registry) Admins() []*Client {
	replyCh := make(chan []*Client, 1)
	r.cmdCh <- cmdSnapshotAdmins{replyCh: replyCh}
	return r.awaitSnapshot(replyCh)
}

// Lookup returns a snapshot of a customer's live connections. Zero
// connections is a normal answer, never an error.
func (r *Registry) Lookup(customerID uuid.UUID) []*Client {
	replyCh := make(chan []*Client, 1)
	r.cmdCh <- cmdLookup{customerID: customerID, replyCh: replyCh}
	return r.awaitSnapshot(replyCh)
}

// ConnectionCounts reports live connections per role.
func (r *Registry) ConnectionCounts() Counts {
	replyCh := make(chan Counts, 1)
	r.cmdCh <- cmdCounts{replyCh: replyCh}

	timer := r.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case counts := <-replyCh:
		return counts
	case <-timer.Chan():
		slog.Warn("ConnectionCounts timed out", "timeout", commandTimeout)
		return Counts{}
	}
}

func (r *Registry) awaitSnapshot(replyCh chan []*Client) []*Client {
	timer := r.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case clients := <-replyCh:
		return clients
	case <-timer.Chan():
		slog.Warn("Registry snapshot timed out", "timeout", commandTimeout)
		return nil
	}
}

// Stop closes every connection and shuts the actor down. Blocks until the
// registry goroutine has exited or the stop timeout is reached.
func (r *Registry) Stop() {
	r.cmdCh <- cmdStop{}

	timer := r.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-r.done:
		slog.Info("Registry stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Registry stop timeout exceeded, forcing exit", "timeout", stopTimeout)
		close(r.done)
	}
}

func (r *Registry) run() {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Registry panic recovered", "panic", rec)
			r.closeAll("registry panic")
		}
	}()

	for cmd := range r.cmdCh {
		metrics.RegistryCommandChannelDepth.Set(float64(len(r.cmdCh)))

		switch c := cmd.(type) {
		case cmdRegister:
			r.handleRegister(c)
		case cmdUnregister:
			r.handleUnregister(c.conn)
		case cmdSnapshotAdmins:
			c.replyCh <- snapshot(r.admins)
		case cmdLookup:
			c.replyCh <- snapshot(r.customers[c.customerID])
		case cmdCounts:
			total := 0
			for _, clients := range r.customers {
				total += len(clients)
			}
			c.replyCh <- Counts{Admins: len(r.admins), Customers: total}
		case cmdStop:
			r.handleStop()
			return
		default:
			slog.Warn("Registry received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func snapshot(clients map[*websocket.Conn]*Client) []*Client {
	out := make([]*Client, 0, len(clients))
	for _, client := range clients {
		out = append(out, client)
	}
	return out
}

func (r *Registry) handleRegister(c cmdRegister) {
	// Idempotent: already registered connections are left untouched.
	if _, exists := r.byConn[c.conn]; exists {
		c.errCh <- nil
		return
	}

	client := &Client{conn: c.conn, role: c.role, customerID: c.customerID}

	switch c.role {
	case RoleAdmin:
		client.writer = newClientWriter(c.conn, r.clock)
		r.admins[c.conn] = client
		metrics.RegistryConnectedClients.WithLabelValues(string(RoleAdmin)).Inc()
		slog.Debug("Admin client registered", "total_admins", len(r.admins))

	case RoleCustomer:
		clients, exists := r.customers[c.customerID]
		if !exists {
			clients = make(map[*websocket.Conn]*Client)
			r.customers[c.customerID] = clients
		}
		if r.maxPerCustomer > 0 && len(clients) >= r.maxPerCustomer {
			slog.Warn("Rejecting client: max connections reached", "customer_id", c.customerID.String(), "max_connections", r.maxPerCustomer)
			_ = c.conn.Close()
			c.errCh <- fmt.Errorf("max connections per customer (%d) reached", r.maxPerCustomer)
			return
		}
		client.writer = newClientWriter(c.conn, r.clock)
		clients[c.conn] = client
		metrics.RegistryConnectedClients.WithLabelValues(string(RoleCustomer)).Inc()
		slog.Debug("Customer client registered", "customer_id", c.customerID.String(), "total_clients", len(clients))

	default:
		c.errCh <- fmt.Errorf("unknown role %q", c.role)
		return
	}

	r.byConn[c.conn] = client
	c.errCh <- nil
}

func (r *Registry) handleUnregister(conn *websocket.Conn) {
	client, exists := r.byConn[conn]
	if !exists {
		return
	}

	client.writer.stop()
	delete(r.byConn, conn)

	switch client.role {
	case RoleAdmin:
		delete(r.admins, conn)
		metrics.RegistryConnectedClients.WithLabelValues(string(RoleAdmin)).Dec()
		slog.Debug("Admin client unregistered", "remaining_admins", len(r.admins))

	case RoleCustomer:
		clients := r.customers[client.customerID]
		delete(clients, conn)
		if len(clients) == 0 {
			delete(r.customers, client.customerID)
		}
		metrics.RegistryConnectedClients.WithLabelValues(string(RoleCustomer)).Dec()
		slog.Debug("Customer client unregistered", "customer_id", client.customerID.String(), "remaining_clients", len(clients))
	}
}

func (r *Registry) handleStop() {
	total := len(r.byConn)
	slog.Info("Registry shutting down", "total_clients", total)

	r.closeAll("Server shutting down")
	close(r.done)

	slog.Info("Registry shutdown complete", "disconnected_clients", total)
}

func (r *Registry) closeAll(reason string) {
	for conn, client := range r.byConn {
		client.writer.stopGraceful(reason)
		delete(r.byConn, conn)
	}
	r.admins = make(map[*websocket.Conn]*Client)
	r.customers = make(map[uuid.UUID]map[*websocket.Conn]*Client)
	metrics.RegistryConnectedClients.Reset()
}
