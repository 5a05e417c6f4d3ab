// Package server wires the ring.Node onto the HTTP endpoint surface
// using gin, translating each inbound request into a task enqueued on
// the node (or, for /heartbeat, a direct scalar write) and returning
// the lightweight response the transport listener owes the caller per
// the external interface table.
package server

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ringoverlay/ringchat/internal/logging"
	"github.com/ringoverlay/ringchat/internal/ring"
	"github.com/ringoverlay/ringchat/internal/types"
)

// Server binds a Node to gin routes.
type Server struct {
	node      *ring.Node
	transport ring.Transport
	log       logging.Logger
	engine    *gin.Engine
}

// New builds the server's route table. transport is used only by the
// /serialize/all walk, which fans out to peers directly rather than
// going through the node's own queue.
func New(node *ring.Node, transport ring.Transport, log logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{node: node, transport: transport, log: log, engine: engine}
	s.routes()
	return s
}

// Engine exposes the underlying gin engine, e.g. for http.Server or
// testing with httptest.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/serialize", s.handleSerialize)
	s.engine.GET("/serialize/all", s.handleSerializeAll)
	s.engine.GET("/ring/join", s.handleJoin)
	s.engine.POST("/ring/quit", s.handleQuit)
	s.engine.POST("/ring/le/election", s.handleElection)
	s.engine.POST("/ring/le/elected", s.handleElected)
	s.engine.POST("/ring/message", s.handleMessagePost)
	s.engine.PUT("/ring/message", s.handleMessagePut)
	s.engine.POST("/heartbeat", s.handleHeartbeat)
	s.engine.POST("/panic", s.handlePanic)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, types.IndexResponse{Message: "ring node " + s.node.Self().String()})
}

func (s *Server) handleSerialize(c *gin.Context) {
	c.JSON(http.StatusOK, s.node.Snapshot())
}

// handleSerializeAll walks the ring starting at this node via direct
// /serialize calls, stopping when the walk returns to this node or a
// hop is unreachable.
func (s *Server) handleSerializeAll(c *gin.Context) {
	self := s.node.Self()
	nodes := []types.SerializeResponse{s.node.Snapshot()}

	current := nodes[0]
	next := types.Identity{Host: current.NextHost, Port: current.NextPort}
	for next != self {
		snap, err := s.transport.Serialize(c.Request.Context(), next)
		if err != nil {
			s.log.Warnf("serialize/all walk stopped at unreachable %s: %v", next, err)
			break
		}
		nodes = append(nodes, snap)
		next = types.Identity{Host: snap.NextHost, Port: snap.NextPort}
	}

	c.JSON(http.StatusOK, types.SerializeAllResponse{Nodes: nodes})
}

// handleJoin is the join acceptor. The spoof guard compares the
// caller's raw TCP remote address against the advertised ip — deliberately
// not gin's ClientIP(), which by default trusts forwarded headers and
// would let a spoofed join back in through the very channel this check
// exists to close.
func (s *Server) handleJoin(c *gin.Context) {
	ip := c.Query("ip")
	portStr := c.Query("port")
	port, err := strconv.ParseUint(portStr, 10, 16)
	if ip == "" || err != nil {
		c.JSON(http.StatusBadRequest, types.JoinResponse{Success: false, Message: "missing or malformed ip/port"})
		return
	}

	remoteHost, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		remoteHost = c.Request.RemoteAddr
	}
	if remoteHost != ip {
		c.JSON(http.StatusForbidden, types.JoinResponse{Success: false, Message: "source address does not match advertised ip"})
		return
	}

	// A peer that advertises no version predates the protocol version
	// field; only reject when a version is present and fails the check.
	if remoteVersion := c.Query("version"); remoteVersion != "" {
		compatible, err := types.CompatibleVersion(remoteVersion)
		if err != nil || !compatible {
			c.JSON(http.StatusConflict, types.JoinResponse{Success: false, Message: "incompatible ring protocol version " + remoteVersion})
			return
		}
	}

	joiner := types.Identity{Host: ip, Port: uint16(port)}
	reply := make(chan types.JoinResult, 1)
	s.node.Enqueue(types.NewJoinAcceptTask(joiner, reply))

	select {
	case result := <-reply:
		c.JSON(http.StatusOK, types.JoinResponse{
			Host:    result.OldNext.Host,
			Port:    result.OldNext.Port,
			Success: true,
		})
	case <-time.After(s.node.RequestTimeout()):
		c.JSON(http.StatusServiceUnavailable, types.JoinResponse{Success: false, Message: "worker did not respond in time"})
	}
}

func (s *Server) handleQuit(c *gin.Context) {
	host := c.PostForm("host")
	port, err1 := strconv.ParseUint(c.PostForm("port"), 10, 16)
	nextHost := c.PostForm("next_host")
	nextPort, err2 := strconv.ParseUint(c.PostForm("next_port"), 10, 16)
	if host == "" || nextHost == "" || err1 != nil || err2 != nil {
		// Malformed inbound payload: drop silently, no protocol nack.
		c.Status(http.StatusOK)
		return
	}

	target := types.Identity{Host: host, Port: uint16(port)}
	targetNext := types.Identity{Host: nextHost, Port: uint16(nextPort)}
	s.node.Enqueue(types.NewQuitPropagateTask(target, targetNext))
	c.String(http.StatusOK, c.PostForm("port"))
}

func (s *Server) handleElection(c *gin.Context) {
	s.enqueueToken(c, types.TokenElection)
}

func (s *Server) handleElected(c *gin.Context) {
	s.enqueueToken(c, types.TokenElected)
}

func (s *Server) enqueueToken(c *gin.Context, token types.TokenType) {
	id, err := strconv.ParseUint(c.PostForm("node_id"), 10, 64)
	if err != nil {
		c.Status(http.StatusOK)
		return
	}
	s.node.Enqueue(types.NewChangRobertsTask(token, id))
	c.Status(http.StatusOK)
}

func (s *Server) handleMessagePost(c *gin.Context) {
	s.enqueueMessage(c, false)
}

func (s *Server) handleMessagePut(c *gin.Context) {
	s.enqueueMessage(c, true)
}

func (s *Server) enqueueMessage(c *gin.Context, broadcast bool) {
	text := c.PostForm("message")
	sender, err := strconv.ParseUint(c.PostForm("sender"), 10, 64)
	if err != nil {
		c.Status(http.StatusOK)
		return
	}
	if broadcast {
		s.node.Enqueue(types.NewPersistTask(text, sender, false))
	} else {
		s.node.Enqueue(types.NewPropagateTask(text, sender))
	}
	c.Status(http.StatusOK)
}

// handleHeartbeat writes last_heartbeat_at directly, bypassing the
// queue entirely, per the one sanctioned concurrent write.
func (s *Server) handleHeartbeat(c *gin.Context) {
	s.node.TouchHeartbeat()
	c.Status(http.StatusOK)
}

func (s *Server) handlePanic(c *gin.Context) {
	host := c.PostForm("host")
	port, err := strconv.ParseUint(c.PostForm("port"), 10, 16)
	if host == "" || err != nil {
		c.Status(http.StatusOK)
		return
	}
	s.node.Enqueue(types.NewPanicTask(types.Identity{Host: host, Port: uint16(port)}))
	c.Status(http.StatusOK)
}
