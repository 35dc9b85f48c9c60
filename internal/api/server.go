// Package api exposes the HTTP surface: timetable and current-slot reads,
// session control, attendance commits, directory queries, and the
// websocket upgrade endpoint.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Liyanipatel27/attendance-new/internal/attendance"
	"github.com/Liyanipatel27/attendance-new/internal/broker"
	"github.com/Liyanipatel27/attendance-new/internal/storage"
	"github.com/Liyanipatel27/attendance-new/internal/timetable"
	"github.com/Liyanipatel27/attendance-new/internal/websocket"
	"github.com/Liyanipatel27/attendance-new/pkg/interfaces"
)

// Server bundles the HTTP handlers with their collaborators.
type Server struct {
	resolver *timetable.Resolver
	cache    interfaces.GridCache
	broker   *broker.Broker
	gateway  *attendance.Gateway
	store    *storage.Manager
	ws       *websocket.Handler
	logger   zerolog.Logger
	engine   *gin.Engine
}

// NewServer builds the router. All dependencies are required except ws,
// which may be nil to disable the websocket endpoint.
func NewServer(
	resolver *timetable.Resolver,
	cache interfaces.GridCache,
	b *broker.Broker,
	gateway *attendance.Gateway,
	store *storage.Manager,
	ws *websocket.Handler,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		resolver: resolver,
		cache:    cache,
		broker:   b,
		gateway:  gateway,
		store:    store,
		ws:       ws,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/health", s.health)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if ws != nil {
		engine.GET("/ws", func(c *gin.Context) {
			ws.Handle(c.Writer, c.Request)
		})
	}

	apiGroup := engine.Group("/api")
	{
		apiGroup.GET("/timetable/:identity", s.getTimetable)
		apiGroup.PUT("/timetable/faculty/:name", s.putFacultySchedule)
		apiGroup.PUT("/timetable/class/:section", s.putClassSchedule)
		apiGroup.GET("/current-slot/:identity", s.getCurrentSlot)

		apiGroup.POST("/sessions", s.createSession)
		apiGroup.DELETE("/sessions/:faculty", s.endSession)
		apiGroup.GET("/sessions", s.listSessions)

		apiGroup.POST("/attendance/verify", s.verifyAttendance)
		apiGroup.POST("/attendance", s.commitAttendance)
		apiGroup.GET("/attendance/:date", s.attendanceByDate)
		apiGroup.GET("/attendance-search", s.searchAttendance)

		apiGroup.GET("/students", s.listStudents)
		apiGroup.POST("/students", s.addStudent)
		apiGroup.GET("/faculty", s.listFaculty)
		apiGroup.POST("/faculty", s.addFaculty)

		apiGroup.POST("/cache/invalidate/:identity", s.invalidateCache)
	}

	s.engine = engine
	return s
}

// Handler returns the root HTTP handler for mounting on an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
