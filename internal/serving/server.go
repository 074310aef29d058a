// Package serving exposes the trained model over HTTP and websocket.
package serving

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"repeat-purchase-lab/internal/logger"
	"repeat-purchase-lab/internal/model"
	"repeat-purchase-lab/internal/observability"
)

// Endpoint names used in prediction metrics.
const (
	EndpointPredict   = "predict"
	EndpointBatch     = "predict_batch"
	EndpointWebsocket = "ws_predict"
)

// Server serves predictions from a cached model.
type Server struct {
	predictor model.Predictor
	modelID   string
	log       *logger.Logger
	m         *observability.Metrics

	origins  map[string]bool
	upgrader websocket.Upgrader

	mu      sync.Mutex
	streams map[*websocket.Conn]struct{}
	closing bool
}

// Options configures a Server.
type Options struct {
	Cache   *model.Cache
	ModelID string                 // reported by /health
	Logger  *logger.Logger         // defaults to a no-op logger
	Metrics *observability.Metrics // defaults to observability.DefaultMetrics

	// AllowedOrigins are browser origins accepted on /ws/predict in addition
	// to the request's own host. "*" accepts any origin.
	AllowedOrigins []string
}

// NewServer loads the model from the cache. A load failure is returned so
// the caller can refuse to start.
func NewServer(opts Options) (*Server, error) {
	s := &Server{
		modelID: opts.ModelID,
		log:     opts.Logger,
		m:       opts.Metrics,
		origins: make(map[string]bool, len(opts.AllowedOrigins)),
		streams: make(map[*websocket.Conn]struct{}),
	}
	for _, o := range opts.AllowedOrigins {
		s.origins[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.m == nil {
		s.m = observability.DefaultMetrics
	}

	p, err := opts.Cache.Get()
	if err != nil {
		s.m.ModelLoaded.Set(0)
		return nil, fmt.Errorf("load model: %w", err)
	}
	s.m.ModelLoaded.Set(1)
	s.predictor = p
	return s, nil
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the serving routes to r.
func (s *Server) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", s.health)
	r.POST("/predict", s.predict)
	r.POST("/predict/batch", s.predictBatch)
	r.GET("/ws/predict", s.predictStream)
	r.GET("/metrics", gin.WrapH(observability.Handler()))
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
