package receiver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	coltracepb "go.opentelemetry.io/proto/otlp/collector/trace/v1"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/logging"
	"github.com/GriffinCanCode/observability-demo/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/observability-demo/internal/jaeger"
	"github.com/GriffinCanCode/observability-demo/internal/middleware"
)

// OTLP/HTTP content types.
const (
	ContentTypeProtobuf = "application/x-protobuf"
	ContentTypeJSON     = "application/json"
)

// MaxRequestBytes caps an ingest request body after decompression.
const MaxRequestBytes = 16 << 20

const defaultQueryLimit = 20

// Transport labels for received-span metrics.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Handlers serves ingest and query requests.
type Handlers struct {
	store   *Store
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewHandlers creates handlers over store. metrics may be nil.
func NewHandlers(store *Store, metrics *monitoring.Metrics, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{store: store, metrics: metrics, logger: logger}
}

// RouterConfig configures NewRouter. Zero values allow every origin and
// disable rate limiting.
type RouterConfig struct {
	CORS    middleware.CORSConfig
	Query   middleware.RateLimitConfig
	Ingest  *rate.Limiter
	Metrics *monitoring.Metrics
}

// NewRouter registers every route on a new gin engine.
func NewRouter(h *Handlers, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID())
	if cfg.Metrics != nil {
		router.Use(monitoring.Middleware(cfg.Metrics))
	}
	router.Use(middleware.CORS(cfg.CORS))

	ingest := cfg.Ingest
	if ingest == nil {
		ingest = rate.NewLimiter(rate.Inf, 0)
	}
	router.POST("/v1/traces", middleware.Limit(ingest), h.Ingest)

	api := router.Group("/api", middleware.RateLimit(cfg.Query))
	api.GET("/services", h.Services)
	api.GET("/traces", h.Traces)
	api.GET("/traces/:traceID", h.Trace)

	router.GET("/health", h.Health)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	return router
}

// Ingest accepts an OTLP/HTTP ExportTraceServiceRequest.
func (h *Handlers) Ingest(c *gin.Context) {
	contentType := c.ContentType()
	if contentType != ContentTypeProtobuf && contentType != ContentTypeJSON {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": fmt.Sprintf("unsupported content type %q", contentType),
		})
		return
	}

	body, err := readBody(c.Request)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	req := &coltracepb.ExportTraceServiceRequest{}
	if contentType == ContentTypeJSON {
		err = protojson.Unmarshal(body, req)
	} else {
		err = proto.Unmarshal(body, req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid export request: %v", err)})
		return
	}

	h.accept(TransportHTTP, req, zap.String("request_id", middleware.GetRequestID(c)))

	resp := &coltracepb.ExportTraceServiceResponse{}
	var out []byte
	if contentType == ContentTypeJSON {
		out, err = protojson.Marshal(resp)
	} else {
		out, err = proto.Marshal(resp)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentType, out)
}

// accept stores req and records it.
func (h *Handlers) accept(transport string, req *coltracepb.ExportTraceServiceRequest, fields ...zap.Field) int {
	n := h.store.Add(req)
	if h.metrics != nil {
		h.metrics.RecordReceived(transport, n)
		h.metrics.TracesStored.Set(float64(h.store.Len()))
	}
	h.logger.Debug("spans received", append(fields,
		zap.String("transport", transport),
		zap.Int("spans", n),
		zap.Int("traces_stored", h.store.Len()),
	)...)
	return n
}

func readBody(r *http.Request) ([]byte, error) {
	var body io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxRequestBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > MaxRequestBytes {
		return nil, &http.MaxBytesError{Limit: MaxRequestBytes}
	}
	return data, nil
}

// Services lists every service seen.
func (h *Handlers) Services(c *gin.Context) {
	services := h.store.Services()
	c.JSON(http.StatusOK, jaeger.Response[[]string]{Data: services, Total: len(services)})
}

// Traces searches traces by service.
func (h *Handlers) Traces(c *gin.Context) {
	service := c.Query("service")
	if service == "" {
		queryError(c, http.StatusBadRequest, "parameter 'service' is required")
		return
	}

	limit := defaultQueryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			queryError(c, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		if n > 0 {
			limit = n
		}
	}

	traces := h.store.Traces(service, limit)
	c.JSON(http.StatusOK, jaeger.Response[[]jaeger.Trace]{Data: traces, Total: len(traces), Limit: limit})
}

// Trace returns one trace by hex ID.
func (h *Handlers) Trace(c *gin.Context) {
	id := c.Param("traceID")
	trace, ok := h.store.Trace(id)
	if !ok {
		c.JSON(http.StatusNotFound, jaeger.Response[[]jaeger.Trace]{
			Errors: []jaeger.ResponseError{{Code: http.StatusNotFound, Msg: "trace not found", TraceID: id}},
		})
		return
	}
	c.JSON(http.StatusOK, jaeger.Response[[]jaeger.Trace]{Data: []jaeger.Trace{trace}, Total: 1})
}

// Health reports liveness and store size.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"traces": h.store.Len(),
	})
}

func queryError(c *gin.Context, status int, msg string) {
	c.JSON(status, jaeger.Response[any]{
		Errors: []jaeger.ResponseError{{Code: status, Msg: msg}},
	})
}
