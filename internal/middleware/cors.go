package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Headers a browser OTLP exporter or trace viewer may send. traceparent and
// tracestate come from instrumented fetch/XHR calls.
var corsHeaders = []string{
	"Accept",
	"Accept-Encoding",
	"Content-Encoding",
	"Content-Length",
	"Content-Type",
	"Origin",
	"traceparent",
	"tracestate",
	RequestIDHeader,
}

// CORSConfig selects which browser origins may post spans and read traces.
type CORSConfig struct {
	Origins []string // "*" allows any origin
	MaxAge  time.Duration
}

// DefaultCORSConfig allows any origin, matching a local Jaeger all-in-one.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{Origins: []string{"*"}, MaxAge: 12 * time.Hour}
}

// CORS answers preflights for the OTLP and query routes. An empty origin
// list falls back to DefaultCORSConfig.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	if len(cfg.Origins) == 0 {
		cfg = DefaultCORSConfig()
	}

	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  corsHeaders,
		ExposeHeaders: []string{RequestIDHeader, "Retry-After"},
		MaxAge:        cfg.MaxAge,
	}
	if slices.Contains(cfg.Origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.Origins
	}
	return cors.New(c)
}
