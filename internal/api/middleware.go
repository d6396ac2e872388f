package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stagebill/stagebill-server/internal/domain"
	"github.com/stagebill/stagebill-server/internal/models"
)

const identityKey = "identity"

// AuthMiddleware returns a Gin middleware that verifies the session
// JWT and places the caller's identity in the request context. The
// token is minted by the external session provider; its claims are
// trusted once the signature checks out.
func AuthMiddleware(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Authentication required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			unauthorized(c, "Invalid token format")
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			unauthorized(c, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "Invalid token claims")
			return
		}

		userID, _ := claims["sub"].(string)
		orgID, _ := claims["org"].(string)
		role, _ := claims["role"].(string)
		if userID == "" || orgID == "" || role == "" {
			unauthorized(c, "Invalid token claims")
			return
		}

		isApprover, _ := claims["isApprover"].(bool)
		canPay, _ := claims["canPay"].(bool)

		c.Set(identityKey, domain.Identity{
			UserID:         userID,
			OrganizationID: orgID,
			Role:           models.Role(role),
			IsApprover:     isApprover,
			CanPay:         canPay,
		})
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Status:  "error",
		Code:    "UNAUTHORIZED",
		Message: message,
	})
	c.Abort()
}

// identityFrom returns the identity placed by AuthMiddleware.
func identityFrom(c *gin.Context) domain.Identity {
	return c.MustGet(identityKey).(domain.Identity)
}

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stagebill_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stagebill_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// MetricsMiddleware records per-route request counts and latency.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
