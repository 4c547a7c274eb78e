package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-account-service/internal/core/auth"
	"go-account-service/internal/feature/account"
	mdw "go-account-service/internal/transport/http/middleware"
)

// NewAPIEngine builds the public engine. The session middleware only
// decodes the cookie; each action decides whether login is required.
func NewAPIEngine(l *zap.Logger, svc *account.Service, sess *auth.Sessioner) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.SimpleRecovery(),
		mdw.Metrics(),
		mdw.AccessLog(l),
		mdw.Session(sess),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	api := r.Group("/api")

	// registered feature modules (options etc.)
	MountAllAPI(api)

	MountAccountActions(api, l, svc, sess)

	return r
}
