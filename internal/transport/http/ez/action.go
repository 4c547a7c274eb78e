package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-account-service/internal/domain"
	resp "go-account-service/internal/transport/http/response"
)

type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, log *zap.Logger) EZ { return EZ{g: g, log: log} }

type Binder string

const (
	BindJSON  Binder = "json"
	BindQuery Binder = "query"
	BindNone  Binder = "none" // read c.Param / c.PostForm yourself
)

// Action registers one non-CRUD endpoint: I in, O out, one handler. Auth
// requires a logged-in session, Roles additionally requires one of the listed
// roles from the session's authority snapshot.
type Action[I any, O any] struct {
	Method  string
	Path    string
	Binder  Binder
	Auth    bool
	Roles   []string
	Handler func(c *gin.Context, in *I) (O, error)
}

func Register[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth {
			uid := c.GetString("userId")
			if uid == "" {
				c.JSON(http.StatusOK, resp.Error(domain.CodeUnauthorized, "need login"))
				return
			}
			if len(a.Roles) > 0 && !holdsAny(c, a.Roles) {
				// Same code as any other authorization failure: role gates
				// must not reveal whether the target exists.
				c.JSON(http.StatusOK, resp.Error(domain.CodeUnauthorized, "requires admin"))
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, bindErr.Error()))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			var de *domain.Error
			if errors.As(err, &de) {
				c.JSON(http.StatusOK, resp.Error(de.Code, de.Reason))
				return
			}
			// Store or other internal failure: log it, never echo it.
			e.log.Error("action failed",
				zap.String("path", a.Path), zap.String("method", a.Method), zap.Error(err))
			c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, "db error"))
			return
		}
		c.JSON(http.StatusOK, resp.OK(out))
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func holdsAny(c *gin.Context, roles []string) bool {
	v, ok := c.Get("authority")
	if !ok {
		return false
	}
	held, ok := v.([]string)
	if !ok {
		return false
	}
	for _, want := range roles {
		if domain.HoldsRole(held, want) {
			return true
		}
	}
	return false
}
