// Package options serves static choice lists (genders, roles, ...) that
// front-ends render as dropdowns. Lists come from configuration and are
// optionally cached in redis.
package options

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-account-service/internal/core/cache"
	"go-account-service/internal/domain"
	"go-account-service/internal/transport/http/ez"
)

const cacheTTL = 10 * time.Minute

type Module struct {
	kinds map[string][]string
	cache *cache.Cache // nil disables caching
	log   *zap.Logger
}

func New(kinds map[string][]string, c *cache.Cache, l *zap.Logger) *Module {
	return &Module{kinds: kinds, cache: c, log: l}
}

func (m *Module) lookup(kind string) ([]string, error) {
	vals, ok := m.kinds[kind]
	if !ok {
		return nil, domain.E(domain.CodeInvalidParameter, "unknown option kind "+kind)
	}
	return vals, nil
}

// MountAPI registers GET /options/:kind.
func (m *Module) MountAPI(g *gin.RouterGroup) {
	e := ez.New(g, m.log)

	ez.Register[struct{}, []string](e, ez.Action[struct{}, []string]{
		Method: http.MethodGet,
		Path:   "/options/:kind",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]string, error) {
			kind := c.Param("kind")
			if m.cache == nil {
				return m.lookup(kind)
			}
			v, err := cache.GetOrLoadJSON[[]string](m.cache, c.Request.Context(),
				"options:"+kind, cacheTTL,
				func(ctx context.Context) (*[]string, error) {
					vals, err := m.lookup(kind)
					if err != nil {
						return nil, err
					}
					return &vals, nil
				})
			if err != nil {
				return nil, err
			}
			if v == nil {
				return []string{}, nil
			}
			return *v, nil
		},
	})
}
