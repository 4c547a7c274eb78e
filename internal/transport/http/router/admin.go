package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-account-service/internal/core/auth"
	"go-account-service/internal/core/server"
	"go-account-service/internal/domain"
	"go-account-service/internal/transport/http/ez"
	mdw "go-account-service/internal/transport/http/middleware"
)

// NewAdminEngine builds the ops engine: user inventory, audit trail,
// metrics. Every /admin/v1 route requires a logged-in manager. The admin
// surface sits behind a browser dashboard, so it gets the zap/CORS base
// instead of the public stack.
func NewAdminEngine(l *zap.Logger, db *gorm.DB, logs domain.AuditLogRepository, sess *auth.Sessioner) *gin.Engine {
	r := server.NewEngine(l)

	r.Use(
		mdw.RequestID(),
		mdw.MaxBodyBytes(1<<20),
		mdw.Metrics(),
		mdw.Session(sess),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := r.Group("/admin/v1")

	MountAllAdmin(admin)
	mountAdminActions(admin, l, db, logs)

	return r
}

func mountAdminActions(admin *gin.RouterGroup, l *zap.Logger, db *gorm.DB, logs domain.AuditLogRepository) {
	e := ez.New(admin, l)

	type userRow struct {
		ID         string    `json:"id"`
		Email      string    `json:"email"`
		Name       string    `json:"name"`
		Authority  []string  `json:"authority"`
		CreateTime time.Time `json:"create_time"`
	}
	type usersQ struct {
		Offset int    `form:"offset"`
		Limit  int    `form:"limit,default=50"`
		Q      string `form:"q"`
	}
	type usersOut struct {
		Total int64     `json:"total"`
		Items []userRow `json:"items"`
	}
	ez.Register[usersQ, usersOut](e, ez.Action[usersQ, usersOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: ez.BindQuery,
		Auth:   true,
		Roles:  []string{domain.RoleManager},
		Handler: func(c *gin.Context, in *usersQ) (usersOut, error) {
			if in.Limit <= 0 || in.Limit > 500 {
				in.Limit = 50
			}
			tx := db.WithContext(c.Request.Context()).Model(&domain.User{})
			if in.Q != "" {
				like := "%" + in.Q + "%"
				tx = tx.Where("email LIKE ? OR name LIKE ?", like, like)
			}
			var total int64
			if err := tx.Count(&total).Error; err != nil {
				return usersOut{}, err
			}
			var users []domain.User
			if err := tx.Order("create_time DESC").
				Offset(in.Offset).Limit(in.Limit).Find(&users).Error; err != nil {
				return usersOut{}, err
			}
			items := make([]userRow, 0, len(users))
			for i := range users {
				u := &users[i]
				items = append(items, userRow{
					ID:         u.ID,
					Email:      u.Email,
					Name:       u.Name,
					Authority:  u.Authority(),
					CreateTime: u.CreateTime,
				})
			}
			return usersOut{Total: total, Items: items}, nil
		},
	})

	type logsQ struct {
		Type  string `form:"type"`
		Limit int    `form:"limit,default=50"`
	}
	ez.Register[logsQ, []domain.AuditLog](e, ez.Action[logsQ, []domain.AuditLog]{
		Method: http.MethodGet,
		Path:   "/logs",
		Binder: ez.BindQuery,
		Auth:   true,
		Roles:  []string{domain.RoleManager},
		Handler: func(c *gin.Context, in *logsQ) ([]domain.AuditLog, error) {
			if in.Limit <= 0 || in.Limit > 500 {
				in.Limit = 50
			}
			return logs.Recent(c.Request.Context(), in.Type, in.Limit)
		},
	})
}
