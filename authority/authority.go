// Package authority is an in-memory implementation of the clinic booking API
// this client consumes. It exists so the integration tests and the local
// `devserver` subcommand have a real HTTP contract to run against without any
// external service; it is a contract double, not a product server.
package authority

import (
	"crypto/rand"
	"net/http"
	"strings"
	"time"

	"clinicbook/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Authority serves the clinic booking API from in-memory state.
type Authority struct {
	engine *gin.Engine
	store  *store
	secret []byte
	logger *zap.Logger
}

// New builds an Authority with a per-instance signing secret.
func New(logger *zap.Logger) *Authority {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}

	a := &Authority{
		store:  newStore(),
		secret: secret,
		logger: logger,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.POST("/auth/register", a.register)
	router.POST("/auth/login", a.login)
	router.GET("/services", a.listServices)

	authed := router.Group("/", a.requireAuth())
	authed.GET("/doctors", a.listDoctors)
	authed.GET("/schedules/doctor/:id", a.doctorSchedule)
	authed.GET("/appointments/mine", a.requireRole(models.RolePatient), a.myAppointments)
	authed.POST("/appointments", a.requireRole(models.RolePatient), a.book)
	authed.DELETE("/appointments/:id", a.requireRole(models.RolePatient), a.cancelAppointment)

	doctor := router.Group("/", a.requireAuth(), a.requireRole(models.RoleDoctor))
	doctor.GET("/doctors/me", a.me)
	doctor.PUT("/doctors/me/services", a.setMyServices)
	doctor.GET("/schedules/mine", a.mySchedule)
	doctor.POST("/schedules", a.addSlots)
	doctor.DELETE("/schedules/:id/slot/:index", a.deleteSlot)
	doctor.GET("/appointments/doctor/mine", a.doctorAppointments)
	doctor.PUT("/appointments/doctor/:id", a.updateAppointment)

	admin := router.Group("/", a.requireAuth(), a.requireRole(models.RoleAdmin))
	admin.POST("/services", a.createService)
	admin.PUT("/services/:id", a.updateService)
	admin.DELETE("/services/:id", a.deleteService)
	admin.GET("/admin/users", a.listUsers)
	admin.GET("/admin/appointments", a.listAppointments)
	admin.PUT("/admin/users/:id/services", a.assignServices)

	a.engine = router
	return a
}

// Handler exposes the authority as an http.Handler (for httptest).
func (a *Authority) Handler() http.Handler {
	return a.engine
}

// Run serves on addr until the listener fails.
func (a *Authority) Run(addr string) error {
	a.logger.Info("in-memory clinic authority listening", zap.String("addr", addr))
	return a.engine.Run(addr)
}

func (a *Authority) signToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// requireAuth validates the bearer token and stashes the account in the
// request context.
func (a *Authority) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}

		a.store.mu.Lock()
		acc, ok := a.store.accounts[sub]
		a.store.mu.Unlock()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unknown account"})
			return
		}

		c.Set("user", acc.user)
		c.Next()
	}
}

// requireRole gates a route on the authenticated user's role.
func (a *Authority) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "requires " + role + " role"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) models.User {
	v, _ := c.Get("user")
	user, _ := v.(models.User)
	return user
}
