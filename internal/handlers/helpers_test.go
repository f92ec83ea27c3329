package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/internal/middleware"
	"github.com/huangang/shiftledger/internal/models"
	"github.com/huangang/shiftledger/internal/services"
	"github.com/huangang/shiftledger/internal/utils"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("handler-test-secret")
}

type testEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	users    *services.UserService
	shifts   *services.ShiftService
	invoices *services.InvoiceService
	projects *services.ProjectService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := models.Open(&config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatal(err)
	}
	if err := models.Seed(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	logs := services.NewActivityLogService(db)
	env := &testEnv{
		db:       db,
		users:    services.NewUserService(db, logs),
		shifts:   services.NewShiftService(db, &config.ShiftsConfig{SingleActiveShift: true}, logs, nil, nil),
		invoices: services.NewInvoiceService(db, &config.InvoiceConfig{Timezone: "UTC"}, nil, nil),
		projects: services.NewProjectService(db, logs),
	}

	authHandler := NewAuthHandler(services.NewAuthService(db, &config.JWTConfig{ExpireHour: 1}, &config.LDAPConfig{}, env.users), env.users)
	shiftHandler := NewShiftHandler(env.shifts)
	invoiceHandler := NewInvoiceHandler(env.invoices)
	logHandler := NewActivityLogHandler(logs)
	projectHandler := NewProjectHandler(env.projects, env.users)
	employeeHandler := NewEmployeeHandler(env.users, env.invoices, services.NewBillingService(db))
	billingHandler := NewBillingHandler(services.NewBillingService(db))

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/signup", authHandler.Signup)

	protected := api.Group("", middleware.AuthRequired())
	protected.GET("/auth/me", authHandler.GetCurrentUser)
	protected.POST("/shifts/clock-in", shiftHandler.ClockIn)
	protected.POST("/shifts/clock-out", shiftHandler.ClockOut)
	protected.GET("/shifts/active", shiftHandler.GetActive)
	protected.GET("/shifts", shiftHandler.ListCompleted)
	protected.GET("/invoices", invoiceHandler.ListMine)
	protected.GET("/invoices/:id", invoiceHandler.GetMine)
	protected.GET("/logs", logHandler.Recent)
	protected.GET("/projects/:id", projectHandler.GetByID)
	protected.GET("/billing", billingHandler.Get)
	protected.PUT("/billing", billingHandler.Update)

	admin := protected.Group("/admin", middleware.AdminRequired())
	admin.POST("/invoices/generate", invoiceHandler.GenerateAll)
	admin.GET("/invoices", invoiceHandler.List)
	admin.PUT("/employees/:id/pay-rate", employeeHandler.UpdatePayRate)
	admin.GET("/employees/:id", employeeHandler.GetByID)

	env.router = r
	return env
}

func (e *testEnv) user(t *testing.T, name string, rateCents int64, roles ...string) (*models.User, string) {
	t.Helper()
	user := &models.User{
		Name:            name,
		Email:           strings.ToLower(name) + "@example.com",
		HourlyRateCents: rateCents,
		AuthType:        models.AuthTypeLocal,
		IsActive:        true,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatal(err)
	}
	if len(roles) > 0 {
		if _, err := e.users.AssignRoles(t.Context(), user.ID, roles); err != nil {
			t.Fatal(err)
		}
	}
	token, err := utils.GenerateToken(user.ID, user.Email, roles, 1)
	if err != nil {
		t.Fatal(err)
	}
	return user, token
}

func (e *testEnv) project(t *testing.T, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, Status: models.ProjectStatusActive}
	if err := e.db.Create(p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad response body %q: %v", w.Body.String(), err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("bad data %s: %v", env.Data, err)
		}
	}
	return env
}
