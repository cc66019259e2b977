package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/config"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/service"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/sse"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/middleware"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/cache"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/shared/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	TestSchema = "test_crm"
	JWTSecret  = "gajrajah-crm-test-secret"
	Issuer     = "gajrajah-crm"
	MockToken  = "mock_jwt_token_test"
	MockPrefix = "mock_jwt_token"
)

// TestEnv 内存存储上的完整服务栈
type TestEnv struct {
	Repos    *repository.Repositories
	Services *service.Services
	Blobs    *storage.MemoryStore
	Cache    *cache.MemoryCache
	Hub      *sse.Hub
}

// AuthConfig 测试用认证配置
func AuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       JWTSecret,
		Issuer:          Issuer,
		TokenExpire:     time.Hour,
		MockTokenPrefix: MockPrefix,
	}
}

// NewEnv builds services over fresh in-memory repositories
func NewEnv(t *testing.T) *TestEnv {
	t.Helper()
	repos := repository.NewMemoryRepositories()
	blobs := storage.NewMemoryStore()
	memCache := cache.NewMemoryCache()
	hub := sse.NewHub(zap.NewNop())
	return &TestEnv{
		Repos:    repos,
		Services: service.NewServices(repos, memCache, blobs, hub, AuthConfig(), zap.NewNop()),
		Blobs:    blobs,
		Cache:    memCache,
		Hub:      hub,
	}
}

// projectRoot returns the project root directory by looking for go.mod
func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// loadEnv loads .env from the project root
func loadEnv() {
	root := projectRoot()
	if root != "" {
		godotenv.Load(filepath.Join(root, ".env"))
	}
}

// SetupTestDB creates a test database connection using a dedicated test schema.
// Skips the test when DB_HOST is not configured or postgres is unreachable.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	loadEnv()

	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set, skipping postgres test")
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "crm")
	password := getEnv("DB_PASSWORD", "")
	dbname := getEnv("DB_NAME", "gajrajah_crm")

	baseDSN := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	schemaName := fmt.Sprintf("%s_%d", TestSchema, time.Now().UnixNano()%1000000)

	setupDB, err := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("postgres unreachable: %v", err)
	}
	if err := setupDB.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schemaName)).Error; err != nil {
		t.Skipf("cannot create test schema: %v", err)
	}
	sqlSetup, _ := setupDB.DB()
	sqlSetup.Close()

	// search_path 写进 DSN，连接池里每个连接都落在测试 schema
	testDSN := fmt.Sprintf("%s search_path=%s", baseDSN, schemaName)
	db, err := gorm.Open(postgres.Open(testDSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		cleanDB, cleanErr := gorm.Open(postgres.Open(baseDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if cleanErr == nil {
			cleanDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
			sqlClean, _ := cleanDB.DB()
			if sqlClean != nil {
				sqlClean.Close()
			}
		}
	})

	return db
}

// SetupRouter creates a gin test router
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthOptions bearer auth settings matching the test secret
func AuthOptions() middleware.AuthOptions {
	return middleware.AuthOptions{Secret: JWTSecret, MockPrefix: MockPrefix}
}

// AuthGroup creates an API group behind bearer auth
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.BearerAuth(AuthOptions()))
}

// GenerateTestToken creates a valid JWT for the given user
func GenerateTestToken(userID, name, email, role string) string {
	token, _, _ := middleware.SignToken(JWTSecret, Issuer, time.Hour, userID, name, email, role)
	return token
}

// DefaultTestToken returns a token for a default admin test user
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test Admin", "admin@test.com", "Admin")
}

// DoRequest executes an HTTP request against the test router
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
