package middleware

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/artcatalog/backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiters_WithoutRedisPassThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{RateLimitRequests: 1, UploadMaxPerDay: 1}

	r := gin.New()
	r.Use(RateLimiter(nil, cfg))
	r.POST("/upload", UploadRateLimit(nil, cfg), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

// setupRedis connects to TEST_REDIS_ADDR and skips when it is not set or reachable.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimiter_TripsAfterLimit(t *testing.T) {
	client := setupRedis(t)
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{RateLimitRequests: 3, RateLimitDuration: time.Minute}

	ip := fmt.Sprintf("10.%d.%d.%d", rand.Intn(256), rand.Intn(256), rand.Intn(256))
	key := "rate_limit:" + ip
	t.Cleanup(func() { client.Del(context.Background(), key) })

	r := gin.New()
	r.Use(RateLimiter(client, cfg))
	r.GET("/api/status", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.RemoteAddr = ip + ":4321"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 1; i <= 3; i++ {
		w := send()
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(3-i), w.Header().Get("X-RateLimit-Remaining"))
	}

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	ttl, err := client.TTL(context.Background(), key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestUploadRateLimit_CapsPerOperatorPerDay(t *testing.T) {
	client := setupRedis(t)
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{UploadMaxPerDay: 2}

	username := fmt.Sprintf("artist-%d", rand.Int63())
	key := fmt.Sprintf("upload_limit:%s:%s", username, time.Now().Format("2006-01-02"))
	t.Cleanup(func() { client.Del(context.Background(), key) })

	r := gin.New()
	r.POST("/upload", func(c *gin.Context) {
		c.Set(usernameKey, username)
		c.Next()
	}, UploadRateLimit(client, cfg), func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "upload_rate_limit_exceeded")

	count, err := client.Get(context.Background(), key).Int()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	ttl, err := client.TTL(context.Background(), key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 24*time.Hour)
}
