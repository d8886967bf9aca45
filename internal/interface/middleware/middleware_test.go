package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/identity-service/internal/application"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	var seen string
	r.GET("/", func(c *gin.Context) { seen = c.GetString("request_id") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	serve(r, req)
	assert.Equal(t, incoming, seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	serve(r, req)
	assert.NotEqual(t, "<script>", seen)
}

func TestRealIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}, "1.1.1.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": "3.3.3.3"}, "3.3.3.3"},
		{"left-most forwarded", map[string]string{"X-Forwarded-For": "4.4.4.4, 10.0.0.1"}, "4.4.4.4"},
		{"garbage falls back", map[string]string{"CF-Connecting-IP": "nope"}, "192.0.2.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RealIP())
			var seen string
			r.GET("/", func(c *gin.Context) { seen = c.GetString("real_ip") })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			serve(r, req)
			assert.Equal(t, tc.want, seen)
		})
	}
}

func TestActor(t *testing.T) {
	r := gin.New()
	r.Use(Actor())
	var fromCtx, fromGin string
	r.GET("/", func(c *gin.Context) {
		fromCtx = application.ActorFromContext(c.Request.Context())
		fromGin = c.GetString("actor")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, " admin-1 ")
	serve(r, req)
	assert.Equal(t, "admin-1", fromCtx)
	assert.Equal(t, "admin-1", fromGin)

	serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, application.SystemActor, fromCtx)
	assert.Empty(t, fromGin)
}

func TestKeyFuncs(t *testing.T) {
	r := gin.New()
	r.Use(RealIP(), Actor())
	keys := map[string]string{}
	r.PUT("/users/:id", func(c *gin.Context) {
		keys["ip"] = KeyByIP()(c)
		keys["path"] = KeyByIPAndPath()(c)
		keys["actor"] = KeyByActor()(c)
	})

	req := httptest.NewRequest(http.MethodPut, "/users/42", nil)
	req.Header.Set("X-Real-IP", "5.5.5.5")
	serve(r, req)
	assert.Equal(t, "rl:ip:5.5.5.5", keys["ip"])
	assert.Equal(t, "rl:path:PUT:/users/:id:ip:5.5.5.5", keys["path"])
	assert.Equal(t, "rl:actor:anon:ip:5.5.5.5", keys["actor"])

	req.Header.Set(ActorHeader, "ops")
	serve(r, req)
	assert.Equal(t, "rl:actor:ops", keys["actor"])
}

func TestRateLimitWithoutRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, 1, 0, KeyByIP(), nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestAllowFuncs(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	var private, method, either bool
	r.Any("/", func(c *gin.Context) {
		private = AllowPrivateIP()(c)
		method = AllowMethods(http.MethodGet)(c)
		either = AnyOf(nil, AllowMethods(http.MethodPost), AllowPrivateIP())(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "10.1.2.3")
	serve(r, req)
	assert.True(t, private)
	assert.True(t, method)
	assert.True(t, either)

	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("X-Real-IP", "8.8.8.8")
	serve(r, req)
	assert.False(t, private)
	assert.False(t, method)
	assert.False(t, either)
}

func TestParseWindow(t *testing.T) {
	w, err := parseWindow([]any{int64(3), int64(1500)})
	require.NoError(t, err)
	assert.Equal(t, 3, w.count)
	assert.Equal(t, 1500*time.Millisecond, w.reset)

	w, err = parseWindow([]any{int64(1), int64(-1)})
	require.NoError(t, err)
	assert.Zero(t, w.reset)

	_, err = parseWindow(int64(4))
	assert.Error(t, err)
	_, err = parseWindow([]any{"x", int64(1)})
	assert.Error(t, err)
}

func TestWindowHeaders(t *testing.T) {
	tests := []struct {
		name      string
		win       window
		over      bool
		remaining string
		reset     string
		retry     string
	}{
		{name: "under budget", win: window{count: 1, reset: 1500 * time.Millisecond}, remaining: "1", reset: "2"},
		{name: "at budget", win: window{count: 2, reset: time.Second}, remaining: "0", reset: "1"},
		{name: "over budget", win: window{count: 5, reset: 30 * time.Second}, over: true, remaining: "0", reset: "30", retry: "30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			assert.Equal(t, tt.over, tt.win.writeHeaders(c, 2))
			assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, tt.remaining, rec.Header().Get("X-RateLimit-Remaining"))
			assert.Equal(t, tt.reset, rec.Header().Get("X-RateLimit-Reset"))
			assert.Equal(t, tt.retry, rec.Header().Get("Retry-After"))
		})
	}
}
