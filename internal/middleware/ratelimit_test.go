package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func loginAttempt(router *gin.Engine, ip string) int {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/auth/login", strings.NewReader(`{}`))
	req.RemoteAddr = ip + ":54321"
	router.ServeHTTP(w, req)
	return w.Code
}

func limitedLoginRouter(rps float64, burst int) *gin.Engine {
	router := gin.New()
	rl := NewRateLimiter(rps, burst)
	router.POST("/api/auth/login", rl.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	})
	return router
}

// A client inside its budget reaches the handler.
func TestRateLimiter_WithinBudget(t *testing.T) {
	router := limitedLoginRouter(5, 10)

	if code := loginAttempt(router, "203.0.113.7"); code != http.StatusUnauthorized {
		t.Errorf("expected the handler's %d, got %d", http.StatusUnauthorized, code)
	}
}

// Hammering the login endpoint drains the burst and ends in 429s.
func TestRateLimiter_BruteForceThrottled(t *testing.T) {
	router := limitedLoginRouter(1, 3)

	var got []int
	for i := 0; i < 8; i++ {
		got = append(got, loginAttempt(router, "203.0.113.7"))
	}

	if got[0] != http.StatusUnauthorized {
		t.Errorf("first attempt should reach the handler, got %d", got[0])
	}
	if got[len(got)-1] != http.StatusTooManyRequests {
		t.Errorf("expected %d once the burst is spent, got %d", http.StatusTooManyRequests, got[len(got)-1])
	}
}

// One client exhausting its budget must not throttle another IP.
func TestRateLimiter_BudgetIsPerIP(t *testing.T) {
	router := limitedLoginRouter(1, 1)

	loginAttempt(router, "203.0.113.7")
	if code := loginAttempt(router, "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Errorf("second attempt from throttled IP: expected 429, got %d", code)
	}

	if code := loginAttempt(router, "198.51.100.4"); code != http.StatusUnauthorized {
		t.Errorf("fresh IP should have its own budget, got %d", code)
	}
}
