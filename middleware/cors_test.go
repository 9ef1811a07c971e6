package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pedestrian-forecast-api/config"

	"github.com/gin-gonic/gin"
)

func TestCORSPreflightAdvertisesOnlyServedMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SetupCORS(config.ServerConfig{AllowedOrigins: "http://localhost:3000"}))
	router.GET("/api/predictions", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/predictions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	methods := w.Header().Get("Access-Control-Allow-Methods")
	for _, m := range []string{"PUT", "PATCH", "DELETE"} {
		if strings.Contains(methods, m) {
			t.Errorf("Allow-Methods %q advertises %s, which no route serves", methods, m)
		}
	}
	if !strings.Contains(methods, "POST") {
		t.Errorf("Allow-Methods %q missing POST", methods)
	}
}
