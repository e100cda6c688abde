package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRouter(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/ping", func(c *gin.Context) {
		*seen = RID(c)
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	return r
}

func TestRequestID(t *testing.T) {
	// caller-supplied id is kept and echoed back
	{
		var seen string
		r := newRouter(&seen)
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Request-ID", "rid-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if seen != "rid-123" {
			t.Fatalf("RID()=%q, want rid-123", seen)
		}
		if got := w.Header().Get("X-Request-ID"); got != "rid-123" {
			t.Fatalf("response header=%q, want rid-123", got)
		}
	}
	// an id is minted when none is supplied
	{
		var seen string
		r := newRouter(&seen)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if seen == "" {
			t.Fatal("no request id assigned")
		}
		if got := w.Header().Get("X-Request-ID"); got != seen {
			t.Fatalf("response header=%q, RID()=%q", got, seen)
		}
	}
}

func TestRIDWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := RID(c); got != "" {
		t.Fatalf("RID()=%q, want empty", got)
	}
}
