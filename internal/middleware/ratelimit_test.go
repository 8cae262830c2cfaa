package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func doRequest(t *testing.T, handler echo.HandlerFunc, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRateLimit_AllowsUnderLimit(t *testing.T) {
	limited := RateLimit(3, time.Minute)(okHandler)

	for i := 0; i < 3; i++ {
		rec := doRequest(t, limited, "203.0.113.1:1234")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimit_BlocksOverLimit(t *testing.T) {
	limited := RateLimit(2, time.Minute)(okHandler)

	doRequest(t, limited, "203.0.113.1:1234")
	doRequest(t, limited, "203.0.113.1:1234")

	rec := doRequest(t, limited, "203.0.113.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", rec.Code)
	}
}

func TestRateLimit_TracksIPsIndependently(t *testing.T) {
	limited := RateLimit(1, time.Minute)(okHandler)

	doRequest(t, limited, "203.0.113.1:1234")

	rec := doRequest(t, limited, "203.0.113.2:1234")
	if rec.Code != http.StatusOK {
		t.Errorf("expected second IP to have its own budget, got %d", rec.Code)
	}

	rec = doRequest(t, limited, "203.0.113.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected first IP to stay limited, got %d", rec.Code)
	}
}

func TestRateLimit_WindowResets(t *testing.T) {
	limited := RateLimit(1, 50*time.Millisecond)(okHandler)

	doRequest(t, limited, "203.0.113.1:1234")
	rec := doRequest(t, limited, "203.0.113.1:1234")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 inside the window, got %d", rec.Code)
	}

	time.Sleep(60 * time.Millisecond)

	rec = doRequest(t, limited, "203.0.113.1:1234")
	if rec.Code != http.StatusOK {
		t.Errorf("expected fresh budget after the window, got %d", rec.Code)
	}
}
