package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStat struct{ acquired, idle, total int32 }

func (f fakeStat) AcquiredConns() int32 { return f.acquired }
func (f fakeStat) IdleConns() int32     { return f.idle }
func (f fakeStat) TotalConns() int32    { return f.total }

func TestUpdateDBPoolMetrics(t *testing.T) {
	UpdateDBPoolMetrics(fakeStat{acquired: 3, idle: 7, total: 10})

	if got := testutil.ToFloat64(DBPoolConnsAcquired); got != 3 {
		t.Errorf("acquired = %v, want 3", got)
	}
	if got := testutil.ToFloat64(DBPoolConnsIdle); got != 7 {
		t.Errorf("idle = %v, want 7", got)
	}
	if got := testutil.ToFloat64(DBPoolConnsOpen); got != 10 {
		t.Errorf("open = %v, want 10", got)
	}
}

func TestObserveLocate(t *testing.T) {
	before := testutil.ToFloat64(LocateTotal.WithLabelValues("direct", OutcomeDegenerate))
	ObserveLocate("direct", OutcomeDegenerate, time.Now())
	after := testutil.ToFloat64(LocateTotal.WithLabelValues("direct", OutcomeDegenerate))
	if after-before != 1 {
		t.Errorf("counter advanced by %v, want 1", after-before)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	if _, err := app.Test(httptest.NewRequest("GET", "/ping", nil), -1); err != nil {
		t.Fatal(err)
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `pinpoint_http_requests_total{method="GET",path="/ping",status="200"}`) {
		t.Errorf("metrics output missing /ping series:\n%s", body)
	}
}
