package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
)

func TestSetup_Disabled(t *testing.T) {
	tel, err := Setup(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if tel != nil {
		t.Fatal("Setup() should return nil when no endpoint is configured")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on nil Telemetry error = %v", err)
	}
}

func TestSetup_ExportsSpans(t *testing.T) {
	var traces atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/traces" {
			traces.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx := context.Background()
	tel, err := Setup(ctx, Config{
		Endpoint:    srv.URL + "/",
		Headers:     "authorization=Bearer x",
		ServiceName: "teamlabel-test",
	})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	_, span := Tracer().Start(ctx, "run")
	span.End()

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if traces.Load() == 0 {
		t.Error("expected the span to be exported on shutdown")
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Config{ServiceName: "teamlabel-test", ServiceVersion: "v1.2.3"})
	if err != nil {
		t.Fatalf("newResource() error = %v", err)
	}
	if res.SchemaURL() != resource.Default().SchemaURL() {
		t.Errorf("SchemaURL() = %q, want the SDK default %q", res.SchemaURL(), resource.Default().SchemaURL())
	}

	attrs := make(map[attribute.Key]string)
	for _, kv := range res.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	if got := attrs["service.name"]; got != "teamlabel-test" {
		t.Errorf("service.name = %q, want %q", got, "teamlabel-test")
	}
	if got := attrs["service.version"]; got != "v1.2.3" {
		t.Errorf("service.version = %q, want %q", got, "v1.2.3")
	}
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" authorization = Bearer abc ,x-team=core,broken")
	if len(got) != 2 {
		t.Fatalf("parseHeaders() = %v, want 2 headers", got)
	}
	if got["authorization"] != "Bearer abc" {
		t.Errorf("authorization = %q", got["authorization"])
	}
	if got["x-team"] != "core" {
		t.Errorf("x-team = %q", got["x-team"])
	}
	if len(parseHeaders("")) != 0 {
		t.Error("empty input should yield no headers")
	}
}
