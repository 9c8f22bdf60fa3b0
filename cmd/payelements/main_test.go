package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/payelements/internal/config"
	"github.com/vango-dev/payelements/pkg/backend"
	"github.com/vango-dev/payelements/pkg/bridge"
)

type stubGateway struct{}

func (stubGateway) CreatePaymentIntent(context.Context, backend.PaymentIntentRequest) (*backend.Intent, error) {
	return &backend.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func (stubGateway) CreateSetupIntent(context.Context, backend.SetupIntentRequest) (*backend.Intent, error) {
	return &backend.Intent{ID: "seti_1", ClientSecret: "seti_1_secret"}, nil
}

func (stubGateway) CreateCheckoutSession(context.Context, backend.CheckoutSessionRequest) (*backend.CheckoutSession, error) {
	return &backend.CheckoutSession{ID: "cs_1"}, nil
}

func (stubGateway) CreateSubscription(context.Context, backend.SubscriptionRequest) (*backend.Subscription, error) {
	return &backend.Subscription{ID: "sub_1"}, nil
}

func (stubGateway) ListProducts(context.Context) ([]backend.Product, error) {
	return backend.SampleProducts("usd"), nil
}

func TestMux(t *testing.T) {
	cfg := config.New()
	cfg.Provider.PublishableKey = "pk_test_123"

	reg := prometheus.NewRegistry()
	h, err := newMux(cfg, deps{
		gateway:  stubGateway{},
		registry: reg,
		session:  func(*bridge.Conn) {},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("newMux() error = %v", err)
	}
	srv := httptest.NewServer(h)
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	if code, body := get("/healthz"); code != http.StatusOK || body != "ok" {
		t.Errorf("/healthz = %d %q", code, body)
	}
	if code, body := get("/api/config"); code != http.StatusOK || !strings.Contains(body, "pk_test_123") {
		t.Errorf("/api/config = %d %s", code, body)
	}
	if code, body := get("/api/products"); code != http.StatusOK || !strings.Contains(body, "prod_sample_mug") {
		t.Errorf("/api/products = %d %s", code, body)
	}
	if code, _ := get("/bridge.js"); code != http.StatusOK {
		t.Errorf("/bridge.js = %d", code)
	}

	resp, err := http.Post(srv.URL+"/api/payment-intent", "application/json", strings.NewReader(`{"amount":1999}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("payment-intent status = %d", resp.StatusCode)
	}

	if code, body := get("/metrics"); code != http.StatusOK || !strings.Contains(body, "payelements_http_requests_total") {
		t.Errorf("/metrics = %d, missing request metrics", code)
	}
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payelements.yaml")
	data := "provider:\n  publishableKey: pk_test_123\nbackend:\n  secretKey: sk_test_abcdefghijkl\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "--config", path, "--format", "json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config error = %v", err)
	}

	var got config.Config
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %s", out.String())
	}
	if got.Provider.PublishableKey != "pk_test_123" {
		t.Errorf("publishableKey = %q", got.Provider.PublishableKey)
	}
	if strings.Contains(out.String(), "sk_test_abcdefghijkl") {
		t.Error("secret key printed unmasked")
	}
	if got.Server.Addr != config.DefaultAddr {
		t.Errorf("defaults not applied: addr = %q", got.Server.Addr)
	}

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "--config", path, "--validate"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("validate error = %v", err)
	}
	if !strings.Contains(out.String(), "Configuration is valid") {
		t.Errorf("validate output = %q", out.String())
	}
}

func TestConfigValidateFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payelements.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvPublishableKey, "")

	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"config", "--config", path, "--validate"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected validation error for missing keys")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("info logged at warn level")
	}
	if !strings.Contains(buf.String(), `"msg":"shown"`) {
		t.Errorf("json output = %q", buf.String())
	}
}

func TestVersionShort(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("version = %q", out.String())
	}
}
