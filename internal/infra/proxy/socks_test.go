package proxy_test

import (
	"net/http"
	"testing"
	"time"

	"home-voice/internal/infra/proxy"
)

func TestNewSocksClient_Direct(t *testing.T) {
	c, err := proxy.NewSocksClient("", 5*time.Second)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if c.Transport != nil {
		t.Error("direct client should use the default transport")
	}
	if c.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v", c.Timeout)
	}
}

func TestNewSocksClient_Proxied(t *testing.T) {
	c, err := proxy.NewSocksClient("127.0.0.1:1080", time.Minute)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if _, ok := c.Transport.(*http.Transport); !ok {
		t.Errorf("transport: got %T, want *http.Transport", c.Transport)
	}
}
