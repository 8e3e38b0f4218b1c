package server

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go/config"
	"github.com/nczempin/httpd-go/protocol"
	"github.com/nczempin/httpd-go/resolver"
)

func newStaticHandler(t *testing.T, files map[string]string) *StaticHandler {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	cfg := config.New(map[string]string{
		config.KeyRoot:         root,
		config.KeyIndex:        "index.html",
		config.KeyErrorPage404: "/404.html",
	})
	return NewStaticHandler(resolver.New(cfg, nil), zerolog.Nop())
}

type deniedReader struct{}

func (deniedReader) ReadFile(name string) ([]byte, error) {
	return nil, &os.PathError{Op: "open", Path: name, Err: syscall.EACCES}
}

func TestStaticHandler_Get(t *testing.T) {
	h := newStaticHandler(t, map[string]string{"index.html": "hi"})

	resp := h.ServeRequest(&protocol.HttpRequest{Method: "GET", URI: "/", Version: "HTTP/1.1"})
	if resp.StatusCode != 200 || resp.StatusMessage != "OK" {
		t.Errorf("Expected 200 OK, got %d %s", resp.StatusCode, resp.StatusMessage)
	}
	if resp.Headers["Content-Type"] != "text/html" {
		t.Errorf("Expected text/html, got %q", resp.Headers["Content-Type"])
	}
	if string(resp.Body) != "hi" {
		t.Errorf("Expected body hi, got %q", resp.Body)
	}
}

func TestStaticHandler_NotFound(t *testing.T) {
	h := newStaticHandler(t, nil)

	resp := h.ServeRequest(&protocol.HttpRequest{Method: "GET", URI: "/missing.html", Version: "HTTP/1.1"})
	if resp.StatusCode != 404 || resp.StatusMessage != "Not Found" {
		t.Errorf("Expected 404 Not Found, got %d %s", resp.StatusCode, resp.StatusMessage)
	}
	if string(resp.Body) != resolver.NotFoundBody {
		t.Errorf("Expected %q, got %q", resolver.NotFoundBody, resp.Body)
	}
}

func TestStaticHandler_NonGet(t *testing.T) {
	h := newStaticHandler(t, map[string]string{"index.html": "hi"})

	for _, method := range []string{"POST", "PUT", "DELETE", "HEAD", "get"} {
		resp := h.ServeRequest(&protocol.HttpRequest{Method: method, URI: "/", Version: "HTTP/1.1"})
		if resp.StatusCode != 501 {
			t.Errorf("%s: expected 501, got %d", method, resp.StatusCode)
		}
		if string(resp.Body) != "<h1>501 Not Implemented</h1>" {
			t.Errorf("%s: unexpected body %q", method, resp.Body)
		}
		if _, ok := resp.Headers["Content-Type"]; ok {
			t.Errorf("%s: 501 carries no Content-Type", method)
		}
	}
}

func TestStaticHandler_LogsReadFailure(t *testing.T) {
	var logs bytes.Buffer
	cfg := config.New(map[string]string{
		config.KeyRoot:         "/srv",
		config.KeyErrorPage404: "/404.html",
	})
	h := NewStaticHandler(resolver.New(cfg, deniedReader{}), zerolog.New(&logs).Level(zerolog.DebugLevel))

	resp := h.ServeRequest(&protocol.HttpRequest{Method: "GET", URI: "/a.html", Version: "HTTP/1.1"})
	if resp.StatusCode != 404 {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}

	out := logs.String()
	if !strings.Contains(out, `"message":"file read failed"`) || !strings.Contains(out, "permission denied") {
		t.Errorf("Expected a read failure warning, got %s", out)
	}
	if !strings.Contains(out, `"path":"/srv/404.html"`) {
		t.Errorf("Expected the resolved path in the log, got %s", out)
	}
}
