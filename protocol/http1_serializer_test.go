package protocol

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func TestSerialize_StatusLineAndBody(t *testing.T) {
	resp := NewHttpResponse()
	resp.SetHeader("Content-Type", "text/html")
	resp.SetBody([]byte("hi"))

	got := string(Serialize(resp))
	want := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\nContent-Type: text/html\r\n\r\nhi"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSerialize_RoundTrip(t *testing.T) {
	bodies := [][]byte{
		nil,
		[]byte("plain"),
		[]byte("line1\r\n\r\nline2"),
		{0x00, 0xff, 0x10, '\r', '\n'},
		bytes.Repeat([]byte("x"), 70000),
	}

	for _, body := range bodies {
		resp := NewHttpResponse()
		resp.SetStatus(StatusNotFound, StatusText(StatusNotFound))
		resp.SetHeader("Content-Type", "text/plain")
		resp.SetHeader("X-Custom", "v")
		resp.SetBody(body)

		wire := Serialize(resp)
		head, rest, ok := bytes.Cut(wire, []byte("\r\n\r\n"))
		if !ok {
			t.Fatalf("No header terminator in %q", wire)
		}
		if !bytes.Equal(rest, body) {
			t.Errorf("Body changed across serialization: expected %d bytes, got %d", len(body), len(rest))
		}

		lines := strings.Split(string(head), "\r\n")
		if lines[0] != "HTTP/1.1 404 Not Found" {
			t.Errorf("Unexpected status line %q", lines[0])
		}
		wantHeaders := []string{
			"Content-Length: " + strconv.Itoa(len(body)),
			"Content-Type: text/plain",
			"X-Custom: v",
		}
		if strings.Join(lines[1:], "|") != strings.Join(wantHeaders, "|") {
			t.Errorf("Expected headers %v, got %v", wantHeaders, lines[1:])
		}
	}
}

func TestSerialize_ContentLengthOverridesCaller(t *testing.T) {
	resp := NewHttpResponse()
	resp.SetHeader("Content-Length", "999")
	resp.SetBody([]byte("abc"))

	wire := string(Serialize(resp))
	if !strings.Contains(wire, "Content-Length: 3\r\n") {
		t.Errorf("Expected Content-Length 3, got %q", wire)
	}
	if strings.Contains(wire, "999") {
		t.Errorf("Caller Content-Length leaked into %q", wire)
	}
}

func TestSerialize_HeadersSortedByName(t *testing.T) {
	resp := NewHttpResponse()
	resp.SetHeader("b", "2")
	resp.SetHeader("A", "1")
	resp.SetHeader("a", "3")

	wire := string(Serialize(resp))
	head, _, _ := strings.Cut(wire, "\r\n\r\n")
	lines := strings.Split(head, "\r\n")[1:]
	want := []string{"A: 1", "Content-Length: 0", "a: 3", "b: 2"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("Expected %v, got %v", want, lines)
	}
}

func TestSetters_LastWriteWins(t *testing.T) {
	resp := &HttpResponse{}
	resp.SetStatus(StatusOK, "OK")
	resp.SetStatus(StatusNotImplemented, "Not Implemented")
	resp.SetHeader("X", "1")
	resp.SetHeader("X", "2")
	resp.SetBody([]byte("first"))
	resp.SetBody([]byte("second"))

	if resp.StatusCode != StatusNotImplemented || resp.StatusMessage != "Not Implemented" {
		t.Errorf("Unexpected status %d %s", resp.StatusCode, resp.StatusMessage)
	}
	if resp.Headers["X"] != "2" {
		t.Errorf("Expected header 2, got %q", resp.Headers["X"])
	}
	if string(resp.Body) != "second" {
		t.Errorf("Expected body second, got %q", resp.Body)
	}
}

func TestBadRequest(t *testing.T) {
	got := string(BadRequest())
	want := "HTTP/1.1 400 Bad Request\r\nContent-Length: 24\r\n\r\n<h1>400 Bad Request</h1>"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestStatusText(t *testing.T) {
	if StatusText(StatusNotImplemented) != "Not Implemented" {
		t.Errorf("Unexpected text %q", StatusText(StatusNotImplemented))
	}
	if StatusText(299) != "" {
		t.Errorf("Unknown code should have empty text")
	}
}
