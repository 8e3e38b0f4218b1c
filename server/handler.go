package server

import (
	"github.com/rs/zerolog"

	"github.com/nczempin/httpd-go/protocol"
	"github.com/nczempin/httpd-go/resolver"
)

var notImplementedBody = []byte("<h1>501 Not Implemented</h1>")

// Handler builds the response for a parsed request
type Handler interface {
	ServeRequest(req *protocol.HttpRequest) *protocol.HttpResponse
}

// StaticHandler serves GET from the filesystem and answers 501 otherwise
type StaticHandler struct {
	resolver *resolver.Resolver
	log      zerolog.Logger
}

// NewStaticHandler creates a StaticHandler
func NewStaticHandler(res *resolver.Resolver, log zerolog.Logger) *StaticHandler {
	return &StaticHandler{resolver: res, log: log}
}

// ServeRequest implements Handler
func (h *StaticHandler) ServeRequest(req *protocol.HttpRequest) *protocol.HttpResponse {
	resp := protocol.NewHttpResponse()

	if req.Method != protocol.MethodGet {
		resp.SetStatus(protocol.StatusNotImplemented, protocol.StatusText(protocol.StatusNotImplemented))
		resp.SetBody(notImplementedBody)
		return resp
	}

	res := h.resolver.Resolve(req.URI)
	if res.Err != nil {
		h.log.Warn().Err(res.Err).Str("uri", req.URI).Msg("file read failed")
	}
	h.log.Debug().Str("uri", req.URI).Str("path", res.Path).Int("status", res.Status).Msg("resolved")

	resp.SetStatus(res.Status, protocol.StatusText(res.Status))
	resp.SetHeader("Content-Type", res.ContentType)
	resp.SetBody(res.Body)
	return resp
}
