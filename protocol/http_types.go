package protocol

// Supported request versions
const (
	Version10 = "HTTP/1.0"
	Version11 = "HTTP/1.1"
)

// ResponseVersion is written on every status line
const ResponseVersion = Version11

// MethodGet is the only retrieval method served
const MethodGet = "GET"

// Status codes produced by the server
const (
	StatusOK             = 200
	StatusBadRequest     = 400
	StatusNotFound       = 404
	StatusNotImplemented = 501
)

var statusText = map[int]string{
	StatusOK:             "OK",
	StatusBadRequest:     "Bad Request",
	StatusNotFound:       "Not Found",
	StatusNotImplemented: "Not Implemented",
}

// StatusText returns the reason phrase for code, or "" if unknown
func StatusText(code int) string {
	return statusText[code]
}

// HttpRequest is a parsed request. Header names are matched case-sensitively.
type HttpRequest struct {
	Method  string
	URI     string
	Version string
	Headers map[string]string
	Body    string
}

// Header returns the value stored under name, or "" if absent
func (r *HttpRequest) Header(name string) string {
	return r.Headers[name]
}

// HttpResponse is built incrementally and frozen by Serialize
type HttpResponse struct {
	StatusCode    int
	StatusMessage string
	Headers       map[string]string
	Body          []byte
}

// NewHttpResponse creates a 200 OK response with no headers and an empty body
func NewHttpResponse() *HttpResponse {
	return &HttpResponse{
		StatusCode:    StatusOK,
		StatusMessage: StatusText(StatusOK),
		Headers:       make(map[string]string),
	}
}

// SetStatus overwrites the status code and message
func (r *HttpResponse) SetStatus(code int, message string) {
	r.StatusCode = code
	r.StatusMessage = message
}

// SetHeader overwrites the header stored under name
func (r *HttpResponse) SetHeader(name, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[name] = value
}

// SetBody overwrites the body
func (r *HttpResponse) SetBody(body []byte) {
	r.Body = body
}
