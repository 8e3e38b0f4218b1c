package protocol

import (
	"bytes"
	"sort"
	"strconv"
)

const contentLengthKey = "Content-Length"

var badRequestBody = []byte("<h1>400 Bad Request</h1>")

// Serialize sets Content-Length from the body and renders the response.
// Headers are written in sorted name order.
func Serialize(resp *HttpResponse) []byte {
	resp.SetHeader(contentLengthKey, strconv.Itoa(len(resp.Body)))

	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.Grow(64 + len(resp.Body) + 32*len(names))

	buf.WriteString(ResponseVersion)
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(resp.StatusCode))
	buf.WriteByte(' ')
	buf.WriteString(resp.StatusMessage)
	buf.WriteString("\r\n")

	for _, name := range names {
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(resp.Headers[name])
		buf.WriteString("\r\n")
	}

	buf.WriteString("\r\n")
	buf.Write(resp.Body)
	return buf.Bytes()
}

// BadRequest returns the fixed payload sent for unparseable requests
func BadRequest() []byte {
	resp := NewHttpResponse()
	resp.SetStatus(StatusBadRequest, StatusText(StatusBadRequest))
	resp.SetBody(badRequestBody)
	return Serialize(resp)
}
