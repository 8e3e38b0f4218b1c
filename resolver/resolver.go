package resolver

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/nczempin/httpd-go/config"
	"github.com/nczempin/httpd-go/errors"
	"github.com/nczempin/httpd-go/protocol"
)

// NotFoundBody is served when neither the target nor the error page exists
const NotFoundBody = "<h1>404 Not Found</h1>"

const defaultContentType = "text/plain"

var contentTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".txt":  "text/plain",
}

// Getter is the read side of the config store
type Getter interface {
	Get(key string) string
}

// FileReader loads a whole file. Reads are blocking.
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// OSReader reads from the local filesystem
type OSReader struct{}

// ReadFile implements FileReader
func (OSReader) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// Resource is the outcome of resolving a request URI. Err holds the first
// read failure that was not a plain missing file; the resource is still
// served as not found.
type Resource struct {
	Status      int
	Body        []byte
	ContentType string
	Path        string
	Err         error
}

// Resolver maps request URIs onto files below the configured root
type Resolver struct {
	cfg    Getter
	reader FileReader
}

// New creates a Resolver reading files through reader.
// A nil reader means OSReader.
func New(cfg Getter, reader FileReader) *Resolver {
	if reader == nil {
		reader = OSReader{}
	}
	return &Resolver{cfg: cfg, reader: reader}
}

// Resolve returns the file for uri, falling back to the configured error
// page and then to NotFoundBody. Empty files count as missing.
func (r *Resolver) Resolve(uri string) Resource {
	root := r.cfg.Get(config.KeyRoot)

	target := r.TargetPath(uri)
	body, readErr := r.read(target)
	if len(body) > 0 {
		return Resource{
			Status:      protocol.StatusOK,
			Body:        body,
			ContentType: ContentType(target),
			Path:        target,
		}
	}

	errorPage := root + r.cfg.Get(config.KeyErrorPage404)
	body, err := r.read(errorPage)
	if readErr == nil {
		readErr = err
	}
	if len(body) == 0 {
		body = []byte(NotFoundBody)
	}
	return Resource{
		Status:      protocol.StatusNotFound,
		Body:        body,
		ContentType: ContentType(errorPage),
		Path:        errorPage,
		Err:         readErr,
	}
}

// TargetPath maps uri onto the filesystem. "/" becomes "/<index>", the
// query string is dropped and ".." cannot climb above root.
func (r *Resolver) TargetPath(uri string) string {
	root := r.cfg.Get(config.KeyRoot)

	if i := strings.IndexByte(uri, '?'); i >= 0 {
		uri = uri[:i]
	}
	if uri == "/" {
		uri = "/" + r.cfg.Get(config.KeyIndex)
	}
	return root + path.Clean("/"+uri)
}

// read returns nil for a missing file and a resource error for any other
// failure
func (r *Resolver) read(name string) ([]byte, error) {
	body, err := r.reader.ReadFile(name)
	if err == nil {
		return body, nil
	}
	if missing(err) {
		return nil, nil
	}
	return nil, errors.NewResourceError("failed to read "+name, err)
}

func missing(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist) ||
		stderrors.Is(err, syscall.ENOTDIR) ||
		stderrors.Is(err, syscall.EISDIR)
}

// ContentType maps the extension of name to a MIME type
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return defaultContentType
}
