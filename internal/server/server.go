// Package server serves a generated site directory over HTTP for local
// preview.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Config configures a preview server.
type Config struct {
	// Root is the directory to serve.
	Root string

	// Addr is the listen address, e.g. ":8000".
	Addr string

	// Log receives startup and request lines. Nil discards them.
	Log io.Writer

	// NoCache adds headers that stop browsers caching previews.
	NoCache bool
}

// Handler returns the static file handler for root. It lists directories,
// serves files with their MIME type, and falls back to "<path>.html" for
// extensionless paths that do not exist. Directories are served through
// their index.html by http.FileServer.
func Handler(root string, noCache bool) http.Handler {
	fs := http.FileServer(http.Dir(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if resolved, ok := resolve(root, r.URL.Path); ok && resolved != r.URL.Path {
			r2 := r.Clone(r.Context())
			r2.URL.Path = resolved
			r = r2
		}
		if noCache {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		}
		fs.ServeHTTP(w, r)
	})
}

// resolve maps a request path onto an existing file below root.
func resolve(root, urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	if exists(root, clean) {
		return urlPath, true
	}
	if strings.HasSuffix(urlPath, "/") || path.Ext(clean) != "" {
		return urlPath, false
	}
	if exists(root, clean+".html") {
		return clean + ".html", true
	}
	return urlPath, false
}

func exists(root, urlPath string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(urlPath)))
	return err == nil
}

// Server is a preview server bound to a reusable listener.
type Server struct {
	config   Config
	listener net.Listener
	http     *http.Server
}

// Listen binds the configured address with SO_REUSEADDR set, so a restart
// right after a previous server stopped does not fail with "address
// already in use".
func Listen(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Log == nil {
		cfg.Log = io.Discard
	}
	if fi, err := os.Stat(cfg.Root); err != nil {
		return nil, fmt.Errorf("serve %s: %w", cfg.Root, err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("serve %s: not a directory", cfg.Root)
	}

	lc := net.ListenConfig{Control: reuseAddr}
	ln, err := lc.Listen(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}

	return &Server{
		config:   cfg,
		listener: ln,
		http: &http.Server{
			Handler:           Handler(cfg.Root, cfg.NoCache),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve handles requests until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	fmt.Fprintf(s.config.Log, "Serving %s on port %d ...\n", s.config.Root, s.Addr().(*net.TCPAddr).Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		if err := s.http.Close(); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// Close stops the server immediately.
func (s *Server) Close() error {
	return s.http.Close()
}

// ListenAndServe binds cfg.Addr and serves until ctx is cancelled.
func ListenAndServe(ctx context.Context, cfg Config) error {
	s, err := Listen(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}
