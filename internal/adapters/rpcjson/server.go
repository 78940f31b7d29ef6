// Package rpcjson serves admin commands as line-delimited JSON-RPC 2.0 over
// a unix socket readable only by the server's user.
package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/atvirokodosprendimai/portafolio/internal/application"
	"github.com/atvirokodosprendimai/portafolio/internal/domain"
	"go.uber.org/zap"
)

type Server struct {
	catalog  *application.CatalogService
	auth     *application.AuthService
	logger   *zap.Logger
	listener net.Listener
	path     string
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EntityInfo is the registry.list view of one entity.
type EntityInfo struct {
	Name     string   `json:"name"`
	Title    string   `json:"title"`
	Group    string   `json:"group"`
	Endpoint string   `json:"endpoint"`
	Segment  string   `json:"segment"`
	Key      []string `json:"key"`
	Search   string   `json:"search"`
	View     string   `json:"view,omitempty"`
}

func Start(path string, catalog *application.CatalogService, auth *application.AuthService, logger *zap.Logger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{catalog: catalog, auth: auth, logger: logger.Named("rpc"), listener: ln, path: path}
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32600, Message: "invalid request"}, ID: req.ID}
	}
	s.logger.Debug("rpc call", zap.String("method", req.Method))

	switch req.Method {
	case "registry.list":
		entities := s.catalog.Registry().All()
		out := make([]EntityInfo, 0, len(entities))
		for _, def := range entities {
			out = append(out, EntityInfo{
				Name:     def.Name,
				Title:    def.Title,
				Group:    def.Group,
				Endpoint: def.Endpoint,
				Segment:  def.Key.Segment,
				Key:      def.Key.Fields,
				Search:   string(def.Search),
				View:     def.View,
			})
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "records.list":
		var p struct {
			Entity string `json:"entity"`
			Q      string `json:"q"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		def, err := s.catalog.Entity(p.Entity)
		if err != nil {
			return appError(req.ID, err)
		}
		page := s.catalog.Table(ctx, def, p.Q)
		if !page.Notice.Empty() {
			return internalError(req.ID, errors.New(page.Notice.Text))
		}
		return response{JSONRPC: "2.0", Result: page.Records, ID: req.ID}
	case "audit.list":
		var p struct {
			Limit int `json:"limit"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.catalog.ListAuditLogs(ctx, p.Limit)
		if err != nil {
			return internalError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "sessions.purge":
		n, err := s.auth.PurgeExpiredSessions(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		s.logger.Info("expired sessions purged", zap.Int64("count", n))
		return response{JSONRPC: "2.0", Result: map[string]any{"deleted": n}, ID: req.ID}
	case "backend.ping":
		return response{JSONRPC: "2.0", Result: s.catalog.Ping(ctx), ID: req.ID}
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32601, Message: "method not found"}, ID: req.ID}
	}
}

// decodeParams accepts absent params as the zero value.
func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	return json.Unmarshal(raw, out) == nil
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: -32602, Message: "invalid params"}, ID: id}
}

func appError(id any, err error) response {
	code := 40000
	if errors.Is(err, domain.ErrUnknownEntity) {
		code = 40400
	}
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: err.Error()}, ID: id}
}

func internalError(id any, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 50000, Message: fmt.Sprintf("internal error: %v", err)}, ID: id}
}
