/*
Package mcp exposes the recommendation engine as an MCP server over stdio.

Tools:
  - video_recommend: top five videos for a keyword, best first with a score
  - video_search: full-text search with count and sort
  - catalog_stats: size, maxima and category distribution of the catalog
*/
package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/khanglvm/vidrank/internal/app"
	"github.com/khanglvm/vidrank/internal/catalog"
	"github.com/khanglvm/vidrank/internal/logging"
	"github.com/khanglvm/vidrank/internal/recommend"
	"github.com/khanglvm/vidrank/internal/search"
	"github.com/khanglvm/vidrank/internal/version"
)

// ProtocolVersion is the MCP revision this server speaks.
const ProtocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolError      = -32000
)

// Service is what the tools query. *app.App satisfies it.
type Service interface {
	Recommend(keyword string) (recommend.Result, error)
	Search(q string, opts search.Options) ([]search.Hit, error)
	Stats() (catalog.Stats, *app.Snapshot, error)
}

// Server is the vidrank MCP server.
type Server struct {
	svc      Service
	validate *validator.Validate

	outMu sync.Mutex
	out   io.Writer
}

// NewServer creates a server answering from svc.
func NewServer(svc Service) *Server {
	return &Server{
		svc:      svc,
		validate: validator.New(),
		out:      os.Stdout,
	}
}

// MCPRequest represents an incoming MCP JSON-RPC request.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing MCP JSON-RPC response.
type MCPResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *MCPError `json:"error,omitempty"`
}

// MCPError represents an MCP error.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Run serves stdin until it closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads line-delimited requests from in and writes responses to out.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.outMu.Lock()
	s.out = out
	s.outMu.Unlock()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case line := <-lines:
			if len(line) == 0 {
				continue
			}
			if resp := s.handleRequest(line); resp != nil {
				s.sendResponse(resp)
			}
		}
	}
}

// handleRequest processes one request. Notifications get no response.
func (s *Server) handleRequest(data []byte) *MCPResponse {
	var req MCPRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(nil, codeParseError, fmt.Sprintf("invalid JSON-RPC request: %v", err))
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(&req)
	case "tools/list":
		return s.handleToolsList(&req)
	case "tools/call":
		return s.handleToolsCall(&req)
	case "ping":
		return &MCPResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{}}
	}

	if req.ID == nil {
		// notifications/initialized and friends.
		return nil
	}
	return errorResponse(req.ID, codeMethodNotFound, "Method not found")
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    "vidrank",
				"version": version.Version,
			},
		},
	}
}

func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  map[string]any{"tools": toolDefinitions()},
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type recommendArgs struct {
	Keyword string `json:"keyword" validate:"required,max=200"`
}

type searchArgs struct {
	Query string `json:"query" validate:"required,max=200"`
	Count int    `json:"count" validate:"omitempty,min=1,max=50"`
	Sort  string `json:"sort" validate:"omitempty,oneof=relevance score views likes recent"`
}

func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("invalid params: %v", err))
	}

	var (
		result any
		err    error
	)
	switch params.Name {
	case "video_recommend":
		var args recommendArgs
		if err := s.decodeArgs(params.Arguments, &args); err != nil {
			return errorResponse(req.ID, codeInvalidParams, err.Error())
		}
		result, err = s.svc.Recommend(args.Keyword)

	case "video_search":
		var args searchArgs
		if err := s.decodeArgs(params.Arguments, &args); err != nil {
			return errorResponse(req.ID, codeInvalidParams, err.Error())
		}
		result, err = s.svc.Search(args.Query, search.Options{Count: args.Count, Sort: search.Sort(args.Sort)})

	case "catalog_stats":
		result, err = s.execCatalogStats()

	default:
		return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name))
	}

	if err != nil {
		log := logging.Component("mcp")
		log.Warn().Err(err).Str("tool", params.Name).Msg("tool call failed")
		return errorResponse(req.ID, codeToolError, err.Error())
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errorResponse(req.ID, codeToolError, fmt.Sprintf("failed to encode result: %v", err))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": string(text)},
			},
		},
	}
}

func (s *Server) decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if err := s.validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type statsResult struct {
	catalog.Stats
	Source string `json:"source"`
}

func (s *Server) execCatalogStats() (any, error) {
	stats, snap, err := s.svc.Stats()
	if err != nil {
		return nil, err
	}
	return statsResult{Stats: stats, Source: snap.Source}, nil
}

// sendResponse writes a JSON-RPC response line.
func (s *Server) sendResponse(resp *MCPResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		log := logging.Component("mcp")
		log.Error().Err(err).Msg("failed to encode response")
		return
	}
	s.outMu.Lock()
	defer s.outMu.Unlock()
	s.out.Write(append(data, '\n'))
}

func errorResponse(id any, code int, msg string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: msg},
	}
}
