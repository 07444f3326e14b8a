package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/brainlib/internal/library"
)

// Server identity reported to MCP clients.
const (
	ServerName    = "brain-library"
	ServerVersion = "1.0.0"
)

// Index is the part of the document index the server needs.
type Index interface {
	Search(query string) []library.Result
	Stats() library.Stats
}

// Server is the MCP server for brainlib. It answers search_documents calls
// from the document index.
type Server struct {
	mcp    *mcp.Server
	index  Index
	logger *slog.Logger
}

// NewServer creates a new MCP server over index.
func NewServer(index Index) (*Server, error) {
	if index == nil {
		return nil, errors.New("index is required")
	}

	s := &Server{
		index:  index,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, ServerVersion
}

// ListTools returns the static metadata of every tool.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        ToolSearchDocuments,
			Description: searchDocumentsDescription,
			InputSchema: searchDocumentsSchema(),
		},
	}
}

// CallTool invokes a tool by name with untyped arguments, validating them
// the same way a protocol request is validated.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (text string, err error) {
	switch name {
	case ToolSearchDocuments:
		query, err := queryArg(args)
		if err != nil {
			return "", err
		}
		return s.searchDocuments(ctx, query)
	default:
		return "", NewMethodNotFoundError(name)
	}
}

// searchDocuments runs one search. Panics are recovered and reported as
// internal errors so a bad request cannot take the server down.
func (s *Server) searchDocuments(ctx context.Context, query string) (text string, err error) {
	requestID := uuid.NewString()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool_panic",
				slog.String("request_id", requestID),
				slog.String("tool", ToolSearchDocuments),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			text, err = "", &MCPError{
				Code:    ErrCodeInternalError,
				Message: fmt.Sprintf("internal error (request %s)", requestID),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", MapError(err)
	}

	s.logger.Debug("search_started",
		slog.String("request_id", requestID),
		slog.String("query", query))

	results := s.index.Search(query)

	s.logger.Info("search_complete",
		slog.String("request_id", requestID),
		slog.Int("result_count", len(results)),
		slog.Duration("duration", time.Since(start)))

	return FormatResults(results), nil
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolSearchDocuments,
		Description: searchDocumentsDescription,
	}, s.mcpSearchHandler)
	s.logger.Debug("tool_registered", slog.String("name", ToolSearchDocuments))
}

// mcpSearchHandler is the MCP SDK handler for the search_documents tool.
// The SDK validates arguments against the input schema before calling it.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchDocumentsInput) (
	*mcp.CallToolResult,
	any,
	error,
) {
	text, err := s.searchDocuments(ctx, input.Query)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// Serve runs the server on the given transport until ctx is cancelled.
// addr is only used by the http transport.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	s.logger.Info("server_starting",
		slog.String("transport", transport),
		slog.String("addr", addr))

	var err error
	switch transport {
	case "stdio":
		err = s.mcp.Run(ctx, &mcp.StdioTransport{})
	case "http":
		err = s.ListenAndServe(ctx, addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, http)", transport)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server_stopped")
	return nil
}
