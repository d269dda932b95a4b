package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codescope/internal/config"
	"codescope/internal/index"
	"codescope/internal/search"
	"codescope/pkg/version"
)

// Server is the MCP server for codescope.
// It bridges AI clients (Claude Code, Cursor) with the code index.
type Server struct {
	mcp     *mcp.Server
	indexer *index.Indexer
	config  *config.Config
	logger  *slog.Logger

	// File resource URIs already advertised, so a project switch
	// never registers the same URI twice.
	mu        sync.Mutex
	resources map[string]bool
}

// ToolInfo describes one registered tool for listings.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server around an indexer.
// If the indexer already has a project bound (the serve command restores
// a cached snapshot first), its files are advertised as resources
// immediately.
func NewServer(indexer *index.Indexer, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if indexer == nil {
		return nil, errors.New("indexer is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		indexer:   indexer,
		config:    cfg,
		logger:    logger,
		resources: make(map[string]bool),
	}

	// Capabilities are inferred from registered tools/resources.
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "codescope",
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	s.registerFileResources()

	return s, nil
}

// MCPServer exposes the underlying SDK server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info reports the advertised server name and version.
func (s *Server) Info() (name, ver string) {
	return "codescope", version.Version
}

// ListTools returns the server's tool catalog.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "set_project_path",
			Description: "Set the project path and build the initial index",
		},
		{
			Name:        "find_files",
			Description: "Find files matching a glob pattern",
		},
		{
			Name:        "search_code",
			Description: "Search for code patterns in the project using the best available search tool (ugrep, ripgrep, ag, or grep)",
		},
		{
			Name:        "analyse_file",
			Description: "Get detailed analysis of a specific file: symbols, imports, and metadata",
		},
		{
			Name:        "get_project_structure",
			Description: "Get the project directory structure as a tree",
		},
		{
			Name:        "get_statistics",
			Description: "Get comprehensive project statistics",
		},
		{
			Name:        "refresh_index",
			Description: "Manually refresh the project index",
		},
		{
			Name:        "find_symbol_usage",
			Description: "Find where a symbol (function, class, method) is used",
		},
		{
			Name:        "find_functions_calling",
			Description: "Find all functions that call a specific function",
		},
		{
			Name:        "get_file_imports",
			Description: "Get all imports for a specific file",
		},
		{
			Name:        "search_in_file",
			Description: "Search for patterns within a specific file",
		},
	}
}

// registerTools binds the catalog to the SDK handlers.
func (s *Server) registerTools() {
	tools := s.ListTools()
	byName := make(map[string]*mcp.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = &mcp.Tool{Name: t.Name, Description: t.Description}
	}

	mcp.AddTool(s.mcp, byName["set_project_path"], s.mcpSetProjectPathHandler)
	mcp.AddTool(s.mcp, byName["find_files"], s.mcpFindFilesHandler)
	mcp.AddTool(s.mcp, byName["search_code"], s.mcpSearchCodeHandler)
	mcp.AddTool(s.mcp, byName["analyse_file"], s.mcpAnalyseFileHandler)
	mcp.AddTool(s.mcp, byName["get_project_structure"], s.mcpStructureHandler)
	mcp.AddTool(s.mcp, byName["get_statistics"], s.mcpStatisticsHandler)
	mcp.AddTool(s.mcp, byName["refresh_index"], s.mcpRefreshIndexHandler)
	mcp.AddTool(s.mcp, byName["find_symbol_usage"], s.mcpSymbolUsageHandler)
	mcp.AddTool(s.mcp, byName["find_functions_calling"], s.mcpFunctionsCallingHandler)
	mcp.AddTool(s.mcp, byName["get_file_imports"], s.mcpFileImportsHandler)
	mcp.AddTool(s.mcp, byName["search_in_file"], s.mcpSearchInFileHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", len(tools)))
}

// trace logs a correlated "<tool> started" event and returns a done
// function that logs completion or failure with the elapsed time.
func (s *Server) trace(tool string, attrs ...any) func(error, ...any) {
	id := newRequestID()
	start := time.Now()
	s.logger.Info(tool+" started", append([]any{slog.String("request_id", id)}, attrs...)...)

	return func(err error, extra ...any) {
		base := []any{
			slog.String("request_id", id),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			s.logger.Error(tool+" failed", append(base, slog.String("error", err.Error()))...)
			return
		}
		s.logger.Info(tool+" completed", append(base, extra...)...)
	}
}

// mcpSetProjectPathHandler serves the set_project_path tool.
func (s *Server) mcpSetProjectPathHandler(ctx context.Context, _ *mcp.CallToolRequest, input SetProjectPathInput) (
	*mcp.CallToolResult,
	*index.BuildResult,
	error,
) {
	if input.Path == "" {
		return nil, nil, NewInvalidParamsError("path parameter is required and must be a non-empty string")
	}

	done := s.trace("set_project_path", slog.String("path", input.Path))
	result, err := s.indexer.SetProjectPath(ctx, input.Path)
	if err != nil {
		done(err)
		return nil, nil, MapError(err)
	}

	project := NewProjectDetector(s.indexer.ProjectRoot(), s.logger).Detect()
	s.registerFileResources()

	done(nil,
		slog.Int("file_count", result.FileCount),
		slog.String("project_name", project.Name),
		slog.String("project_type", project.Type))
	return nil, result, nil
}

// mcpFindFilesHandler serves the find_files tool.
func (s *Server) mcpFindFilesHandler(_ context.Context, _ *mcp.CallToolRequest, input FindFilesInput) (
	*mcp.CallToolResult,
	*index.FindFilesResult,
	error,
) {
	if input.Pattern == "" {
		return nil, nil, NewInvalidParamsError("pattern parameter is required and must be a non-empty string")
	}
	return nil, s.indexer.FindFiles(input.Pattern), nil
}

// mcpSearchCodeHandler serves the search_code tool.
func (s *Server) mcpSearchCodeHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchCodeInput) (
	*mcp.CallToolResult,
	*index.SearchResponse,
	error,
) {
	if input.Pattern == "" {
		return nil, nil, NewInvalidParamsError("pattern parameter is required and must be a non-empty string")
	}

	// Absent means case-sensitive, matching the documented default.
	caseSensitive := true
	if input.CaseSensitive != nil {
		caseSensitive = *input.CaseSensitive
	}

	done := s.trace("search_code", slog.String("pattern", input.Pattern))
	result, err := s.indexer.SearchCode(ctx, &search.Query{
		Pattern:       input.Pattern,
		CaseSensitive: caseSensitive,
		ContextLines:  input.ContextLines,
		FilePattern:   input.FileGlob,
		Fuzzy:         input.Fuzzy,
		Regex:         input.Regex,
		MaxLineLength: input.MaxLineLength,
	})
	if err != nil {
		done(err)
		return nil, nil, MapError(err)
	}

	done(nil, slog.Int("total_matches", result.TotalMatches))
	return nil, result, nil
}

// mcpAnalyseFileHandler serves the analyse_file tool.
func (s *Server) mcpAnalyseFileHandler(_ context.Context, _ *mcp.CallToolRequest, input AnalyseFileInput) (
	*mcp.CallToolResult,
	*index.AnalysisResult,
	error,
) {
	if input.FilePath == "" {
		return nil, nil, NewInvalidParamsError("file_path parameter is required and must be a non-empty string")
	}
	result, err := s.indexer.AnalyseFile(input.FilePath)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, result, nil
}

// mcpStructureHandler serves the get_project_structure tool.
func (s *Server) mcpStructureHandler(_ context.Context, _ *mcp.CallToolRequest, _ StructureInput) (
	*mcp.CallToolResult,
	*index.StructureResult,
	error,
) {
	result, err := s.indexer.ProjectStructure()
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, result, nil
}

// mcpStatisticsHandler serves the get_statistics tool.
func (s *Server) mcpStatisticsHandler(_ context.Context, _ *mcp.CallToolRequest, _ StatisticsInput) (
	*mcp.CallToolResult,
	*index.Statistics,
	error,
) {
	return nil, s.indexer.GetStatistics(), nil
}

// mcpRefreshIndexHandler serves the refresh_index tool.
func (s *Server) mcpRefreshIndexHandler(ctx context.Context, _ *mcp.CallToolRequest, _ RefreshIndexInput) (
	*mcp.CallToolResult,
	*index.BuildResult,
	error,
) {
	done := s.trace("refresh_index")
	result, err := s.indexer.RefreshIndex(ctx)
	if err != nil {
		done(err)
		return nil, nil, MapError(err)
	}

	s.registerFileResources()
	done(nil, slog.Int("file_count", result.FileCount))
	return nil, result, nil
}

// mcpSymbolUsageHandler serves the find_symbol_usage tool.
func (s *Server) mcpSymbolUsageHandler(_ context.Context, _ *mcp.CallToolRequest, input SymbolUsageInput) (
	*mcp.CallToolResult,
	*index.UsageResult,
	error,
) {
	if input.SymbolName == "" {
		return nil, nil, NewInvalidParamsError("symbol_name parameter is required and must be a non-empty string")
	}
	return nil, s.indexer.FindSymbolUsage(input.SymbolName, input.SymbolType), nil
}

// mcpFunctionsCallingHandler serves the find_functions_calling tool.
func (s *Server) mcpFunctionsCallingHandler(_ context.Context, _ *mcp.CallToolRequest, input FunctionsCallingInput) (
	*mcp.CallToolResult,
	*index.CallersResult,
	error,
) {
	if input.FunctionName == "" {
		return nil, nil, NewInvalidParamsError("function_name parameter is required and must be a non-empty string")
	}
	return nil, s.indexer.FindFunctionsCalling(input.FunctionName), nil
}

// mcpFileImportsHandler serves the get_file_imports tool.
func (s *Server) mcpFileImportsHandler(_ context.Context, _ *mcp.CallToolRequest, input FileImportsInput) (
	*mcp.CallToolResult,
	*index.ImportsResult,
	error,
) {
	if input.FilePath == "" {
		return nil, nil, NewInvalidParamsError("file_path parameter is required and must be a non-empty string")
	}
	result, err := s.indexer.GetFileImports(input.FilePath)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, result, nil
}

// mcpSearchInFileHandler serves the search_in_file tool.
func (s *Server) mcpSearchInFileHandler(_ context.Context, _ *mcp.CallToolRequest, input SearchInFileInput) (
	*mcp.CallToolResult,
	*index.FileSearchResult,
	error,
) {
	if input.FilePath == "" {
		return nil, nil, NewInvalidParamsError("file_path parameter is required and must be a non-empty string")
	}
	if input.Pattern == "" {
		return nil, nil, NewInvalidParamsError("pattern parameter is required and must be a non-empty string")
	}
	result, err := s.indexer.SearchInFile(input.FilePath, input.Pattern, input.CaseSensitive, input.Regex)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, result, nil
}

// Serve runs the MCP server over the named transport until ctx ends.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("starting MCP server",
		slog.String("transport", transport),
		slog.String("cache_dir", s.indexer.CacheDir()))

	if transport != "stdio" {
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error",
			slog.String("error", err.Error()))
	} else {
		s.logger.Info("MCP server stopped gracefully")
	}
	return err
}

// Close shuts the indexer down: stops the watcher, saves the snapshot,
// releases the project lock. The MCP server itself stops when the run
// context is canceled.
func (s *Server) Close() error {
	return s.indexer.Shutdown(context.Background())
}

// newRequestID returns a short random hex ID for log correlation.
func newRequestID() string {
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
