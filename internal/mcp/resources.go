package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	scerrors "codescope/internal/errors"
	"codescope/internal/index"
)

// MaxResourceSize is the maximum file size served as a resource (1MB).
const MaxResourceSize = 1 << 20

// maxFileResources caps how many indexed files are advertised.
const maxFileResources = 1000

// statisticsOutput is the JSON shape of the statistics resource.
type statisticsOutput struct {
	Project ProjectInfo       `json:"project"`
	Stats   *index.Statistics `json:"stats"`
}

// registerResources registers the always-available JSON resources. Their
// handlers read the indexer live, so the content tracks the current
// project without re-registration.
func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "statistics",
			URI:         "codescope://statistics",
			Description: "Project metadata and live index statistics",
			MIMEType:    "application/json",
		},
		s.handleStatisticsResource,
	)
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "structure",
			URI:         "codescope://structure",
			Description: "Project directory tree as seen by the index",
			MIMEType:    "application/json",
		},
		s.handleStructureResource,
	)
}

// registerFileResources advertises indexed files as file:// resources.
// Called after every successful build; URIs registered for an earlier
// project stay listed, and reads through them fail against the current
// index instead of serving stale content.
func (s *Server) registerFileResources() {
	if s.indexer.ProjectRoot() == "" {
		return
	}
	files := s.indexer.FindFiles("*")

	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, relPath := range files.Files {
		if len(s.resources) >= maxFileResources {
			break
		}
		uri := "file://" + relPath
		if s.resources[uri] {
			continue
		}
		s.resources[uri] = true

		s.mcp.AddResource(
			&mcp.Resource{
				Name:        path.Base(relPath),
				URI:         uri,
				Description: relPath,
				MIMEType:    MimeTypeForPath(relPath),
			},
			s.makeFileHandler(relPath),
		)
		added++
	}

	if added > 0 {
		s.logger.Info("file resources registered", "count", added)
	}
}

// makeFileHandler creates a read handler for a specific indexed file.
func (s *Server) makeFileHandler(relPath string) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return s.readFileResource(ctx, relPath)
	}
}

// readFileResource reads an indexed file's content from disk.
// The path must still be in the current index; resources left over from
// a previous project fail here.
func (s *Server) readFileResource(_ context.Context, relPath string) (*mcp.ReadResourceResult, error) {
	if !isValidPath(relPath) {
		return nil, NewInvalidParamsError(fmt.Sprintf("invalid path: %s", relPath))
	}

	root := s.indexer.ProjectRoot()
	if root == "" {
		return nil, MapError(scerrors.NoProjectSet())
	}
	if _, err := s.indexer.AnalyseFile(relPath); err != nil {
		return nil, MapError(err)
	}

	fullPath := filepath.Join(root, filepath.FromSlash(relPath))

	// The file may have grown past the cap since it was indexed.
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, MapError(scerrors.New(scerrors.ErrCodeFileNotFound,
			fmt.Sprintf("file not found: %s", relPath), err))
	}
	if info.Size() > MaxResourceSize {
		return nil, &MCPError{
			Code:    ErrCodeFileTooLarge,
			Message: fmt.Sprintf("file too large: %d bytes (max %d)", info.Size(), MaxResourceSize),
		}
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, MapError(scerrors.New(scerrors.ErrCodeFileNotFound,
			fmt.Sprintf("file not found: %s", relPath), err))
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      "file://" + relPath,
				MIMEType: MimeTypeForPath(relPath),
				Text:     string(content),
			},
		},
	}, nil
}

// handleStatisticsResource serves project metadata plus index statistics.
func (s *Server) handleStatisticsResource(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	output := statisticsOutput{Stats: s.indexer.GetStatistics()}
	if root := s.indexer.ProjectRoot(); root != "" {
		output.Project = *NewProjectDetector(root, s.logger).Detect()
	}
	return jsonResource("codescope://statistics", output)
}

// handleStructureResource serves the indexed directory tree.
func (s *Server) handleStructureResource(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	result, err := s.indexer.ProjectStructure()
	if err != nil {
		return nil, MapError(err)
	}
	return jsonResource("codescope://structure", result)
}

// jsonResource marshals v as an indented application/json resource.
func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}

// isValidPath rejects paths that could escape the project root:
// absolute paths (including Windows drive letters) and anything that
// climbs out through "..".
func isValidPath(p string) bool {
	if p == "" || filepath.IsAbs(p) {
		return false
	}
	if len(p) >= 2 && p[1] == ':' {
		return false
	}
	cleaned := path.Clean(p)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}
