package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/brainlib/internal/library"
)

// StatsResourceURI identifies the read-only index statistics resource.
const StatsResourceURI = "brainlib://index/stats"

// registerResources registers the index statistics resource.
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        "index_stats",
		URI:         StatsResourceURI,
		Description: "Number of documents and chunks currently indexed",
		MIMEType:    "application/json",
	}, s.handleStatsResource)
}

func (s *Server) handleStatsResource(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	body, err := statsJSON(s.index.Stats())
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      StatsResourceURI,
			MIMEType: "application/json",
			Text:     body,
		}},
	}, nil
}

func statsJSON(stats library.Stats) (string, error) {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
