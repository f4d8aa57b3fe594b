// ABOUTME: MCP resource definitions
// ABOUTME: Provides a read-only view of every site ledger for AI agents

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SitesResourceURI identifies the all-sites ledger resource.
const SitesResourceURI = "colony://sites"

func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		Name:        SitesResourceURI,
		Description: "All construction sites with their commodity requirements and deliveries",
		URI:         SitesResourceURI,
		MIMEType:    "application/json",
	}, s.handleSitesResource)
}

// SiteLedgerOutput is one site with its rows.
type SiteLedgerOutput struct {
	Name         string              `json:"name"`
	Requirements []RequirementOutput `json:"requirements"`
}

// SitesResourceOutput is the payload of colony://sites.
type SitesResourceOutput struct {
	Sites []SiteLedgerOutput `json:"sites"`
	Count int                `json:"count"`
}

func (s *Server) handleSitesResource(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	sites, err := s.ledger.ListSites()
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}

	output := SitesResourceOutput{Sites: make([]SiteLedgerOutput, 0, len(sites))}
	for _, site := range sites {
		reqs, err := s.ledger.FetchDeliveries(site)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch deliveries for '%s': %w", site, err)
		}
		output.Sites = append(output.Sites, SiteLedgerOutput{
			Name:         site,
			Requirements: toRequirementOutputs(reqs),
		})
	}
	output.Count = len(output.Sites)

	jsonBytes, _ := json.MarshalIndent(output, "", "  ") //nolint:errchkjson // output is always serializable

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      SitesResourceURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		},
	}, nil
}
