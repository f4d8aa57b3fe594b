// ABOUTME: MCP tool definitions and handlers
// ABOUTME: Exposes catalog and ledger operations to AI agents with input validation

package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/colony/internal/models"
	"github.com/harper/colony/internal/storage"
	"github.com/harper/colony/internal/ui"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	s.registerListSitesTool()
	s.registerAddSiteTool()
	s.registerRemoveSiteTool()
	s.registerListItemsTool()
	s.registerAddDeliveryTool()
	s.registerSetRequirementTool()
	s.registerRemoveRequirementTool()
	s.registerGetDeliveriesTool()
	s.registerClearDeliveriesTool()
}

var (
	siteProperty = map[string]interface{}{
		"type":        "string",
		"description": "Name of the construction site",
	}
	commodityProperty = map[string]interface{}{
		"type":        "string",
		"description": "Name of the commodity (e.g., 'Steel', 'Liquid oxygen')",
	}
)

// RequirementOutput is one ledger row with its derived remaining amount.
type RequirementOutput struct {
	Site              string `json:"site"`
	Commodity         string `json:"commodity"`
	AmountRequired    int64  `json:"amount_required"`
	QuantityDelivered int64  `json:"quantity_delivered"`
	Remaining         int64  `json:"remaining"`
	Complete          bool   `json:"complete"`
}

func toRequirementOutput(req *models.Requirement) RequirementOutput {
	return RequirementOutput{
		Site:              req.Site,
		Commodity:         req.Commodity,
		AmountRequired:    req.AmountRequired,
		QuantityDelivered: req.QuantityDelivered,
		Remaining:         req.Remaining(),
		Complete:          req.Complete(),
	}
}

func toRequirementOutputs(reqs []*models.Requirement) []RequirementOutput {
	out := make([]RequirementOutput, len(reqs))
	for i, req := range reqs {
		out[i] = toRequirementOutput(req)
	}
	return out
}

// SuccessOutput reports the outcome of a destructive tool.
type SuccessOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// findRow returns the row for commodity after a write.
func (s *Server) findRow(site, commodity string) (RequirementOutput, error) {
	reqs, err := s.ledger.FetchDeliveries(site)
	if err != nil {
		return RequirementOutput{}, fmt.Errorf("failed to fetch deliveries: %w", err)
	}
	for _, req := range reqs {
		if req.Commodity == commodity {
			return toRequirementOutput(req), nil
		}
	}
	return RequirementOutput{}, fmt.Errorf("row for '%s' at '%s' not found", commodity, site)
}

// siteError turns a missing-site error into a message agents can act on.
func siteError(site string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("site '%s' not found; add it with add_site first", site)
	}
	return err
}

// ListSitesInput is empty but required for type.
type ListSitesInput struct{}

// SiteSummaryOutput summarizes one site's ledger.
type SiteSummaryOutput struct {
	Name      string `json:"name"`
	Rows      int    `json:"rows"`
	Completed int    `json:"completed"`
	Progress  string `json:"progress"`
}

// ListSitesOutput defines output for list_sites tool.
type ListSitesOutput struct {
	Sites []SiteSummaryOutput `json:"sites"`
	Count int                 `json:"count"`
}

func (s *Server) registerListSitesTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_sites",
		Description: "List all construction sites with how many of their requirements are complete.",
		InputSchema: map[string]interface{}{
			"type": "object",
		},
	}, s.handleListSites)
}

func (s *Server) handleListSites(_ context.Context, _ *mcp.CallToolRequest, _ ListSitesInput) (*mcp.CallToolResult, ListSitesOutput, error) {
	sites, err := s.ledger.ListSites()
	if err != nil {
		return nil, ListSitesOutput{}, fmt.Errorf("failed to list sites: %w", err)
	}

	output := ListSitesOutput{Sites: make([]SiteSummaryOutput, 0, len(sites))}
	for _, site := range sites {
		reqs, err := s.ledger.FetchDeliveries(site)
		if err != nil {
			return nil, ListSitesOutput{}, fmt.Errorf("failed to fetch deliveries for '%s': %w", site, err)
		}
		required, delivered := ui.SiteTotals(reqs)
		summary := SiteSummaryOutput{
			Name:     site,
			Rows:     len(reqs),
			Progress: ui.FormatProgress(&models.Requirement{AmountRequired: required, QuantityDelivered: delivered}),
		}
		for _, req := range reqs {
			if req.Complete() {
				summary.Completed++
			}
		}
		output.Sites = append(output.Sites, summary)
	}
	output.Count = len(output.Sites)

	return jsonResult(output), output, nil
}

// SiteInput names a site.
type SiteInput struct {
	Site string `json:"site"`
}

// AddSiteOutput defines output for add_site tool.
type AddSiteOutput struct {
	Site    string `json:"site"`
	Created bool   `json:"created"`
}

func (s *Server) registerAddSiteTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_site",
		Description: "Register a construction site. Adding an existing site is a no-op.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"site": siteProperty,
			},
			"required": []string{"site"},
		},
	}, s.handleAddSite)
}

func (s *Server) handleAddSite(_ context.Context, _ *mcp.CallToolRequest, input SiteInput) (*mcp.CallToolResult, AddSiteOutput, error) {
	if err := models.ValidateName(input.Site); err != nil {
		return nil, AddSiteOutput{}, fmt.Errorf("invalid site: %w", err)
	}

	created, err := s.ledger.AddSite(input.Site)
	if err != nil {
		return nil, AddSiteOutput{}, fmt.Errorf("failed to add site: %w", err)
	}

	output := AddSiteOutput{Site: input.Site, Created: created}
	return jsonResult(output), output, nil
}

func (s *Server) registerRemoveSiteTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "remove_site",
		Description: "Remove a construction site and its entire ledger. This cannot be undone.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"site": siteProperty,
			},
			"required": []string{"site"},
		},
	}, s.handleRemoveSite)
}

func (s *Server) handleRemoveSite(_ context.Context, _ *mcp.CallToolRequest, input SiteInput) (*mcp.CallToolResult, SuccessOutput, error) {
	if err := models.ValidateName(input.Site); err != nil {
		return nil, SuccessOutput{}, fmt.Errorf("invalid site: %w", err)
	}

	if err := s.ledger.RemoveSite(input.Site); err != nil {
		return nil, SuccessOutput{}, fmt.Errorf("failed to remove site: %w", err)
	}

	output := SuccessOutput{
		Success: true,
		Message: fmt.Sprintf("Removed '%s' and its ledger", input.Site),
	}
	return jsonResult(output), output, nil
}

// ListItemsInput is empty but required for type.
type ListItemsInput struct{}

// ListItemsOutput defines output for list_items tool.
type ListItemsOutput struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

func (s *Server) registerListItemsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_items",
		Description: "List every known commodity name.",
		InputSchema: map[string]interface{}{
			"type": "object",
		},
	}, s.handleListItems)
}

func (s *Server) handleListItems(_ context.Context, _ *mcp.CallToolRequest, _ ListItemsInput) (*mcp.CallToolResult, ListItemsOutput, error) {
	items, err := s.ledger.ListItems()
	if err != nil {
		return nil, ListItemsOutput{}, fmt.Errorf("failed to list items: %w", err)
	}

	output := ListItemsOutput{Items: items, Count: len(items)}
	if output.Items == nil {
		output.Items = []string{}
	}
	return jsonResult(output), output, nil
}

// AddDeliveryInput defines input for add_delivery tool.
type AddDeliveryInput struct {
	Site      string `json:"site"`
	Commodity string `json:"commodity"`
	Quantity  int64  `json:"quantity"`
}

func (s *Server) registerAddDeliveryTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "add_delivery",
		Description: "Record a delivery of a commodity to a site. Quantities accumulate.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"site":      siteProperty,
				"commodity": commodityProperty,
				"quantity": map[string]interface{}{
					"type":        "integer",
					"description": "Units delivered (must be positive)",
				},
			},
			"required": []string{"site", "commodity", "quantity"},
		},
	}, s.handleAddDelivery)
}

func (s *Server) handleAddDelivery(_ context.Context, _ *mcp.CallToolRequest, input AddDeliveryInput) (*mcp.CallToolResult, RequirementOutput, error) {
	if err := models.ValidateName(input.Site); err != nil {
		return nil, RequirementOutput{}, fmt.Errorf("invalid site: %w", err)
	}
	if err := models.ValidateName(input.Commodity); err != nil {
		return nil, RequirementOutput{}, fmt.Errorf("invalid commodity: %w", err)
	}
	if input.Quantity <= 0 {
		return nil, RequirementOutput{}, fmt.Errorf("quantity must be positive, got %d", input.Quantity)
	}

	if err := s.ledger.AddDelivery(input.Site, input.Commodity, input.Quantity); err != nil {
		return nil, RequirementOutput{}, siteError(input.Site, err)
	}

	output, err := s.findRow(input.Site, input.Commodity)
	if err != nil {
		return nil, RequirementOutput{}, err
	}
	return jsonResult(output), output, nil
}

// SetRequirementInput defines input for set_requirement tool.
type SetRequirementInput struct {
	Site      string `json:"site"`
	Commodity string `json:"commodity"`
	Amount    int64  `json:"amount"`
}

func (s *Server) registerSetRequirementTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "set_requirement",
		Description: "Set how much of a commodity a site needs. Overwrites any previous amount without touching deliveries.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"site":      siteProperty,
				"commodity": commodityProperty,
				"amount": map[string]interface{}{
					"type":        "integer",
					"description": "Units required (zero or more)",
				},
			},
			"required": []string{"site", "commodity", "amount"},
		},
	}, s.handleSetRequirement)
}

func (s *Server) handleSetRequirement(_ context.Context, _ *mcp.CallToolRequest, input SetRequirementInput) (*mcp.CallToolResult, RequirementOutput, error) {
	if err := models.ValidateName(input.Site); err != nil {
		return nil, RequirementOutput{}, fmt.Errorf("invalid site: %w", err)
	}
	if err := models.ValidateName(input.Commodity); err != nil {
		return nil, RequirementOutput{}, fmt.Errorf("invalid commodity: %w", err)
	}
	if input.Amount < 0 {
		return nil, RequirementOutput{}, fmt.Errorf("amount cannot be negative, got %d", input.Amount)
	}

	if err := s.ledger.SetRequirement(input.Site, input.Commodity, input.Amount); err != nil {
		return nil, RequirementOutput{}, siteError(input.Site, err)
	}

	output, err := s.findRow(input.Site, input.Commodity)
	if err != nil {
		return nil, RequirementOutput{}, err
	}
	return jsonResult(output), output, nil
}

// RemoveRequirementInput defines input for remove_requirement tool.
type RemoveRequirementInput struct {
	Site      string `json:"site"`
	Commodity string `json:"commodity"`
}

func (s *Server) registerRemoveRequirementTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "remove_requirement",
		Description: "Delete one commodity row from a site's ledger.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"site":      siteProperty,
				"commodity": commodityProperty,
			},
			"required": []string{"site", "commodity"},
		},
	}, s.handleRemoveRequirement)
}

func (s *Server) handleRemoveRequirement(_ context.Context, _ *mcp.CallToolRequest, input RemoveRequirementInput) (*mcp.CallToolResult, SuccessOutput, error) {
	if err := models.ValidateName(input.Site); err != nil {
		return nil, SuccessOutput{}, fmt.Errorf("invalid site: %w", err)
	}
	if err := models.ValidateName(input.Commodity); err != nil {
		return nil, SuccessOutput{}, fmt.Errorf("invalid commodity: %w", err)
	}

	if err := s.ledger.RemoveRequirement(input.Site, input.Commodity); err != nil {
		return nil, SuccessOutput{}, fmt.Errorf("failed to remove requirement: %w", err)
	}

	output := SuccessOutput{
		Success: true,
		Message: fmt.Sprintf("Removed '%s' from '%s'", input.Commodity, input.Site),
	}
	return jsonResult(output), output, nil
}

// GetDeliveriesInput defines input for get_deliveries tool.
type GetDeliveriesInput struct {
	Site          string `json:"site"`
	ShowCompleted *bool  `json:"show_completed,omitempty"`
}

// DeliveriesOutput defines output for get_deliveries tool.
type DeliveriesOutput struct {
	Site         string              `json:"site"`
	Requirements []RequirementOutput `json:"requirements"`
	Count        int                 `json:"count"`
}

func (s *Server) registerGetDeliveriesTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_deliveries",
		Description: "Get a site's ledger: required, delivered, and remaining amounts per commodity.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"site": siteProperty,
				"show_completed": map[string]interface{}{
					"type":        "boolean",
					"description": "Include rows with nothing remaining (default true)",
				},
			},
			"required": []string{"site"},
		},
	}, s.handleGetDeliveries)
}

func (s *Server) handleGetDeliveries(_ context.Context, _ *mcp.CallToolRequest, input GetDeliveriesInput) (*mcp.CallToolResult, DeliveriesOutput, error) {
	if err := models.ValidateName(input.Site); err != nil {
		return nil, DeliveriesOutput{}, fmt.Errorf("invalid site: %w", err)
	}

	reqs, err := s.ledger.FetchDeliveries(input.Site)
	if err != nil {
		return nil, DeliveriesOutput{}, fmt.Errorf("failed to fetch deliveries: %w", err)
	}

	showCompleted := input.ShowCompleted == nil || *input.ShowCompleted
	reqs = ui.FilterCompleted(reqs, showCompleted)

	output := DeliveriesOutput{
		Site:         input.Site,
		Requirements: toRequirementOutputs(reqs),
		Count:        len(reqs),
	}
	return jsonResult(output), output, nil
}

func (s *Server) registerClearDeliveriesTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "clear_deliveries",
		Description: "Delete every row in a site's ledger, keeping the site itself. This cannot be undone.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"site": siteProperty,
			},
			"required": []string{"site"},
		},
	}, s.handleClearDeliveries)
}

func (s *Server) handleClearDeliveries(_ context.Context, _ *mcp.CallToolRequest, input SiteInput) (*mcp.CallToolResult, SuccessOutput, error) {
	if err := models.ValidateName(input.Site); err != nil {
		return nil, SuccessOutput{}, fmt.Errorf("invalid site: %w", err)
	}

	if err := s.ledger.ClearDeliveries(input.Site); err != nil {
		return nil, SuccessOutput{}, fmt.Errorf("failed to clear deliveries: %w", err)
	}

	output := SuccessOutput{
		Success: true,
		Message: fmt.Sprintf("Cleared the ledger of '%s'", input.Site),
	}
	return jsonResult(output), output, nil
}
