package clients

import (
	"context"
	"fmt"
	"net/http"

	"grievance/internal/complaint/ports"
)

// MasterData fetches service-code definitions from the reference-data
// service.
type MasterData struct {
	baseURL string
	client  *http.Client
}

// NewMasterData builds a master-data client rooted at baseURL.
func NewMasterData(baseURL string) *MasterData {
	return &MasterData{baseURL: baseURL, client: newHTTPClient()}
}

type serviceDefinitionRequest struct {
	TenantID    string `json:"tenantId"`
	ServiceCode string `json:"serviceCode,omitempty"`
}

type serviceDefinitionResponse struct {
	Definitions []ports.ServiceDefinition `json:"serviceDefinitions"`
}

func (c *MasterData) ServiceDefinitions(ctx context.Context, tenantID, serviceCode string) ([]ports.ServiceDefinition, error) {
	var resp serviceDefinitionResponse
	err := postJSON(ctx, c.client, c.baseURL+"/servicedefinitions/_search",
		serviceDefinitionRequest{TenantID: tenantID, ServiceCode: serviceCode}, &resp)
	if err != nil {
		return nil, fmt.Errorf("service definition search: %w", err)
	}
	return resp.Definitions, nil
}
