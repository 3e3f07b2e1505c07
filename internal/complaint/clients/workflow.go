package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"grievance/internal/complaint/ports"
)

// Workflow talks to the external workflow engine over HTTP.
type Workflow struct {
	baseURL string
	client  *http.Client
}

// NewWorkflow builds a workflow-engine client rooted at baseURL.
func NewWorkflow(baseURL string) *Workflow {
	return &Workflow{baseURL: baseURL, client: newHTTPClient()}
}

type transitionRequest struct {
	ProcessInstances []ports.ProcessInstance `json:"processInstances"`
}

type processInstanceResponse struct {
	ProcessInstances []ports.ProcessInstance `json:"processInstances"`
}

func (c *Workflow) Transition(ctx context.Context, instance ports.ProcessInstance) (ports.ProcessInstance, error) {
	var resp processInstanceResponse
	err := postJSON(ctx, c.client, c.baseURL+"/process/_transition",
		transitionRequest{ProcessInstances: []ports.ProcessInstance{instance}}, &resp)
	if err != nil {
		return ports.ProcessInstance{}, fmt.Errorf("workflow transition: %w", err)
	}
	if len(resp.ProcessInstances) == 0 {
		return ports.ProcessInstance{}, fmt.Errorf("workflow transition: empty response")
	}
	return resp.ProcessInstances[0], nil
}

func (c *Workflow) SearchProcessInstances(ctx context.Context, tenantID string, businessIDs []string) ([]ports.ProcessInstance, error) {
	query := url.Values{
		"tenantId":    {tenantID},
		"businessIds": {strings.Join(businessIDs, ",")},
	}
	var resp processInstanceResponse
	err := postJSON(ctx, c.client, c.baseURL+"/process/_search?"+query.Encode(), struct{}{}, &resp)
	if err != nil {
		return nil, fmt.Errorf("process instance search: %w", err)
	}
	return resp.ProcessInstances, nil
}

type businessServiceResponse struct {
	BusinessServices []ports.BusinessServiceMeta `json:"businessServices"`
}

func (c *Workflow) SearchBusinessService(ctx context.Context, tenantID, businessService string) (*ports.BusinessServiceMeta, error) {
	query := url.Values{
		"tenantId":         {tenantID},
		"businessServices": {businessService},
	}
	var resp businessServiceResponse
	err := postJSON(ctx, c.client, c.baseURL+"/businessservice/_search?"+query.Encode(), struct{}{}, &resp)
	if err != nil {
		return nil, fmt.Errorf("business service search: %w", err)
	}
	if len(resp.BusinessServices) == 0 {
		return nil, nil
	}
	return &resp.BusinessServices[0], nil
}
