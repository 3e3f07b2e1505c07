package clients

import (
	"context"
	"fmt"
	"net/http"

	"grievance/internal/complaint/ports"
)

// HR resolves employee department assignments from the HR service.
type HR struct {
	baseURL string
	client  *http.Client
}

// NewHR builds an HR-service client rooted at baseURL.
func NewHR(baseURL string) *HR {
	return &HR{baseURL: baseURL, client: newHTTPClient()}
}

type employeeSearchRequest struct {
	TenantID string   `json:"tenantId"`
	UUIDs    []string `json:"uuids"`
}

type employeeSearchResponse struct {
	Employees []struct {
		UUID        string `json:"uuid"`
		Assignments []struct {
			Department string `json:"department"`
		} `json:"assignments"`
	} `json:"employees"`
}

func (c *HR) DepartmentsForAccountIDs(ctx context.Context, tenantID string, accountIDs []string) ([]string, error) {
	var resp employeeSearchResponse
	err := postJSON(ctx, c.client, c.baseURL+"/employees/_search",
		employeeSearchRequest{TenantID: tenantID, UUIDs: accountIDs}, &resp)
	if err != nil {
		return nil, fmt.Errorf("employee search: %w", err)
	}

	var departments []string
	for _, employee := range resp.Employees {
		for _, assignment := range employee.Assignments {
			if assignment.Department != "" {
				departments = append(departments, assignment.Department)
			}
		}
	}
	return departments, nil
}

var _ ports.HRClient = (*HR)(nil)
