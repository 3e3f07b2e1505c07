package clients

import (
	"context"
	"fmt"
	"net/http"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/ports"
)

// Identity talks to the identity service over HTTP.
type Identity struct {
	baseURL string
	client  *http.Client
}

// NewIdentity builds an identity-service client rooted at baseURL.
func NewIdentity(baseURL string) *Identity {
	return &Identity{baseURL: baseURL, client: newHTTPClient()}
}

type identitySearchRequest struct {
	TenantID     string   `json:"tenantId,omitempty"`
	UUIDs        []string `json:"uuid,omitempty"`
	MobileNumber string   `json:"mobileNumber,omitempty"`
	UserType     string   `json:"userType,omitempty"`
	Active       bool     `json:"active"`
}

type identityResponse struct {
	Users []models.Identity `json:"user"`
}

func (c *Identity) Search(ctx context.Context, criteria ports.IdentitySearch) ([]models.Identity, error) {
	req := identitySearchRequest{
		TenantID:     criteria.TenantID,
		UUIDs:        criteria.UUIDs,
		MobileNumber: criteria.MobileNumber,
		UserType:     criteria.UserType,
		Active:       criteria.Active,
	}
	if criteria.AccountID != "" {
		req.UUIDs = append(req.UUIDs, criteria.AccountID)
	}

	var resp identityResponse
	if err := postJSON(ctx, c.client, c.baseURL+"/user/_search", req, &resp); err != nil {
		return nil, fmt.Errorf("identity search: %w", err)
	}
	return resp.Users, nil
}

func (c *Identity) Create(ctx context.Context, identity models.Identity) (models.Identity, error) {
	var resp identityResponse
	err := postJSON(ctx, c.client, c.baseURL+"/user/_create",
		map[string]models.Identity{"user": identity}, &resp)
	if err != nil {
		return models.Identity{}, fmt.Errorf("identity create: %w", err)
	}
	if len(resp.Users) == 0 {
		return models.Identity{}, fmt.Errorf("identity create: empty response")
	}
	return resp.Users[0], nil
}

func (c *Identity) Update(ctx context.Context, identity models.Identity) (models.Identity, error) {
	var resp identityResponse
	err := postJSON(ctx, c.client, c.baseURL+"/user/_update",
		map[string]models.Identity{"user": identity}, &resp)
	if err != nil {
		return models.Identity{}, fmt.Errorf("identity update: %w", err)
	}
	if len(resp.Users) == 0 {
		return models.Identity{}, fmt.Errorf("identity update: empty response")
	}
	return resp.Users[0], nil
}
