package clients

import (
	"context"
	"fmt"
	"net/http"
)

// IDGen mints formatted business ids from the id-generation service.
type IDGen struct {
	baseURL string
	client  *http.Client
}

// NewIDGen builds an id-generation client rooted at baseURL.
func NewIDGen(baseURL string) *IDGen {
	return &IDGen{baseURL: baseURL, client: newHTTPClient()}
}

type idRequest struct {
	TenantID string `json:"tenantId"`
	IDName   string `json:"idName"`
	Format   string `json:"format"`
	Count    int    `json:"count"`
}

type idResponse struct {
	IDs []struct {
		ID string `json:"id"`
	} `json:"idResponses"`
}

func (c *IDGen) Generate(ctx context.Context, tenantID, idName, format string, count int) ([]string, error) {
	var resp idResponse
	err := postJSON(ctx, c.client, c.baseURL+"/id/_generate",
		idRequest{TenantID: tenantID, IDName: idName, Format: format, Count: count}, &resp)
	if err != nil {
		return nil, fmt.Errorf("id generation: %w", err)
	}

	ids := make([]string, 0, len(resp.IDs))
	for _, entry := range resp.IDs {
		ids = append(ids, entry.ID)
	}
	return ids, nil
}
