// Package ports declares the collaborator contracts the grievance core
// depends on. Services hold these interfaces; the HTTP clients in
// internal/complaint/clients and the test fakes implement them.
package ports

import (
	"context"

	"grievance/internal/complaint/models"
)

// IdentitySearch is the filter set accepted by the identity service. Empty
// fields are omitted from the search.
type IdentitySearch struct {
	TenantID     string
	AccountID    string
	MobileNumber string
	UUIDs        []string
	UserType     string
	Active       bool
}

// IdentityClient talks to the identity service. The identity resolver is the
// only caller.
type IdentityClient interface {
	Search(ctx context.Context, criteria IdentitySearch) ([]models.Identity, error)
	Create(ctx context.Context, identity models.Identity) (models.Identity, error)
	Update(ctx context.Context, identity models.Identity) (models.Identity, error)
}

// ProcessState is the engine-owned status snapshot of a process instance.
type ProcessState struct {
	ApplicationStatus string `json:"applicationStatus"`
}

// ProcessInstance is the workflow engine's record of one grievance's
// state-machine progress, correlated by BusinessID.
type ProcessInstance struct {
	BusinessID      string            `json:"businessId"`
	TenantID        string            `json:"tenantId"`
	Action          string            `json:"action"`
	ModuleName      string            `json:"moduleName"`
	BusinessService string            `json:"businessService"`
	Comment         string            `json:"comment,omitempty"`
	Assignees       []models.Identity `json:"assignes,omitempty"`
	Documents       []models.Document `json:"documents,omitempty"`
	State           ProcessState      `json:"state"`
}

// BusinessServiceMeta is the per-tenant business-process configuration the
// engine exposes. Cached per tenant+name by the workflow coordinator.
type BusinessServiceMeta struct {
	TenantID        string `json:"tenantId"`
	BusinessService string `json:"businessService"`
	Business        string `json:"business"`
	SLAMillis       int64  `json:"businessServiceSla"`
}

// WorkflowClient talks to the external workflow engine.
type WorkflowClient interface {
	Transition(ctx context.Context, instance ProcessInstance) (ProcessInstance, error)
	SearchProcessInstances(ctx context.Context, tenantID string, businessIDs []string) ([]ProcessInstance, error)
	SearchBusinessService(ctx context.Context, tenantID, businessService string) (*BusinessServiceMeta, error)
}

// ServiceDefinition is a master-data service-code entry. Department is the
// owning department used for assignment validation.
type ServiceDefinition struct {
	ServiceCode string `json:"serviceCode"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	SLAHours    int    `json:"slaHours,omitempty"`
}

// MasterDataClient fetches reference data. An empty result means the service
// code does not exist for the tenant.
type MasterDataClient interface {
	ServiceDefinitions(ctx context.Context, tenantID, serviceCode string) ([]ServiceDefinition, error)
}

// HRClient resolves employee departments for assignment validation.
type HRClient interface {
	DepartmentsForAccountIDs(ctx context.Context, tenantID string, accountIDs []string) ([]string, error)
}

// IDGenClient mints formatted business ids from the id-generation service.
type IDGenClient interface {
	Generate(ctx context.Context, tenantID, idName, format string, count int) ([]string, error)
}

// EventSink publishes mutated envelopes. Fire-and-forget from the core's
// perspective; delivery guarantees are the sink's responsibility. Key is the
// partitioning key, so records sharing it stay ordered relative to each other.
type EventSink interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}
