// Package workflow drives the external workflow engine: it submits state
// transitions for single grievances and bulk-resolves current workflow state
// for search results. The engine owns the state machine; application status
// is an opaque token faithfully propagated, never computed here.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/ports"
	"grievance/internal/complaint/workflow/metacache"
	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/platform/sentinel"
)

// Coordinator mediates between the grievance lifecycle and the workflow
// engine.
type Coordinator struct {
	client          ports.WorkflowClient
	cache           metacache.Cache
	module          string
	businessService string
	logger          *slog.Logger
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger sets a logger for transition reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// NewCoordinator builds a Coordinator. The cache holds per-tenant
// business-service metadata and is populated read-through.
func NewCoordinator(client ports.WorkflowClient, cache metacache.Cache, module, businessService string, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:          client,
		cache:           cache,
		module:          module,
		businessService: businessService,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transition submits the envelope's workflow action to the engine keyed by
// the complaint's service-request id and returns the resulting application
// status. The caller must write the status onto the complaint.
func (c *Coordinator) Transition(ctx context.Context, envelope *models.Envelope) (string, error) {
	complaint := envelope.Complaint
	wf := envelope.Workflow

	meta, err := c.businessServiceMeta(ctx, complaint.TenantID)
	if err != nil {
		return "", err
	}

	instance := ports.ProcessInstance{
		BusinessID:      complaint.ServiceRequestID,
		TenantID:        complaint.TenantID,
		Action:          wf.Action,
		ModuleName:      c.module,
		BusinessService: meta.BusinessService,
		Comment:         wf.Comments,
		Documents:       wf.Documents,
	}
	for _, assignee := range wf.Assignees {
		instance.Assignees = append(instance.Assignees, models.Identity{UUID: assignee})
	}

	result, err := c.client.Transition(ctx, instance)
	if err != nil {
		return "", c.translate(err, "workflow transition")
	}
	if result.State.ApplicationStatus == "" {
		return "", dErrors.New(dErrors.CodeParsingError, "workflow transition returned no application status")
	}

	if c.logger != nil {
		c.logger.InfoContext(ctx, "workflow transition applied",
			"business_id", complaint.ServiceRequestID,
			"action", wf.Action,
			"status", result.State.ApplicationStatus,
		)
	}
	return result.State.ApplicationStatus, nil
}

// BulkResolveState fetches the current workflow state for every envelope,
// querying the engine once per tenant. The engine must return exactly one
// process instance per business id; any mismatch is a data-integrity
// failure, not a partial success.
func (c *Coordinator) BulkResolveState(ctx context.Context, envelopes []*models.Envelope) (map[string]*models.Workflow, error) {
	byTenant := make(map[string][]string)
	for _, env := range envelopes {
		tenantID := env.Complaint.TenantID
		byTenant[tenantID] = append(byTenant[tenantID], env.Complaint.ServiceRequestID)
	}

	states := make(map[string]*models.Workflow)
	for tenantID, businessIDs := range byTenant {
		instances, err := c.client.SearchProcessInstances(ctx, tenantID, businessIDs)
		if err != nil {
			return nil, c.translate(err, "process instance search")
		}
		if len(instances) != len(businessIDs) {
			return nil, dErrors.Newf(dErrors.CodeWorkflowNotFound,
				"expected %d process instances for tenant %s, got %d",
				len(businessIDs), tenantID, len(instances))
		}
		for _, instance := range instances {
			states[instance.BusinessID] = workflowFromInstance(instance)
		}
	}
	return states, nil
}

// businessServiceMeta resolves the tenant's business-process metadata through
// the read-through cache.
func (c *Coordinator) businessServiceMeta(ctx context.Context, tenantID string) (*ports.BusinessServiceMeta, error) {
	key := metacache.Key(tenantID, c.businessService)

	meta, err := c.cache.Get(ctx, key)
	if err == nil {
		return meta, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) && c.logger != nil {
		// Cache trouble is not fatal; fall through to the engine.
		c.logger.WarnContext(ctx, "business service cache read failed", "error", err)
	}

	meta, err = c.client.SearchBusinessService(ctx, tenantID, c.businessService)
	if err != nil {
		return nil, c.translate(err, "business service search")
	}
	if meta == nil {
		return nil, dErrors.Newf(dErrors.CodeBusinessServiceNotFound,
			"the business service %s is not found for tenant %s", c.businessService, tenantID)
	}

	if err := c.cache.Set(ctx, key, meta); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "business service cache write failed", "error", err)
	}
	return meta, nil
}

func (c *Coordinator) translate(err error, operation string) error {
	switch {
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeWorkflowUnavailable, operation+" failed: workflow engine unreachable")
	case errors.Is(err, sentinel.ErrDecode):
		return dErrors.Wrap(err, dErrors.CodeParsingError, "failed to parse response of "+operation)
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}

func workflowFromInstance(instance ports.ProcessInstance) *models.Workflow {
	wf := &models.Workflow{
		Action:    instance.Action,
		Comments:  instance.Comment,
		Documents: instance.Documents,
	}
	for _, assignee := range instance.Assignees {
		wf.Assignees = append(wf.Assignees, assignee.UUID)
	}
	return wf
}
