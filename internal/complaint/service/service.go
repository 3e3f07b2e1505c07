// Package service orchestrates the grievance lifecycle: validation, identity
// resolution, enrichment, workflow transition and event publication for
// mutations; criteria enrichment, store querying and bulk state resolution
// for search.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"grievance/internal/complaint/metrics"
	"grievance/internal/complaint/models"
	"grievance/internal/complaint/ports"
	"grievance/internal/complaint/store"
	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/platform/sentinel"
	"grievance/pkg/requestcontext"
)

// Validator checks requests before any external write happens.
type Validator interface {
	ValidateCreate(ctx context.Context, caller models.Caller, envelope *models.Envelope) error
	ValidateUpdate(ctx context.Context, caller models.Caller, envelope *models.Envelope, existing *models.Complaint) error
	ValidateSearch(caller models.Caller, criteria models.SearchCriteria) error
}

// IdentityResolver rewrites envelopes to reference canonical identities and
// translates mobile-number search predicates into account ids.
type IdentityResolver interface {
	ResolveForMutation(ctx context.Context, envelope *models.Envelope) (*models.Envelope, error)
	BulkResolve(ctx context.Context, envelopes []*models.Envelope) ([]*models.Envelope, error)
	ResolveSearchFilter(ctx context.Context, tenantID, mobileNumber string) ([]string, error)
}

// WorkflowCoordinator submits transitions and bulk-resolves workflow state.
type WorkflowCoordinator interface {
	Transition(ctx context.Context, envelope *models.Envelope) (string, error)
	BulkResolveState(ctx context.Context, envelopes []*models.Envelope) (map[string]*models.Workflow, error)
}

// Store is the read-only complaint query surface. Mutations never touch it;
// they flow through the event sink and are materialized downstream.
type Store interface {
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Envelope, error)
	Count(ctx context.Context, criteria models.SearchCriteria) (int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Complaint, error)
	DynamicData(ctx context.Context, tenantID string) (store.Stats, error)
}

// Config carries the orchestration knobs.
type Config struct {
	CreateTopic string
	UpdateTopic string

	DefaultLimit  int
	DefaultOffset int
	MaxLimit      int

	IDGenName   string
	IDGenFormat string
}

// Service is the grievance orchestrator. Every operation validates first,
// enriches through pure stages that return new envelope copies, and only then
// touches collaborators with side effects.
type Service struct {
	cfg       Config
	validator Validator
	identity  IdentityResolver
	workflow  WorkflowCoordinator
	store     Store
	idgen     ports.IDGenClient
	sink      ports.EventSink

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the Prometheus instrumentation. Nil-safe if omitted.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New wires the orchestrator.
func New(cfg Config, validator Validator, identity IdentityResolver, workflow WorkflowCoordinator,
	st Store, idgen ports.IDGenClient, sink ports.EventSink, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		validator: validator,
		identity:  identity,
		workflow:  workflow,
		store:     st,
		idgen:     idgen,
		sink:      sink,
		logger:    slog.Default(),
		tracer:    otel.Tracer("grievance/complaint"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new grievance: validate, resolve the reporter identity,
// mint ids and audit stamps, open the workflow, then publish the enriched
// envelope for persistence.
func (s *Service) Create(ctx context.Context, caller models.Caller, envelope *models.Envelope) (*models.Envelope, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.Create")
	defer span.End()
	defer s.observe("create", requestcontext.Now(ctx))

	envelope = defaultAccountID(caller, envelope)
	envelope = defaultCreateAction(envelope)

	if err := s.validator.ValidateCreate(ctx, caller, envelope); err != nil {
		s.metrics.ValidationFailed(string(dErrors.CodeOf(err)))
		return nil, err
	}

	envelope, err := s.identity.ResolveForMutation(ctx, envelope)
	if err != nil {
		return nil, err
	}

	serviceRequestID, err := s.mintServiceRequestID(ctx, envelope.Complaint.TenantID)
	if err != nil {
		return nil, err
	}
	envelope = enrichForCreate(ctx, caller, envelope, serviceRequestID)

	status, err := s.workflow.Transition(ctx, envelope)
	if err != nil {
		return nil, err
	}
	envelope = withApplicationStatus(envelope, status)

	if err := s.publish(ctx, s.cfg.CreateTopic, envelope); err != nil {
		return nil, err
	}

	s.metrics.ComplaintCreated(envelope.Complaint.TenantID, envelope.Complaint.Source)
	s.logger.InfoContext(ctx, "complaint created",
		"id", envelope.Complaint.ID,
		"service_request_id", envelope.Complaint.ServiceRequestID,
		"tenant", envelope.Complaint.TenantID,
	)
	return envelope, nil
}

// Update advances an existing grievance: the stored record is fetched for
// validation, the update is enriched against it, the workflow transition runs
// and the result is published.
func (s *Service) Update(ctx context.Context, caller models.Caller, envelope *models.Envelope) (*models.Envelope, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.Update")
	defer span.End()
	defer s.observe("update", requestcontext.Now(ctx))

	if envelope.Workflow == nil || envelope.Workflow.Action == "" {
		return nil, dErrors.New(dErrors.CodeInvalidRequest, "a workflow action is required to update a grievance")
	}

	existing, err := s.store.FindByID(ctx, envelope.Complaint.TenantID, envelope.Complaint.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("load complaint for update: %w", err)
	}

	if err := s.validator.ValidateUpdate(ctx, caller, envelope, existing); err != nil {
		s.metrics.ValidationFailed(string(dErrors.CodeOf(err)))
		return nil, err
	}

	envelope, err = s.identity.ResolveForMutation(ctx, envelope)
	if err != nil {
		return nil, err
	}
	envelope = enrichForUpdate(ctx, caller, envelope, existing)

	status, err := s.workflow.Transition(ctx, envelope)
	if err != nil {
		return nil, err
	}
	envelope = withApplicationStatus(envelope, status)

	if err := s.publish(ctx, s.cfg.UpdateTopic, envelope); err != nil {
		return nil, err
	}

	action := ""
	if envelope.Workflow != nil {
		action = envelope.Workflow.Action
	}
	s.metrics.ComplaintUpdated(envelope.Complaint.TenantID, action)
	s.logger.InfoContext(ctx, "complaint updated",
		"id", envelope.Complaint.ID,
		"action", action,
		"status", status,
	)
	return envelope, nil
}

// Search validates the criteria against the caller's policy, enriches it,
// queries the store and attaches reporter identities and workflow state to
// the results in parallel.
func (s *Service) Search(ctx context.Context, caller models.Caller, criteria models.SearchCriteria) ([]*models.Envelope, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.Search")
	defer span.End()
	defer s.observe("search", requestcontext.Now(ctx))

	if err := s.validator.ValidateSearch(caller, criteria); err != nil {
		s.metrics.ValidationFailed(string(dErrors.CodeOf(err)))
		return nil, err
	}

	criteria, empty, err := s.enrichSearchCriteria(ctx, caller, criteria)
	if err != nil {
		return nil, err
	}
	if empty {
		return []*models.Envelope{}, nil
	}

	envelopes, err := s.store.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}
	s.metrics.SearchPerformed(string(caller.Type), requestcontext.Platform(ctx))
	if len(envelopes) == 0 {
		return []*models.Envelope{}, nil
	}

	var (
		resolved []*models.Envelope
		states   map[string]*models.Workflow
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		resolved, err = s.identity.BulkResolve(groupCtx, envelopes)
		return err
	})
	group.Go(func() error {
		var err error
		states, err = s.workflow.BulkResolveState(groupCtx, envelopes)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	envelopes = resolved

	for _, env := range envelopes {
		env.Workflow = states[env.Complaint.ServiceRequestID]
	}
	sort.SliceStable(envelopes, func(i, j int) bool {
		return envelopes[i].Complaint.AuditDetails.CreatedTime > envelopes[j].Complaint.AuditDetails.CreatedTime
	})
	return envelopes, nil
}

// Count returns how many complaints match the criteria, applying the same
// policy validation and enrichment as Search but skipping row retrieval.
func (s *Service) Count(ctx context.Context, caller models.Caller, criteria models.SearchCriteria) (int, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.Count")
	defer span.End()

	if err := s.validator.ValidateSearch(caller, criteria); err != nil {
		s.metrics.ValidationFailed(string(dErrors.CodeOf(err)))
		return 0, err
	}

	criteria, empty, err := s.enrichSearchCriteria(ctx, caller, criteria)
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, nil
	}
	return s.store.Count(ctx, criteria)
}

// Stats returns the tenant's resolution dashboard aggregate.
func (s *Service) Stats(ctx context.Context, tenantID string) (store.Stats, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.Stats")
	defer span.End()

	if tenantID == "" {
		return store.Stats{}, dErrors.New(dErrors.CodeInvalidSearch, "tenantId is mandatory search param")
	}
	return s.store.DynamicData(ctx, tenantID)
}

func (s *Service) mintServiceRequestID(ctx context.Context, tenantID string) (string, error) {
	ids, err := s.idgen.Generate(ctx, tenantID, s.cfg.IDGenName, s.cfg.IDGenFormat, 1)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeIDGenError, "failed to generate a service request id")
	}
	if len(ids) == 0 {
		return "", dErrors.New(dErrors.CodeIDGenError, "id generation returned no ids")
	}
	return ids[0], nil
}

func (s *Service) publish(ctx context.Context, topic string, envelope *models.Envelope) error {
	// Keyed by tenant so per-tenant ordering survives partitioning.
	if err := s.sink.Publish(ctx, topic, envelope.Complaint.TenantID, envelope); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	s.metrics.EventPublished(topic)
	return nil
}

func (s *Service) observe(operation string, start time.Time) {
	s.metrics.ObserveOperation(operation, time.Since(start).Seconds())
}
