package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/ports"
	"grievance/internal/complaint/workflow/metacache"
	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/platform/sentinel"
)

type fakeWorkflowClient struct {
	transitionStatus string
	transitionErr    error
	transitions      []ports.ProcessInstance

	instancesByTenant map[string][]ports.ProcessInstance
	searchErr         error

	meta            *ports.BusinessServiceMeta
	metaErr         error
	metaSearchCount int
}

func (f *fakeWorkflowClient) Transition(_ context.Context, instance ports.ProcessInstance) (ports.ProcessInstance, error) {
	if f.transitionErr != nil {
		return ports.ProcessInstance{}, f.transitionErr
	}
	f.transitions = append(f.transitions, instance)
	instance.State.ApplicationStatus = f.transitionStatus
	return instance, nil
}

func (f *fakeWorkflowClient) SearchProcessInstances(_ context.Context, tenantID string, _ []string) ([]ports.ProcessInstance, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.instancesByTenant[tenantID], nil
}

func (f *fakeWorkflowClient) SearchBusinessService(context.Context, string, string) (*ports.BusinessServiceMeta, error) {
	f.metaSearchCount++
	return f.meta, f.metaErr
}

type CoordinatorSuite struct {
	suite.Suite

	client      *fakeWorkflowClient
	coordinator *Coordinator
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.client = &fakeWorkflowClient{
		transitionStatus:  "PENDINGFORASSIGNMENT",
		meta:              &ports.BusinessServiceMeta{TenantID: "pb", BusinessService: "GRV"},
		instancesByTenant: map[string][]ports.ProcessInstance{},
	}
	s.coordinator = NewCoordinator(s.client, metacache.NewMemory(), "grievance-services", "GRV")
}

func (s *CoordinatorSuite) envelope() *models.Envelope {
	return &models.Envelope{
		Complaint: &models.Complaint{
			TenantID:         "pb.amritsar",
			ServiceRequestID: "GRV-1",
		},
		Workflow: &models.Workflow{Action: "ASSIGN", Assignees: []string{"emp-1"}, Comments: "on it"},
	}
}

func (s *CoordinatorSuite) TestTransitionReturnsEngineStatus() {
	status, err := s.coordinator.Transition(context.Background(), s.envelope())

	s.Require().NoError(err)
	s.Equal("PENDINGFORASSIGNMENT", status)

	s.Require().Len(s.client.transitions, 1)
	submitted := s.client.transitions[0]
	s.Equal("GRV-1", submitted.BusinessID)
	s.Equal("grievance-services", submitted.ModuleName)
	s.Equal("GRV", submitted.BusinessService)
	s.Require().Len(submitted.Assignees, 1)
	s.Equal("emp-1", submitted.Assignees[0].UUID)
}

func (s *CoordinatorSuite) TestTransitionCachesBusinessServiceMeta() {
	_, err := s.coordinator.Transition(context.Background(), s.envelope())
	s.Require().NoError(err)
	_, err = s.coordinator.Transition(context.Background(), s.envelope())
	s.Require().NoError(err)

	s.Equal(1, s.client.metaSearchCount)
}

func (s *CoordinatorSuite) TestTransitionUnknownBusinessService() {
	s.client.meta = nil

	_, err := s.coordinator.Transition(context.Background(), s.envelope())

	s.True(dErrors.HasCode(err, dErrors.CodeBusinessServiceNotFound))
}

func (s *CoordinatorSuite) TestTransitionEmptyStatusIsParsingError() {
	s.client.transitionStatus = ""

	_, err := s.coordinator.Transition(context.Background(), s.envelope())

	s.True(dErrors.HasCode(err, dErrors.CodeParsingError))
}

func (s *CoordinatorSuite) TestTransitionEngineDownTranslates() {
	s.client.transitionErr = sentinel.ErrUnavailable

	_, err := s.coordinator.Transition(context.Background(), s.envelope())

	s.True(dErrors.HasCode(err, dErrors.CodeWorkflowUnavailable))
}

func (s *CoordinatorSuite) TestBulkResolveStateGroupsByTenant() {
	s.client.instancesByTenant = map[string][]ports.ProcessInstance{
		"pb.amritsar": {
			{BusinessID: "GRV-1", Action: "RESOLVE", Assignees: []models.Identity{{UUID: "emp-1"}}},
		},
		"pb.jalandhar": {
			{BusinessID: "GRV-2", Action: "APPLY"},
		},
	}
	envelopes := []*models.Envelope{
		{Complaint: &models.Complaint{TenantID: "pb.amritsar", ServiceRequestID: "GRV-1"}},
		{Complaint: &models.Complaint{TenantID: "pb.jalandhar", ServiceRequestID: "GRV-2"}},
	}

	states, err := s.coordinator.BulkResolveState(context.Background(), envelopes)

	s.Require().NoError(err)
	s.Require().Len(states, 2)
	s.Equal("RESOLVE", states["GRV-1"].Action)
	s.Equal([]string{"emp-1"}, states["GRV-1"].Assignees)
	s.Equal("APPLY", states["GRV-2"].Action)
}

func (s *CoordinatorSuite) TestBulkResolveStateCountMismatch() {
	// Two complaints, only one process instance: integrity failure.
	s.client.instancesByTenant = map[string][]ports.ProcessInstance{
		"pb.amritsar": {{BusinessID: "GRV-1"}},
	}
	envelopes := []*models.Envelope{
		{Complaint: &models.Complaint{TenantID: "pb.amritsar", ServiceRequestID: "GRV-1"}},
		{Complaint: &models.Complaint{TenantID: "pb.amritsar", ServiceRequestID: "GRV-2"}},
	}

	_, err := s.coordinator.BulkResolveState(context.Background(), envelopes)

	s.True(dErrors.HasCode(err, dErrors.CodeWorkflowNotFound))
}

func (s *CoordinatorSuite) TestBulkResolveStateEngineDecodeFailure() {
	s.client.searchErr = sentinel.ErrDecode
	envelopes := []*models.Envelope{
		{Complaint: &models.Complaint{TenantID: "pb.amritsar", ServiceRequestID: "GRV-1"}},
	}

	_, err := s.coordinator.BulkResolveState(context.Background(), envelopes)

	s.True(dErrors.HasCode(err, dErrors.CodeParsingError))
}
