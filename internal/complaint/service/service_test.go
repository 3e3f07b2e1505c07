package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/store"
	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/requestcontext"
)

type fakeValidator struct {
	failWith error
}

func (f *fakeValidator) ValidateCreate(context.Context, models.Caller, *models.Envelope) error {
	return f.failWith
}

func (f *fakeValidator) ValidateUpdate(_ context.Context, _ models.Caller, envelope *models.Envelope, existing *models.Complaint) error {
	if existing == nil {
		return dErrors.Newf(dErrors.CodeInvalidUpdate, "no grievance found for id %s", envelope.Complaint.ID)
	}
	return f.failWith
}

func (f *fakeValidator) ValidateSearch(models.Caller, models.SearchCriteria) error {
	return f.failWith
}

type fakeResolver struct {
	mobileIndex   map[string][]string
	filterCalls   []string
	mutationCalls int
}

func (f *fakeResolver) ResolveForMutation(_ context.Context, envelope *models.Envelope) (*models.Envelope, error) {
	f.mutationCalls++
	complaint := *envelope.Complaint
	if complaint.AccountID == "" && complaint.Reporter != nil {
		complaint.AccountID = "resolved-" + complaint.Reporter.MobileNumber
	}
	return &models.Envelope{Complaint: &complaint, Workflow: envelope.Workflow}, nil
}

func (f *fakeResolver) BulkResolve(_ context.Context, envelopes []*models.Envelope) ([]*models.Envelope, error) {
	out := make([]*models.Envelope, 0, len(envelopes))
	for _, env := range envelopes {
		complaint := *env.Complaint
		complaint.Reporter = &models.Identity{UUID: complaint.AccountID}
		out = append(out, &models.Envelope{Complaint: &complaint, Workflow: env.Workflow})
	}
	return out, nil
}

func (f *fakeResolver) ResolveSearchFilter(_ context.Context, _ string, mobileNumber string) ([]string, error) {
	f.filterCalls = append(f.filterCalls, mobileNumber)
	return f.mobileIndex[mobileNumber], nil
}

type fakeWorkflow struct {
	status          string
	err             error
	transitions     []string
	bulkResolutions int
}

func (f *fakeWorkflow) Transition(_ context.Context, envelope *models.Envelope) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.transitions = append(f.transitions, envelope.Workflow.Action)
	return f.status, nil
}

func (f *fakeWorkflow) BulkResolveState(_ context.Context, envelopes []*models.Envelope) (map[string]*models.Workflow, error) {
	f.bulkResolutions++
	states := make(map[string]*models.Workflow, len(envelopes))
	for _, env := range envelopes {
		states[env.Complaint.ServiceRequestID] = &models.Workflow{Action: "RESOLVE"}
	}
	return states, nil
}

type fakeIDGen struct {
	next string
	err  error
}

func (f *fakeIDGen) Generate(context.Context, string, string, string, int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []string{f.next}, nil
}

type publishedEvent struct {
	topic    string
	key      string
	envelope *models.Envelope
}

type fakeSink struct {
	events []publishedEvent
	err    error
}

func (f *fakeSink) Publish(_ context.Context, topic, key string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{topic: topic, key: key, envelope: payload.(*models.Envelope)})
	return nil
}

type ServiceSuite struct {
	suite.Suite

	validator *fakeValidator
	resolver  *fakeResolver
	workflow  *fakeWorkflow
	memory    *store.MemoryStore
	idgen     *fakeIDGen
	sink      *fakeSink
	service   *Service

	now time.Time
	ctx context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.validator = &fakeValidator{}
	s.resolver = &fakeResolver{mobileIndex: map[string][]string{}}
	s.workflow = &fakeWorkflow{status: "PENDINGFORASSIGNMENT"}
	s.memory = store.NewMemory(10, "RESOLVED")
	s.idgen = &fakeIDGen{next: "GRV-2026-08-30-000101"}
	s.sink = &fakeSink{}
	s.service = New(Config{
		CreateTopic:   "grievance-create",
		UpdateTopic:   "grievance-update",
		DefaultLimit:  10,
		DefaultOffset: 0,
		MaxLimit:      200,
		IDGenName:     "grievance.servicerequestid",
		IDGenFormat:   "GRV-[SEQ]",
	}, s.validator, s.resolver, s.workflow, s.memory, s.idgen, s.sink)

	s.now = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ServiceSuite) envelope() *models.Envelope {
	return &models.Envelope{
		Complaint: &models.Complaint{
			TenantID:    "pb.amritsar",
			ServiceCode: "StreetLightNotWorking",
			Description: "lamp out on main street",
			Source:      "web",
			Reporter:    &models.Identity{Name: "Asha", MobileNumber: "9999999999"},
			Address:     &models.Address{Locality: "SUN01", City: "Amritsar"},
		},
		Workflow: &models.Workflow{Action: "APPLY"},
	}
}

func (s *ServiceSuite) seed(id, accountID string, createdTime int64) {
	s.memory.Put(&models.Complaint{
		ID:                id,
		TenantID:          "pb.amritsar",
		ServiceCode:       "StreetLightNotWorking",
		ServiceRequestID:  "GRV-" + id,
		AccountID:         accountID,
		ApplicationStatus: "PENDINGFORASSIGNMENT",
		Source:            "web",
		Active:            true,
		AuditDetails: models.AuditDetails{
			CreatedBy:        accountID,
			LastModifiedBy:   accountID,
			CreatedTime:      createdTime,
			LastModifiedTime: createdTime,
		},
	})
}

func (s *ServiceSuite) TestCreateEnrichesAndPublishes() {
	caller := models.Caller{ID: "emp-7", Type: models.CallerEmployee}

	result, err := s.service.Create(s.ctx, caller, s.envelope())

	s.Require().NoError(err)
	s.NotEmpty(result.Complaint.ID)
	s.Equal("GRV-2026-08-30-000101", result.Complaint.ServiceRequestID)
	s.Equal("PENDINGFORASSIGNMENT", result.Complaint.ApplicationStatus)
	s.True(result.Complaint.Active)
	s.Equal("emp-7", result.Complaint.AuditDetails.CreatedBy)
	s.Equal(s.now.UnixMilli(), result.Complaint.AuditDetails.CreatedTime)
	s.Equal(s.now.UnixMilli(), result.Complaint.AuditDetails.LastModifiedTime)
	s.NotEmpty(result.Complaint.Address.ID)
	s.Equal("resolved-9999999999", result.Complaint.AccountID)

	s.Require().Len(s.sink.events, 1)
	s.Equal("grievance-create", s.sink.events[0].topic)
	s.Equal("pb.amritsar", s.sink.events[0].key)
	s.Same(result, s.sink.events[0].envelope)
	s.Equal(1, s.resolver.mutationCalls)
}

func (s *ServiceSuite) TestCreateDefaultsCitizenAccountID() {
	caller := models.Caller{ID: "acc-42", Type: models.CallerCitizen}
	env := s.envelope()
	env.Complaint.Reporter = nil

	result, err := s.service.Create(s.ctx, caller, env)

	s.Require().NoError(err)
	s.Equal("acc-42", result.Complaint.AccountID)
}

func (s *ServiceSuite) TestCreateDoesNotMutateInput() {
	input := s.envelope()

	_, err := s.service.Create(s.ctx, models.Caller{ID: "emp-7", Type: models.CallerEmployee}, input)

	s.Require().NoError(err)
	s.Empty(input.Complaint.ID)
	s.Empty(input.Complaint.ServiceRequestID)
	s.Empty(input.Complaint.ApplicationStatus)
}

func (s *ServiceSuite) TestCreateDefaultsOpeningAction() {
	env := s.envelope()
	env.Workflow = nil

	result, err := s.service.Create(s.ctx, models.Caller{ID: "acc-1", Type: models.CallerCitizen}, env)

	s.Require().NoError(err)
	s.Require().NotNil(result.Workflow)
	s.Equal("APPLY", result.Workflow.Action)
	s.Equal([]string{"APPLY"}, s.workflow.transitions)
}

func (s *ServiceSuite) TestUpdateRequiresWorkflowAction() {
	s.seed("c-1", "acc-1", 100)
	env := s.envelope()
	env.Complaint.ID = "c-1"
	env.Workflow = nil

	_, err := s.service.Update(s.ctx, models.Caller{Type: models.CallerEmployee}, env)

	s.True(dErrors.HasCode(err, dErrors.CodeInvalidRequest))
	s.Empty(s.sink.events)
}

func (s *ServiceSuite) TestCreateValidationFailurePublishesNothing() {
	s.validator.failWith = dErrors.New(dErrors.CodeInvalidSource, "the source: whatsapp is not valid")

	_, err := s.service.Create(s.ctx, models.Caller{Type: models.CallerCitizen}, s.envelope())

	s.True(dErrors.HasCode(err, dErrors.CodeInvalidSource))
	s.Empty(s.sink.events)
	s.Zero(s.resolver.mutationCalls)
}

func (s *ServiceSuite) TestCreateIDGenFailure() {
	s.idgen.err = errors.New("idgen down")

	_, err := s.service.Create(s.ctx, models.Caller{Type: models.CallerCitizen}, s.envelope())

	s.True(dErrors.HasCode(err, dErrors.CodeIDGenError))
	s.Empty(s.sink.events)
}

func (s *ServiceSuite) TestCreateWorkflowFailurePublishesNothing() {
	s.workflow.err = dErrors.New(dErrors.CodeWorkflowUnavailable, "workflow engine unreachable")

	_, err := s.service.Create(s.ctx, models.Caller{Type: models.CallerCitizen}, s.envelope())

	s.True(dErrors.HasCode(err, dErrors.CodeWorkflowUnavailable))
	s.Empty(s.sink.events)
}

func (s *ServiceSuite) TestUpdateUnknownID() {
	env := s.envelope()
	env.Complaint.ID = "missing"

	_, err := s.service.Update(s.ctx, models.Caller{Type: models.CallerEmployee}, env)

	s.True(dErrors.HasCode(err, dErrors.CodeInvalidUpdate))
	s.Empty(s.sink.events)
}

func (s *ServiceSuite) TestUpdatePreservesImmutableFields() {
	created := s.now.Add(-48 * time.Hour).UnixMilli()
	s.seed("c-1", "acc-1", created)

	env := s.envelope()
	env.Complaint.ID = "c-1"
	env.Complaint.AccountID = "acc-1"
	env.Complaint.Reporter = nil
	env.Complaint.ServiceRequestID = "forged"
	env.Workflow.Action = "ASSIGN"
	env.Workflow.Documents = []models.Document{{DocumentType: "PHOTO", FileStoreID: "fs-1"}}
	caller := models.Caller{ID: "emp-7", Type: models.CallerEmployee}

	result, err := s.service.Update(s.ctx, caller, env)

	s.Require().NoError(err)
	s.Equal("GRV-c-1", result.Complaint.ServiceRequestID)
	s.Equal("acc-1", result.Complaint.AuditDetails.CreatedBy)
	s.Equal(created, result.Complaint.AuditDetails.CreatedTime)
	s.Equal("emp-7", result.Complaint.AuditDetails.LastModifiedBy)
	s.Equal(s.now.UnixMilli(), result.Complaint.AuditDetails.LastModifiedTime)
	s.Require().Len(result.Workflow.Documents, 1)
	s.NotEmpty(result.Workflow.Documents[0].ID)

	s.Require().Len(s.sink.events, 1)
	s.Equal("grievance-update", s.sink.events[0].topic)
}

func (s *ServiceSuite) TestSearchCitizenEmptyCriteriaUsesOwnMobile() {
	s.resolver.mobileIndex["9999999999"] = []string{"acc-1"}
	s.seed("c-1", "acc-1", 100)
	s.seed("c-2", "acc-other", 200)

	caller := models.Caller{ID: "acc-1", Type: models.CallerCitizen, MobileNumber: "9999999999"}
	results, err := s.service.Search(s.ctx, caller, models.SearchCriteria{TenantID: "pb.amritsar"})

	s.Require().NoError(err)
	s.Equal([]string{"9999999999"}, s.resolver.filterCalls)
	s.Require().Len(results, 1)
	s.Equal("c-1", results[0].Complaint.ID)
}

func (s *ServiceSuite) TestSearchUnknownMobileShortCircuits() {
	s.seed("c-1", "acc-1", 100)

	caller := models.Caller{Type: models.CallerEmployee}
	results, err := s.service.Search(s.ctx, caller,
		models.SearchCriteria{TenantID: "pb.amritsar", MobileNumber: "0000000000"})

	s.Require().NoError(err)
	s.Empty(results)
	s.Zero(s.workflow.bulkResolutions)
}

func (s *ServiceSuite) TestSearchAttachesIdentityAndWorkflow() {
	s.seed("c-1", "acc-1", 100)

	results, err := s.service.Search(s.ctx, models.Caller{Type: models.CallerEmployee},
		models.SearchCriteria{TenantID: "pb.amritsar", ServiceCode: "StreetLightNotWorking"})

	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Require().NotNil(results[0].Complaint.Reporter)
	s.Equal("acc-1", results[0].Complaint.Reporter.UUID)
	s.Require().NotNil(results[0].Workflow)
	// Stored status survives bulk workflow resolution.
	s.Equal("PENDINGFORASSIGNMENT", results[0].Complaint.ApplicationStatus)
	s.Equal(1, s.workflow.bulkResolutions)
}

func (s *ServiceSuite) TestSearchOrdersNewestFirst() {
	s.seed("c-old", "acc-1", 100)
	s.seed("c-new", "acc-1", 300)
	s.seed("c-mid", "acc-1", 200)

	results, err := s.service.Search(s.ctx, models.Caller{Type: models.CallerEmployee},
		models.SearchCriteria{TenantID: "pb.amritsar", ServiceCode: "StreetLightNotWorking"})

	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.Equal("c-new", results[0].Complaint.ID)
	s.Equal("c-mid", results[1].Complaint.ID)
	s.Equal("c-old", results[2].Complaint.ID)
}

func (s *ServiceSuite) TestSearchKeepsSeedOrderAcrossEqualCreatedTime() {
	// A tie on createdTime must not reshuffle results; enough tied rows that
	// an unstable sort would actually move them.
	for i := 0; i < 16; i++ {
		s.seed(fmt.Sprintf("c-tie-%02d", i), "acc-1", 500)
	}
	s.seed("c-newest", "acc-1", 900)

	results, err := s.service.Search(s.ctx, models.Caller{Type: models.CallerEmployee},
		models.SearchCriteria{TenantID: "pb.amritsar", ServiceCode: "StreetLightNotWorking", Limit: 50})

	s.Require().NoError(err)
	s.Require().Len(results, 17)
	s.Equal("c-newest", results[0].Complaint.ID)
	for i := 0; i < 16; i++ {
		s.Equal(fmt.Sprintf("c-tie-%02d", i), results[i+1].Complaint.ID)
	}
}

func (s *ServiceSuite) TestSearchValidationFailure() {
	s.validator.failWith = dErrors.New(dErrors.CodeInvalidSearch, "Search without params is not allowed")

	_, err := s.service.Search(s.ctx, models.Caller{Type: models.CallerEmployee},
		models.SearchCriteria{TenantID: "pb.amritsar"})

	s.True(dErrors.HasCode(err, dErrors.CodeInvalidSearch))
}

func (s *ServiceSuite) TestCountMatchesWithoutPagination() {
	for i := 0; i < 15; i++ {
		s.seed(string(rune('a'+i)), "acc-1", int64(i))
	}

	count, err := s.service.Count(s.ctx, models.Caller{Type: models.CallerEmployee},
		models.SearchCriteria{TenantID: "pb.amritsar", ServiceCode: "StreetLightNotWorking", Limit: 5})

	s.Require().NoError(err)
	s.Equal(15, count)
}

func (s *ServiceSuite) TestStatsRequiresTenant() {
	_, err := s.service.Stats(s.ctx, "")

	s.True(dErrors.HasCode(err, dErrors.CodeInvalidSearch))
}

func (s *ServiceSuite) TestStatsAggregates() {
	s.memory.Put(&models.Complaint{
		ID: "r-1", TenantID: "pb.amritsar", ApplicationStatus: "RESOLVED",
		AuditDetails: models.AuditDetails{CreatedTime: 0, LastModifiedTime: 1000},
	})
	s.memory.Put(&models.Complaint{
		ID: "r-2", TenantID: "pb.amritsar", ApplicationStatus: "RESOLVED",
		AuditDetails: models.AuditDetails{CreatedTime: 0, LastModifiedTime: 3000},
	})

	stats, err := s.service.Stats(s.ctx, "pb.amritsar")

	s.Require().NoError(err)
	s.Equal(int64(2), stats.ComplaintsResolved)
	s.Equal(int64(2000), stats.AverageResolutionTimeMillis)
}
