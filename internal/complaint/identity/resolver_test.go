package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/ports"
	dErrors "grievance/pkg/domain-errors"
)

type fakeIdentityClient struct {
	identities []models.Identity
	searches   []ports.IdentitySearch
	created    []models.Identity
	updated    []models.Identity
}

func (f *fakeIdentityClient) Search(_ context.Context, criteria ports.IdentitySearch) ([]models.Identity, error) {
	f.searches = append(f.searches, criteria)

	var out []models.Identity
	for _, identity := range f.identities {
		if criteria.MobileNumber != "" && identity.MobileNumber != criteria.MobileNumber {
			continue
		}
		if len(criteria.UUIDs) > 0 && !uuidIn(criteria.UUIDs, identity.UUID) {
			continue
		}
		out = append(out, identity)
	}
	return out, nil
}

func uuidIn(uuids []string, target string) bool {
	for _, u := range uuids {
		if u == target {
			return true
		}
	}
	return false
}

func (f *fakeIdentityClient) Create(_ context.Context, identity models.Identity) (models.Identity, error) {
	identity.UUID = "new-uuid"
	f.created = append(f.created, identity)
	return identity, nil
}

func (f *fakeIdentityClient) Update(_ context.Context, identity models.Identity) (models.Identity, error) {
	f.updated = append(f.updated, identity)
	return identity, nil
}

type ResolverSuite struct {
	suite.Suite

	client   *fakeIdentityClient
	resolver *Resolver
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.client = &fakeIdentityClient{}
	s.resolver = NewResolver(s.client)
}

func (s *ResolverSuite) envelope(complaint models.Complaint) *models.Envelope {
	return &models.Envelope{Complaint: &complaint, Workflow: &models.Workflow{Action: "APPLY"}}
}

func (s *ResolverSuite) TestMutationWithUnknownAccountID() {
	env := s.envelope(models.Complaint{TenantID: "pb.amritsar", AccountID: "ghost"})

	_, err := s.resolver.ResolveForMutation(context.Background(), env)

	s.True(dErrors.HasCode(err, dErrors.CodeInvalidAccountID))
}

func (s *ResolverSuite) TestMutationWithKnownAccountIDAttachesIdentity() {
	s.client.identities = []models.Identity{{UUID: "acc-1", Name: "Asha", MobileNumber: "9876543210"}}
	env := s.envelope(models.Complaint{TenantID: "pb.amritsar", AccountID: "acc-1"})

	result, err := s.resolver.ResolveForMutation(context.Background(), env)

	s.Require().NoError(err)
	s.Require().NotNil(result.Complaint.Reporter)
	s.Equal("Asha", result.Complaint.Reporter.Name)
	s.Empty(s.client.created)
	s.Empty(s.client.updated)
}

func (s *ResolverSuite) TestMutationCreatesUnknownReporter() {
	env := s.envelope(models.Complaint{
		TenantID: "pb.amritsar",
		Reporter: &models.Identity{Name: "Asha", MobileNumber: "9876543210"},
	})

	result, err := s.resolver.ResolveForMutation(context.Background(), env)

	s.Require().NoError(err)
	s.Equal("new-uuid", result.Complaint.AccountID)
	s.Require().Len(s.client.created, 1)
	created := s.client.created[0]
	// Identity-service conventions for citizen records.
	s.Equal("9876543210", created.UserName)
	s.Equal("pb", created.TenantID)
	s.Equal("CITIZEN", created.Type)
	s.True(created.Active)
	s.Require().Len(created.Roles, 1)
	s.Equal("CITIZEN", created.Roles[0].Code)
	s.Empty(s.client.updated)
}

func (s *ResolverSuite) TestMutationReusesMatchingReporter() {
	s.client.identities = []models.Identity{{UUID: "acc-1", Name: "asha", MobileNumber: "9876543210"}}
	env := s.envelope(models.Complaint{
		TenantID: "pb.amritsar",
		Reporter: &models.Identity{Name: "Asha", MobileNumber: "9876543210"},
	})

	result, err := s.resolver.ResolveForMutation(context.Background(), env)

	s.Require().NoError(err)
	s.Equal("acc-1", result.Complaint.AccountID)
	// Case-insensitive name match means no write at all.
	s.Empty(s.client.created)
	s.Empty(s.client.updated)
}

func (s *ResolverSuite) TestMutationUpdatesRenamedReporter() {
	s.client.identities = []models.Identity{{UUID: "acc-1", Name: "Old Name", MobileNumber: "9876543210"}}
	env := s.envelope(models.Complaint{
		TenantID: "pb.amritsar",
		Reporter: &models.Identity{Name: "New Name", MobileNumber: "9876543210"},
	})

	result, err := s.resolver.ResolveForMutation(context.Background(), env)

	s.Require().NoError(err)
	s.Equal("acc-1", result.Complaint.AccountID)
	s.Empty(s.client.created)
	s.Require().Len(s.client.updated, 1)
	s.Equal("New Name", s.client.updated[0].Name)
}

func (s *ResolverSuite) TestMutationSearchesAtStateLevel() {
	env := s.envelope(models.Complaint{
		TenantID: "pb.amritsar",
		Reporter: &models.Identity{Name: "Asha", MobileNumber: "9876543210"},
	})

	_, err := s.resolver.ResolveForMutation(context.Background(), env)

	s.Require().NoError(err)
	s.Require().NotEmpty(s.client.searches)
	s.Equal("pb", s.client.searches[0].TenantID)
}

func (s *ResolverSuite) TestMutationDoesNotMutateInput() {
	input := s.envelope(models.Complaint{
		TenantID: "pb.amritsar",
		Reporter: &models.Identity{Name: "Asha", MobileNumber: "9876543210"},
	})

	_, err := s.resolver.ResolveForMutation(context.Background(), input)

	s.Require().NoError(err)
	s.Empty(input.Complaint.AccountID)
}

func (s *ResolverSuite) TestBulkResolveAttachesByAccountID() {
	s.client.identities = []models.Identity{
		{UUID: "acc-1", Name: "Asha"},
		{UUID: "acc-2", Name: "Binod"},
	}
	envelopes := []*models.Envelope{
		{Complaint: &models.Complaint{ID: "c-1", AccountID: "acc-1"}},
		{Complaint: &models.Complaint{ID: "c-2", AccountID: "acc-2"}},
		{Complaint: &models.Complaint{ID: "c-3", AccountID: "acc-1"}},
	}

	enriched, err := s.resolver.BulkResolve(context.Background(), envelopes)

	s.Require().NoError(err)
	s.Require().Len(enriched, 3)
	s.Equal("Asha", enriched[0].Complaint.Reporter.Name)
	s.Equal("Binod", enriched[1].Complaint.Reporter.Name)
	s.Equal("Asha", enriched[2].Complaint.Reporter.Name)

	// One bulk search over the distinct account ids.
	s.Require().Len(s.client.searches, 1)
	s.ElementsMatch([]string{"acc-1", "acc-2"}, s.client.searches[0].UUIDs)
}

func (s *ResolverSuite) TestBulkResolveNoMatches() {
	envelopes := []*models.Envelope{
		{Complaint: &models.Complaint{ID: "c-1", AccountID: "ghost"}},
	}

	_, err := s.resolver.BulkResolve(context.Background(), envelopes)

	s.True(dErrors.HasCode(err, dErrors.CodeUserNotFound))
}

func (s *ResolverSuite) TestResolveSearchFilter() {
	s.client.identities = []models.Identity{
		{UUID: "acc-1", MobileNumber: "9876543210"},
		{UUID: "acc-9", MobileNumber: "9876543210"},
	}

	ids, err := s.resolver.ResolveSearchFilter(context.Background(), "pb", "9876543210")

	s.Require().NoError(err)
	s.Equal([]string{"acc-1", "acc-9"}, ids)
}
