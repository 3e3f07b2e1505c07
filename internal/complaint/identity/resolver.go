// Package identity resolves grievance reporters against the canonical
// identity service: fetch-by-account-id for known reporters, upsert-by-mobile
// for inline reporter details, and bulk attachment for search results.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/ports"
	dErrors "grievance/pkg/domain-errors"
	pstrings "grievance/pkg/platform/strings"
)

const citizenUserType = "CITIZEN"

// Resolver is the sole writer of identity records. At most one identity write
// (create or update) happens per mutation.
type Resolver struct {
	client ports.IdentityClient
	logger *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets a logger for upsert reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver builds a Resolver over the identity service client.
func NewResolver(client ports.IdentityClient, opts ...Option) *Resolver {
	r := &Resolver{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveForMutation rewrites the envelope to reference a canonical identity
// by stable account id. A reporter already referenced by account id is
// fetched and must exist; inline reporter details are upserted by mobile
// number within the state-level tenant scope.
func (r *Resolver) ResolveForMutation(ctx context.Context, envelope *models.Envelope) (*models.Envelope, error) {
	complaint := *envelope.Complaint

	switch {
	case complaint.AccountID != "":
		found, err := r.searchOne(ctx, ports.IdentitySearch{
			TenantID:  models.StateLevelTenant(complaint.TenantID),
			AccountID: complaint.AccountID,
			UserType:  citizenUserType,
			Active:    true,
		})
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, dErrors.New(dErrors.CodeInvalidAccountID, "no user exists for the given accountId")
		}
		complaint.Reporter = found

	case complaint.Reporter != nil:
		resolved, err := r.upsert(ctx, complaint.TenantID, *complaint.Reporter)
		if err != nil {
			return nil, err
		}
		complaint.AccountID = resolved.UUID
		complaint.Reporter = resolved
	}

	return &models.Envelope{Complaint: &complaint, Workflow: envelope.Workflow}, nil
}

// BulkResolve attaches identities to search results with a single bulk
// lookup over the distinct reporter account ids.
func (r *Resolver) BulkResolve(ctx context.Context, envelopes []*models.Envelope) ([]*models.Envelope, error) {
	ids := make([]string, 0, len(envelopes))
	for _, env := range envelopes {
		ids = append(ids, env.Complaint.AccountID)
	}
	ids = pstrings.DedupeAndTrim(ids)
	if len(ids) == 0 {
		return envelopes, nil
	}

	identities, err := r.client.Search(ctx, ports.IdentitySearch{
		UUIDs:    ids,
		UserType: citizenUserType,
		Active:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("bulk identity search: %w", err)
	}
	if len(identities) == 0 {
		return nil, dErrors.New(dErrors.CodeUserNotFound, "no user found for the given account ids")
	}

	byID := make(map[string]models.Identity, len(identities))
	for _, identity := range identities {
		byID[identity.UUID] = identity
	}

	enriched := make([]*models.Envelope, 0, len(envelopes))
	for _, env := range envelopes {
		complaint := *env.Complaint
		if identity, ok := byID[complaint.AccountID]; ok {
			complaint.Reporter = &identity
		}
		enriched = append(enriched, &models.Envelope{Complaint: &complaint, Workflow: env.Workflow})
	}
	return enriched, nil
}

// ResolveSearchFilter translates a mobile-number predicate into the account
// ids the query builder filters on. The identity service is the only
// mobile-number index.
func (r *Resolver) ResolveSearchFilter(ctx context.Context, tenantID, mobileNumber string) ([]string, error) {
	identities, err := r.client.Search(ctx, ports.IdentitySearch{
		TenantID:     tenantID,
		MobileNumber: mobileNumber,
		UserType:     citizenUserType,
		Active:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("identity search by mobile: %w", err)
	}
	ids := make([]string, 0, len(identities))
	for _, identity := range identities {
		ids = append(ids, identity.UUID)
	}
	return ids, nil
}

// upsert searches by mobile number at state level and reuses, updates, or
// creates the identity. Exactly one write happens, never both.
func (r *Resolver) upsert(ctx context.Context, tenantID string, reporter models.Identity) (*models.Identity, error) {
	stateTenant := models.StateLevelTenant(tenantID)
	found, err := r.searchOne(ctx, ports.IdentitySearch{
		TenantID:     stateTenant,
		MobileNumber: reporter.MobileNumber,
		UserType:     citizenUserType,
		Active:       true,
	})
	if err != nil {
		return nil, err
	}

	if found == nil {
		created, err := r.client.Create(ctx, withDefaults(reporter, stateTenant))
		if err != nil {
			return nil, fmt.Errorf("create identity: %w", err)
		}
		if r.logger != nil {
			r.logger.InfoContext(ctx, "created identity for reporter", "account_id", created.UUID)
		}
		return &created, nil
	}

	if !strings.EqualFold(found.Name, reporter.Name) {
		found.Name = reporter.Name
		updated, err := r.client.Update(ctx, *found)
		if err != nil {
			return nil, fmt.Errorf("update identity: %w", err)
		}
		return &updated, nil
	}

	return found, nil
}

func (r *Resolver) searchOne(ctx context.Context, criteria ports.IdentitySearch) (*models.Identity, error) {
	if criteria.AccountID != "" {
		criteria.UUIDs = []string{criteria.AccountID}
		criteria.AccountID = ""
	}
	identities, err := r.client.Search(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("identity search: %w", err)
	}
	if len(identities) == 0 {
		return nil, nil
	}
	return &identities[0], nil
}

// withDefaults applies the identity-service conventions for citizen records:
// username is the mobile number, scope is state level, the citizen role is
// granted, and the record starts active.
func withDefaults(reporter models.Identity, stateTenant string) models.Identity {
	reporter.UserName = reporter.MobileNumber
	reporter.TenantID = stateTenant
	reporter.Type = citizenUserType
	reporter.Active = true
	reporter.Roles = []models.Role{{
		Code:     "CITIZEN",
		Name:     "citizen",
		TenantID: stateTenant,
	}}
	return reporter
}
