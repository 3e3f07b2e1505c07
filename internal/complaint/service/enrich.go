package service

import (
	"context"

	"github.com/google/uuid"

	"grievance/internal/complaint/models"
	"grievance/pkg/requestcontext"
)

// Enrichment stages are pure: each takes an envelope and returns a new copy
// with the derived fields filled in. Nothing here talks to a collaborator.

// openingAction is the engine action that opens a fresh process instance.
const openingAction = "APPLY"

// defaultCreateAction fills in the opening workflow action when the request
// carries none; create always starts the process instance.
func defaultCreateAction(envelope *models.Envelope) *models.Envelope {
	if envelope.Workflow != nil && envelope.Workflow.Action != "" {
		return envelope
	}
	wf := models.Workflow{Action: openingAction}
	if envelope.Workflow != nil {
		wf = *envelope.Workflow
		wf.Action = openingAction
	}
	return &models.Envelope{Complaint: envelope.Complaint, Workflow: &wf}
}

// defaultAccountID stamps a citizen caller as the reporter when the request
// names neither an account id nor inline reporter details.
func defaultAccountID(caller models.Caller, envelope *models.Envelope) *models.Envelope {
	if caller.Type != models.CallerCitizen {
		return envelope
	}
	complaint := *envelope.Complaint
	if complaint.AccountID == "" && complaint.Reporter == nil {
		complaint.AccountID = caller.ID
	}
	return &models.Envelope{Complaint: &complaint, Workflow: envelope.Workflow}
}

// enrichForCreate mints the internal and address ids, stamps the audit trail
// with the request time, marks the record active and attaches the generated
// business id.
func enrichForCreate(ctx context.Context, caller models.Caller, envelope *models.Envelope, serviceRequestID string) *models.Envelope {
	now := requestcontext.Now(ctx).UnixMilli()
	complaint := *envelope.Complaint

	complaint.ID = uuid.NewString()
	complaint.ServiceRequestID = serviceRequestID
	complaint.Active = true
	complaint.AuditDetails = models.AuditDetails{
		CreatedBy:        caller.ID,
		LastModifiedBy:   caller.ID,
		CreatedTime:      now,
		LastModifiedTime: now,
	}
	if complaint.Address != nil {
		address := *complaint.Address
		address.ID = uuid.NewString()
		address.TenantID = complaint.TenantID
		complaint.Address = &address
	}
	return &models.Envelope{Complaint: &complaint, Workflow: withDocumentIDs(envelope.Workflow)}
}

// enrichForUpdate refreshes the last-modified audit pair and restores the
// immutable fields from the stored record so callers cannot rewrite them.
func enrichForUpdate(ctx context.Context, caller models.Caller, envelope *models.Envelope, existing *models.Complaint) *models.Envelope {
	complaint := *envelope.Complaint

	complaint.ServiceRequestID = existing.ServiceRequestID
	complaint.AuditDetails = models.AuditDetails{
		CreatedBy:        existing.AuditDetails.CreatedBy,
		CreatedTime:      existing.AuditDetails.CreatedTime,
		LastModifiedBy:   caller.ID,
		LastModifiedTime: requestcontext.Now(ctx).UnixMilli(),
	}
	if complaint.AccountID == "" {
		complaint.AccountID = existing.AccountID
	}
	return &models.Envelope{Complaint: &complaint, Workflow: withDocumentIDs(envelope.Workflow)}
}

// withDocumentIDs mints ids for workflow attachments that arrived without one.
func withDocumentIDs(wf *models.Workflow) *models.Workflow {
	if wf == nil || len(wf.Documents) == 0 {
		return wf
	}
	copied := *wf
	copied.Documents = make([]models.Document, len(wf.Documents))
	for i, doc := range wf.Documents {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		copied.Documents[i] = doc
	}
	return &copied
}

// withApplicationStatus writes the engine-reported status onto a copy of the
// envelope.
func withApplicationStatus(envelope *models.Envelope, status string) *models.Envelope {
	complaint := *envelope.Complaint
	complaint.ApplicationStatus = status
	return &models.Envelope{Complaint: &complaint, Workflow: envelope.Workflow}
}

// enrichSearchCriteria fills pagination defaults, substitutes a citizen's own
// mobile number into otherwise-empty criteria, and resolves mobile-number
// predicates into account ids. The second return is true when the criteria
// provably match nothing, letting the caller skip the store entirely.
func (s *Service) enrichSearchCriteria(ctx context.Context, caller models.Caller, criteria models.SearchCriteria) (models.SearchCriteria, bool, error) {
	criteria.PlainSearch = false

	if caller.Type == models.CallerCitizen && criteria.IsEmpty() {
		criteria.MobileNumber = caller.MobileNumber
		criteria.AccountID = caller.ID
	}

	if criteria.Limit <= 0 {
		criteria.Limit = s.cfg.DefaultLimit
	}
	if criteria.Limit > s.cfg.MaxLimit {
		criteria.Limit = s.cfg.MaxLimit
	}
	if criteria.Offset < 0 {
		criteria.Offset = s.cfg.DefaultOffset
	}

	if criteria.MobileNumber != "" {
		userIDs, err := s.identity.ResolveSearchFilter(ctx,
			models.StateLevelTenant(criteria.TenantID), criteria.MobileNumber)
		if err != nil {
			return criteria, false, err
		}
		if len(userIDs) == 0 {
			// No identity owns this mobile number, so no complaint can match.
			return criteria, true, nil
		}
		criteria.UserIDs = userIDs
	} else if criteria.AccountID != "" {
		criteria.UserIDs = []string{criteria.AccountID}
	}

	return criteria, false, nil
}
