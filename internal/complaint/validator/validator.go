// Package validator enforces the structural and policy constraints every
// mutation and search must satisfy before any external write happens.
package validator

import (
	"context"
	"fmt"
	"time"

	"grievance/internal/complaint/models"
	"grievance/internal/complaint/ports"
	dErrors "grievance/pkg/domain-errors"
	"grievance/pkg/requestcontext"
)

// ActionReopen is the one engine action with preconditions enforced here;
// everything else about the state machine is the engine's business.
const ActionReopen = "REOPEN"

// SearchPolicy is the per-caller-type search rule set. Policy lives in a
// lookup table so adding a caller type stays a one-entry change.
type SearchPolicy struct {
	AllowedParams    map[string]bool
	RequireCriteria  bool
	ForbidStateLevel bool
}

// Config carries the validator's policy knobs.
type Config struct {
	AllowedSources       []string
	CitizenSearchParams  []string
	EmployeeSearchParams []string
	ReopenIdleWindow     time.Duration
}

// Validator checks create, update and search requests. It reads master data
// and HR through their ports but never writes anything.
type Validator struct {
	sources      map[string]bool
	policies     map[models.CallerType]SearchPolicy
	reopenWindow time.Duration
	masterData   ports.MasterDataClient
	hr           ports.HRClient
}

// New builds a Validator from policy config and the master-data and HR
// collaborators.
func New(cfg Config, masterData ports.MasterDataClient, hr ports.HRClient) *Validator {
	sources := make(map[string]bool, len(cfg.AllowedSources))
	for _, s := range cfg.AllowedSources {
		sources[s] = true
	}
	employeePolicy := SearchPolicy{
		AllowedParams:    paramSet(cfg.EmployeeSearchParams),
		RequireCriteria:  true,
		ForbidStateLevel: true,
	}
	return &Validator{
		sources: sources,
		policies: map[models.CallerType]SearchPolicy{
			models.CallerCitizen:  {AllowedParams: paramSet(cfg.CitizenSearchParams)},
			models.CallerEmployee: employeePolicy,
			models.CallerSystem:   {AllowedParams: paramSet(cfg.EmployeeSearchParams)},
		},
		reopenWindow: cfg.ReopenIdleWindow,
		masterData:   masterData,
		hr:           hr,
	}
}

// ValidateCreate checks reporter completeness, submission channel and
// service-code existence. All failures are detected before any mutation.
func (v *Validator) ValidateCreate(ctx context.Context, caller models.Caller, envelope *models.Envelope) error {
	complaint := envelope.Complaint

	if caller.Type == models.CallerEmployee {
		fields := make(map[string]string)
		reporter := complaint.Reporter
		if reporter == nil {
			fields["citizen"] = "reporter details are required for employee-filed grievances"
		} else {
			if reporter.MobileNumber == "" {
				fields["citizen.mobileNumber"] = "mobile number is required in the reporter details"
			}
			if reporter.UserName == "" && reporter.Name == "" {
				fields["citizen.userName"] = "user name is required in the reporter details"
			}
		}
		if len(fields) > 0 {
			return dErrors.NewFields(dErrors.CodeInvalidRequest, fields)
		}
	}

	if err := v.validateSource(complaint.Source); err != nil {
		return err
	}
	return v.validateServiceCode(ctx, complaint.TenantID, complaint.ServiceCode)
}

// ValidateUpdate re-checks source and service code, verifies assignee
// departments against the service's owning department, and enforces the
// reopen preconditions. existing is the stored complaint the update targets;
// nil means the target id does not exist.
func (v *Validator) ValidateUpdate(ctx context.Context, caller models.Caller, envelope *models.Envelope, existing *models.Complaint) error {
	complaint := envelope.Complaint

	if existing == nil {
		return dErrors.Newf(dErrors.CodeInvalidUpdate, "no grievance found for id %s", complaint.ID)
	}
	if err := v.validateSource(complaint.Source); err != nil {
		return err
	}
	if err := v.validateServiceCode(ctx, complaint.TenantID, complaint.ServiceCode); err != nil {
		return err
	}
	if err := v.validateAssignment(ctx, complaint, envelope.Workflow); err != nil {
		return err
	}
	if envelope.Workflow != nil && envelope.Workflow.Action == ActionReopen {
		return v.validateReopen(ctx, caller, existing)
	}
	return nil
}

// ValidateSearch applies the caller-type search policy to the criteria.
func (v *Validator) ValidateSearch(caller models.Caller, criteria models.SearchCriteria) error {
	if criteria.TenantID == "" {
		return dErrors.New(dErrors.CodeInvalidSearch, "tenantId is mandatory search param")
	}

	policy, ok := v.policies[caller.Type]
	if !ok {
		return dErrors.Newf(dErrors.CodeInvalidSearch, "the userType %s does not have any search config", caller.Type)
	}
	if policy.RequireCriteria && criteria.IsEmpty() {
		return dErrors.New(dErrors.CodeInvalidSearch, "Search without params is not allowed")
	}
	if policy.ForbidStateLevel && models.IsStateLevel(criteria.TenantID) {
		return dErrors.Newf(dErrors.CodeInvalidSearch, "%s callers cannot perform state level searches", caller.Type)
	}

	params := []struct {
		name    string
		present bool
	}{
		{"serviceCode", criteria.ServiceCode != ""},
		{"serviceRequestId", criteria.ServiceRequestID != ""},
		{"applicationStatus", criteria.ApplicationStatus != ""},
		{"mobileNumber", criteria.MobileNumber != ""},
		{"ids", len(criteria.IDs) > 0},
	}
	for _, param := range params {
		if param.present && !policy.AllowedParams[param.name] {
			return dErrors.Newf(dErrors.CodeInvalidSearch, "search on %s is not allowed", param.name)
		}
	}
	return nil
}

func (v *Validator) validateSource(source string) error {
	if !v.sources[source] {
		return dErrors.Newf(dErrors.CodeInvalidSource, "the source: %s is not valid", source)
	}
	return nil
}

func (v *Validator) validateServiceCode(ctx context.Context, tenantID, serviceCode string) error {
	definitions, err := v.masterData.ServiceDefinitions(ctx, tenantID, serviceCode)
	if err != nil {
		return fmt.Errorf("master data lookup: %w", err)
	}
	if len(definitions) == 0 {
		return dErrors.Newf(dErrors.CodeInvalidServiceCode, "the service code: %s is not present in master data", serviceCode)
	}
	return nil
}

// validateAssignment requires every assignee's department to match the
// service code's configured owning department.
func (v *Validator) validateAssignment(ctx context.Context, complaint *models.Complaint, wf *models.Workflow) error {
	if wf == nil || len(wf.Assignees) == 0 {
		return nil
	}

	definitions, err := v.masterData.ServiceDefinitions(ctx, complaint.TenantID, complaint.ServiceCode)
	if err != nil {
		return fmt.Errorf("master data lookup: %w", err)
	}
	if len(definitions) == 0 {
		return dErrors.Newf(dErrors.CodeInvalidServiceCode, "the service code: %s is not present in master data", complaint.ServiceCode)
	}
	owning := definitions[0].Department

	departments, err := v.hr.DepartmentsForAccountIDs(ctx, complaint.TenantID, wf.Assignees)
	if err != nil {
		return fmt.Errorf("hr department lookup: %w", err)
	}
	if len(departments) == 0 {
		return dErrors.Newf(dErrors.CodeDepartmentNotFound, "no department found for assignees %v", wf.Assignees)
	}
	for _, dept := range departments {
		if dept != owning {
			return dErrors.Newf(dErrors.CodeInvalidAssignment,
				"assignee department %s does not own service code %s", dept, complaint.ServiceCode)
		}
	}
	return nil
}

// validateReopen allows only the original reporter to reopen, and only while
// the grievance has been idle for less than the configured window.
func (v *Validator) validateReopen(ctx context.Context, caller models.Caller, existing *models.Complaint) error {
	if caller.Type != models.CallerCitizen || caller.ID != existing.AccountID {
		return dErrors.New(dErrors.CodeInvalidAction, "only the grievance reporter can reopen it")
	}
	idle := requestcontext.Now(ctx).UnixMilli() - existing.AuditDetails.LastModifiedTime
	if idle > v.reopenWindow.Milliseconds() {
		return dErrors.New(dErrors.CodeInvalidAction, "the reopen window for this grievance has expired")
	}
	return nil
}

func paramSet(params []string) map[string]bool {
	set := make(map[string]bool, len(params))
	for _, p := range params {
		set[p] = true
	}
	return set
}
