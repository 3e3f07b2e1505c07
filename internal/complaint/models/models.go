// Package models defines the grievance domain records exchanged between the
// validator, identity resolver, workflow coordinator, store and transport.
package models

import "strings"

// CallerType is the closed set of caller categories the service recognizes.
// Policy (searchable parameters, enrichment rules) is keyed by this type.
type CallerType string

const (
	CallerCitizen  CallerType = "CITIZEN"
	CallerEmployee CallerType = "EMPLOYEE"
	CallerSystem   CallerType = "SYSTEM"
)

// Caller is the authenticated principal issuing a request, derived from the
// token claims by transport middleware.
type Caller struct {
	ID           string
	Type         CallerType
	Name         string
	MobileNumber string
	TenantID     string
	Roles        []string
}

// AuditDetails records who touched a record and when, in epoch milliseconds.
type AuditDetails struct {
	CreatedBy        string `json:"createdBy"`
	LastModifiedBy   string `json:"lastModifiedBy"`
	CreatedTime      int64  `json:"createdTime"`
	LastModifiedTime int64  `json:"lastModifiedTime"`
}

// Address locates the complaint. Assigned its own id on create.
type Address struct {
	ID        string  `json:"id"`
	TenantID  string  `json:"tenantId"`
	Locality  string  `json:"locality"`
	City      string  `json:"city"`
	District  string  `json:"district"`
	Region    string  `json:"region"`
	State     string  `json:"state"`
	Pincode   string  `json:"pincode"`
	Landmark  string  `json:"landmark"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// Document is a supporting attachment carried on the workflow action.
type Document struct {
	ID           string `json:"id"`
	DocumentType string `json:"documentType"`
	FileStoreID  string `json:"fileStoreId"`
	DocumentUID  string `json:"documentUid"`
}

// Role is an identity-service role grant.
type Role struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	TenantID string `json:"tenantId"`
}

// Identity is the canonical citizen record owned by the identity service. The
// identity resolver is the only writer of these through that service.
type Identity struct {
	UUID         string `json:"uuid"`
	UserName     string `json:"userName"`
	Name         string `json:"name"`
	MobileNumber string `json:"mobileNumber"`
	Type         string `json:"type"`
	TenantID     string `json:"tenantId"`
	Active       bool   `json:"active"`
	Roles        []Role `json:"roles,omitempty"`
}

// Complaint is one citizen grievance record. The id is generated once at
// creation and never reassigned; ApplicationStatus mirrors the workflow
// engine's latest answer and is never computed here.
type Complaint struct {
	ID                string       `json:"id"`
	TenantID          string       `json:"tenantId"`
	ServiceCode       string       `json:"serviceCode"`
	ServiceRequestID  string       `json:"serviceRequestId"`
	Description       string       `json:"description"`
	AccountID         string       `json:"accountId"`
	Reporter          *Identity    `json:"citizen,omitempty"`
	ApplicationStatus string       `json:"applicationStatus"`
	Source            string       `json:"source"`
	Address           *Address     `json:"address"`
	Active            bool         `json:"active"`
	AuditDetails      AuditDetails `json:"auditDetails"`
}

// Workflow is the transient action input forwarded to the workflow engine.
// The durable counterpart is the engine's process instance, correlated by the
// complaint's service-request id.
type Workflow struct {
	Action    string     `json:"action"`
	Assignees []string   `json:"assignes,omitempty"`
	Comments  string     `json:"comments,omitempty"`
	Documents []Document `json:"verificationDocuments,omitempty"`
}

// Envelope pairs a complaint with its current workflow state. It is the unit
// returned by search and the unit mutated by create/update.
type Envelope struct {
	Complaint *Complaint `json:"service"`
	Workflow  *Workflow  `json:"workflow"`
}

// StateLevelTenant reduces a hierarchical tenant id ("state.locality") to its
// top segment.
func StateLevelTenant(tenantID string) string {
	if idx := strings.IndexByte(tenantID, '.'); idx >= 0 {
		return tenantID[:idx]
	}
	return tenantID
}

// IsStateLevel reports whether the tenant id has only the top segment.
func IsStateLevel(tenantID string) bool {
	return !strings.ContainsRune(tenantID, '.')
}
