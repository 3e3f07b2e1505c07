package models

// SearchCriteria is the caller-supplied filter set for complaint search and
// count. Zero values mean "absent"; enrichment fills defaults before the
// query builder sees it.
type SearchCriteria struct {
	TenantID          string   `json:"tenantId"`
	ServiceCode       string   `json:"serviceCode,omitempty"`
	ServiceRequestID  string   `json:"serviceRequestId,omitempty"`
	ApplicationStatus string   `json:"applicationStatus,omitempty"`
	MobileNumber      string   `json:"mobileNumber,omitempty"`
	IDs               []string `json:"ids,omitempty"`

	// AccountID is the caller's own account id, stamped by enrichment; never
	// accepted from the request body.
	AccountID string `json:"-"`

	// UserIDs is the account-id set resolved from MobileNumber; populated by
	// enrichment, never accepted from the caller.
	UserIDs []string `json:"-"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// PlainSearch marks internal full-table reads; operation paths force it
	// to false before querying.
	PlainSearch bool `json:"isPlainSearch,omitempty"`
}

// IsEmpty reports whether no user-facing predicate is set. Tenant id,
// pagination and the enrichment-stamped fields do not count.
func (c SearchCriteria) IsEmpty() bool {
	return c.ServiceCode == "" &&
		c.ServiceRequestID == "" &&
		c.ApplicationStatus == "" &&
		c.MobileNumber == "" &&
		len(c.IDs) == 0
}
