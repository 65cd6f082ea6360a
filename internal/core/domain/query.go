package domain

// QueryFilters narrows interrogation results by extracted metadata values.
type QueryFilters struct {
	AgreementTypes []string `json:"agreement_types,omitempty"`
	Jurisdictions  []string `json:"jurisdictions,omitempty"`
	Industries     []string `json:"industries,omitempty"`
	Geographies    []string `json:"geographies,omitempty"`
}

// Empty reports whether no filter value is set.
func (f QueryFilters) Empty() bool {
	return len(f.AgreementTypes) == 0 && len(f.Jurisdictions) == 0 &&
		len(f.Industries) == 0 && len(f.Geographies) == 0
}

// QueryParams is one immutable interrogation request. Mutating any field
// means building a whole new value.
type QueryParams struct {
	Question   string       `json:"question"`
	MaxResults int          `json:"max_results"`
	Page       int          `json:"page"`
	Filters    QueryFilters `json:"filters"`
	SortBy     string       `json:"sort_by"`
	SortOrder  string       `json:"sort_order"`
}

// Normalize fills the defaults the query endpoint guarantees.
func (p QueryParams) Normalize() QueryParams {
	out := p
	if out.MaxResults <= 0 {
		out.MaxResults = 10
	}
	if out.MaxResults > 100 {
		out.MaxResults = 100
	}
	if out.Page <= 0 {
		out.Page = 1
	}
	if out.SortBy == "" {
		out.SortBy = "relevance"
	}
	if out.SortOrder != "asc" {
		out.SortOrder = "desc"
	}
	return out
}

// QueryAnalysis is the rule-derived intent of a natural-language question:
// which metadata fields it implies and which equality filters to apply.
type QueryAnalysis struct {
	FieldsNeeded []string
	Filters      map[string]string
	ReturnFields []string
}

// QueryResult is one matching document row.
type QueryResult struct {
	Document   string            `json:"document"`
	DocumentID int64             `json:"document_id"`
	Metadata   map[string]string `json:"metadata"`
}

// QueryResponse is the full interrogation response including pagination.
type QueryResponse struct {
	Question        string        `json:"question"`
	Results         []QueryResult `json:"results"`
	TotalResults    int           `json:"total_results"`
	Page            int           `json:"page"`
	PerPage         int           `json:"per_page"`
	TotalPages      int           `json:"total_pages"`
	ExecutionTimeMS int64         `json:"execution_time_ms"`
	FiltersApplied  QueryFilters  `json:"filters_applied"`
}

// QueryLogEntry records an executed interrogation for suggestions and audit.
type QueryLogEntry struct {
	UserID          int64
	QueryText       string
	ResultCount     int
	ExecutionTimeMS int64
}

// DashboardStats are the derived aggregates shown on the dashboard.
type DashboardStats struct {
	TotalDocuments     int            `json:"total_documents"`
	ProcessedDocuments int            `json:"processed_documents"`
	PendingDocuments   int            `json:"pending_documents"`
	FailedDocuments    int            `json:"failed_documents"`
	TotalPages         int            `json:"total_pages"`
	AgreementTypes     map[string]int `json:"agreement_types"`
	Jurisdictions      map[string]int `json:"jurisdictions"`
	Industries         map[string]int `json:"industries"`
	Geographies        map[string]int `json:"geographies"`
}
