package dto

// IngestRequest carries one candidate posting from the scraping collaborator.
// All fields are raw free text; blank and "N/A" both mean "not observed".
type IngestRequest struct {
	URL               string `json:"url" binding:"required"`
	Website           string `json:"website"`
	Title             string `json:"title"`
	Company           string `json:"company"`
	Location          string `json:"location"`
	RoleType          string `json:"roleType"`
	Salary            string `json:"salary"`
	DatePosted        string `json:"datePosted"`
	Duration          string `json:"duration"`
	WorkAuthorization string `json:"workAuthorizationRequirement"`
	JobDescription    string `json:"jobDescription"`
}

// ListRecordsRequest holds the list query parameters.
type ListRecordsRequest struct {
	Query string `form:"q"`
}

// UpdateRecordRequest is the PATCH body; nil fields are left untouched.
type UpdateRecordRequest struct {
	Applied *bool   `json:"applied"`
	Note    *string `json:"note"`
}

// StatsResponse summarizes the collection for the dashboard.
type StatsResponse struct {
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Pending   int            `json:"pending"`
	PerDay    map[string]int `json:"perDay"`
}
