package caldav

// Calendar represents a calendar collection on the CalDAV server
type Calendar struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}
