package domain

// CampaignSnapshot is the slice of campaign data the caller currently has on
// screen, forwarded as chat context.
type CampaignSnapshot struct {
	OrganizationName string `json:"organization_name,omitempty"`
	CampaignName     string `json:"media_campaign_name,omitempty"`
	Goals            string `json:"goals,omitempty"`
	Platforms        string `json:"platforms,omitempty"`
	TargetGeo        string `json:"target_geographic_location,omitempty"`
	LatestPlan       string `json:"latest_plan,omitempty"`
}

// ChatTurn is a single chat exchange. It exists only for the duration of one
// streaming response; only the first visible snapshot is used for context.
type ChatTurn struct {
	SessionID     string             `json:"session_id"`
	UserID        int64              `json:"user_id"`
	Message       string             `json:"message"`
	VisibleValues []CampaignSnapshot `json:"visible_values"`
}
