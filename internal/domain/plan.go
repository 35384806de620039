package domain

import "fmt"

// PlanRequest is one caller-submitted media plan generation task. The ids are
// assigned upstream by the CMS plugin that inserts the campaign row; the rest
// of the payload is passed through to the generation backend verbatim.
type PlanRequest struct {
	RequestID int64 `json:"request_id"`
	UserID    int64 `json:"user_id"`

	OrganizationName   string `json:"organization_name,omitempty"`
	CampaignName       string `json:"media_campaign_name,omitempty"`
	EntityType         string `json:"type_of_entity,omitempty"`
	TargetSector       string `json:"target_sector,omitempty"`
	TargetAge          int    `json:"target_age,omitempty"`
	TargetGeo          string `json:"target_geographic_location,omitempty"`
	Interests          string `json:"interests,omitempty"`
	Goals              string `json:"goals,omitempty"`
	CampaignBudget     string `json:"campaign_budget,omitempty"`
	CampaignDuration   string `json:"campaign_duration,omitempty"`
	StartDate          string `json:"start_date,omitempty"`
	EndDate            string `json:"end_date,omitempty"`
	Platforms          string `json:"platforms,omitempty"`
	ToneOfSpeech       string `json:"tone_of_speech,omitempty"`
	ContentLanguage    string `json:"content_language,omitempty"`
	VisualIdentity     int    `json:"visual_identity,omitempty"`
	HasPriorPlan       int    `json:"is_there_a_prior_plan,omitempty"`
	SponsoredCampaigns int    `json:"sponsored_campaigns,omitempty"`

	// EmergencyPlan selects the extended plan template when present.
	EmergencyPlan *string `json:"emergency_plan,omitempty"`
}

// Validate rejects requests whose identifiers are missing or out of range.
func (r *PlanRequest) Validate() error {
	if r.RequestID <= 0 {
		return fmt.Errorf("%w: request_id must be > 0", ErrInvalidRequest)
	}
	if r.UserID <= 0 {
		return fmt.Errorf("%w: user_id must be > 0", ErrInvalidRequest)
	}
	return nil
}

// WantsEmergencyPlan reports whether the caller asked for the crisis section.
func (r *PlanRequest) WantsEmergencyPlan() bool {
	return r.EmergencyPlan != nil
}
