package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"mediaplan/internal/domain"
)

// The instruction templates are deterministic and keyed only by whether the
// request carries an emergency plan; everything else reaches the backend via
// the serialized payload.

var planSections = []string{
	"Media objective",
	"Target audience",
	"Key messages",
	"Proposed platforms",
	"Content types (posts, video, infographics, reports, articles)",
	"Timeline with a clear weekly or monthly breakdown",
	"Target KPIs (engagement rate, visits, follower growth, etc.)",
	"Estimated budget aligned with the caller's options",
	"General recommendations (influencer partnerships, sponsored campaigns, profile improvements)",
}

const emergencySection = "Emergency and crisis management plan"

var mandatoryRequirements = []string{
	"Full placement table: Platform | Market (city) | Section/Target | Language | Estimated Impressions | Actual Net Cost | Demographics | Interests/Behaviors | Duration (days).",
	"Event phasing (before / during / after) with objectives and budget per phase.",
	"LinkedIn targeting that names concrete job titles.",
	"Channel-level targets: Leads / Clicks / ROAS per channel in the conversion phase.",
	"Geo split and language split of the budget across cities and languages.",
	"Google and TikTok included as part of the funnel strategy.",
	"Ops recommendations: Facebook-Instagram integration and WhatsApp remarketing.",
	"KPI by channel with numeric targets: CPM / CTR / VTR / CPC / CPA / ROAS.",
	"3D budget matrix (category x channel x funnel stage).",
	"Placement cadence in days with a creative refresh every 10-14 days.",
	"Bidding strategy: start with Lowest-Cost, then move to Cost Cap.",
}

func systemPrompt(emergency bool) string {
	sections := planSections
	if emergency {
		sections = append(append([]string{}, planSections...), emergencySection)
	}
	sb := &strings.Builder{}
	sb.WriteString("You are an expert in Paid Media Buying & Distribution for consumer brands. ")
	sb.WriteString("Produce the plan with exactly the following numbered sections:\n")
	for i, section := range sections {
		fmt.Fprintf(sb, "%d. %s\n", i+1, section)
	}
	return sb.String()
}

func userPrompt(req *domain.PlanRequest) (string, error) {
	payload, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize campaign payload: %w", err)
	}
	sb := &strings.Builder{}
	sb.WriteString("Create a detailed, executable paid media plan based on the following campaign data:\n")
	sb.Write(payload)
	sb.WriteString("\n\nThe plan must mandatorily include:\n")
	for _, requirement := range mandatoryRequirements {
		sb.WriteString("- ")
		sb.WriteString(requirement)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func buildPrompts(req *domain.PlanRequest) (string, string, error) {
	user, err := userPrompt(req)
	if err != nil {
		return "", "", err
	}
	return systemPrompt(req.WantsEmergencyPlan()), user, nil
}
