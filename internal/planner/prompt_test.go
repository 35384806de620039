package planner

import (
	"strings"
	"testing"
)

func TestSystemPromptSectionCount(t *testing.T) {
	base := systemPrompt(false)
	if !strings.Contains(base, "9. General recommendations") {
		t.Fatalf("base prompt is missing the ninth section:\n%s", base)
	}
	if strings.Contains(base, "Emergency and crisis") {
		t.Fatal("base prompt must not carry the crisis section")
	}

	extended := systemPrompt(true)
	if !strings.Contains(extended, "10. Emergency and crisis management plan") {
		t.Fatalf("extended prompt is missing the crisis section:\n%s", extended)
	}
}

func TestUserPromptEmbedsPayloadAndRequirements(t *testing.T) {
	req := testRequest(51)
	req.TargetGeo = "Riyadh, Jeddah"

	prompt, err := userPrompt(req)
	if err != nil {
		t.Fatalf("userPrompt returned error: %v", err)
	}
	for _, want := range []string{
		`"organization_name": "Acme Retail"`,
		`"target_geographic_location": "Riyadh, Jeddah"`,
		"placement table",
		"Cost Cap",
		"creative refresh every 10-14 days",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("user prompt is missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptsSelectsTemplateByEmergencyPlan(t *testing.T) {
	plain := testRequest(52)
	system, _, err := buildPrompts(plain)
	if err != nil {
		t.Fatalf("buildPrompts returned error: %v", err)
	}
	if strings.Contains(system, "crisis") {
		t.Fatal("request without emergency plan selected the extended template")
	}

	crisis := "escalate to the communications lead"
	withPlan := testRequest(53)
	withPlan.EmergencyPlan = &crisis
	system, _, err = buildPrompts(withPlan)
	if err != nil {
		t.Fatalf("buildPrompts returned error: %v", err)
	}
	if !strings.Contains(system, "crisis management plan") {
		t.Fatal("request with emergency plan did not select the extended template")
	}
}
