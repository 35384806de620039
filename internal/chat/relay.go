// Package chat relays campaign-scoped chat turns to the generation backend
// and streams the reply back fragment by fragment.
package chat

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"mediaplan/internal/domain"
	"mediaplan/internal/infra"
	"mediaplan/internal/providers/genai"
	"mediaplan/internal/session"
)

// maxPlanContextChars caps how much of the latest plan text rides along in
// the prompt, keeping token usage bounded for very long plans.
const maxPlanContextChars = 6000

const noCampaignContext = "No campaign data is visible for this conversation."

// Relay verifies the caller's session and opens a streaming completion for
// one chat turn. It holds no per-conversation state; the visible campaign
// snapshot arrives with every turn.
type Relay struct {
	backend  genai.StreamGenerator
	sessions *session.Manager
	logger   infra.Logger
}

func NewRelay(backend genai.StreamGenerator, sessions *session.Manager, logger infra.Logger) *Relay {
	return &Relay{backend: backend, sessions: sessions, logger: logger}
}

// Stream authenticates the turn and returns the backend's reply stream.
// Cancelling ctx aborts the backend call, which is how a disconnected caller
// stops paying for generation.
func (r *Relay) Stream(ctx context.Context, token string, turn *domain.ChatTurn, locale string) (genai.TextStream, error) {
	claims, err := r.sessions.Verify(token)
	if err != nil {
		return nil, err
	}
	if turn.UserID != 0 && turn.UserID != claims.UserID {
		return nil, fmt.Errorf("%w: token does not belong to user %d", domain.ErrUnauthorized, turn.UserID)
	}
	message := strings.TrimSpace(turn.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message must not be empty", domain.ErrInvalidRequest)
	}

	system := buildSystemPrompt(turn, locale)
	r.logger.Info().
		Str("session_id", claims.SessionID).
		Int64("user_id", claims.UserID).
		Int("message_chars", len(message)).
		Msg("chat turn accepted")

	stream, err := r.backend.GenerateTextStream(ctx, system, message)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailure, err)
	}
	return stream, nil
}

func buildSystemPrompt(turn *domain.ChatTurn, locale string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a marketing assistant helping the user refine an existing media plan. ")
	sb.WriteString("Answer only from the campaign context below; when the context does not cover the question, say so and suggest how to obtain the missing data.\n\n")
	sb.WriteString(buildContext(turn))
	if locale != "" {
		fmt.Fprintf(sb, "\nReply in the language identified by the locale %q unless the user asks otherwise.\n", locale)
	}
	return sb.String()
}

func buildContext(turn *domain.ChatTurn) string {
	if len(turn.VisibleValues) == 0 {
		return noCampaignContext
	}
	snap := turn.VisibleValues[0]
	sb := &strings.Builder{}
	sb.WriteString("Campaign context:\n")
	writeField(sb, "Organization", snap.OrganizationName)
	writeField(sb, "Campaign", snap.CampaignName)
	writeField(sb, "Goals", snap.Goals)
	writeField(sb, "Platforms", snap.Platforms)
	writeField(sb, "Target locations", snap.TargetGeo)
	if plan := strings.TrimSpace(snap.LatestPlan); plan != "" {
		if len(plan) > maxPlanContextChars {
			// Back off to a rune boundary; plans are often Arabic and a
			// byte-offset cut could split a multi-byte character.
			cut := maxPlanContextChars
			for cut > 0 && !utf8.RuneStart(plan[cut]) {
				cut--
			}
			plan = plan[:cut] + "\n[plan truncated]"
		}
		sb.WriteString("Latest plan:\n")
		sb.WriteString(plan)
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeField(sb *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(sb, "- %s: %s\n", label, value)
}
