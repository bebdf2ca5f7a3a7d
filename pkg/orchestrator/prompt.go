package orchestrator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opennotebook/workshop/pkg/config"
	"github.com/opennotebook/workshop/pkg/models"
)

const noStatementPlaceholder = "(no statement yet)"

// buildPrompt renders an agent's user prompt template against the session
// state. Supported placeholders:
//
//	{topic}              the session topic
//	{context}            caller-supplied context map, one "key: value" per line
//	{previous_opinions}  every prior successful turn, in transcript order
//	{<agent_id>_opinion} the named agent's latest successful turn
//	{<agent_id>_ideas}   alias of the above, for ideation modes
//
// Unfilled agent placeholders render as a neutral marker so round-one agents
// get a coherent prompt before anyone has spoken.
//
// When the workflow step names context agents, transcript placeholders only
// resolve for them: {previous_opinions} is filtered to their turns and other
// agents' {<agent_id>_opinion} placeholders render as the neutral marker. An
// empty context list leaves every agent visible.
func buildPrompt(agent *config.AgentConfig, mode *config.ModeConfig, session *models.Session, contextAgents []string) string {
	visible := func(string) bool { return true }
	if len(contextAgents) > 0 {
		allowed := make(map[string]bool, len(contextAgents))
		for _, id := range contextAgents {
			allowed[id] = true
		}
		visible = func(id string) bool { return allowed[id] }
	}

	pairs := []string{
		"{topic}", session.Topic,
		"{context}", formatContext(session.Context),
		"{previous_opinions}", formatTranscript(session.Turns, visible),
	}
	for _, other := range mode.Agents {
		latest := noStatementPlaceholder
		if visible(other.ID) {
			latest = latestContent(session.Turns, other.ID)
		}
		pairs = append(pairs,
			"{"+other.ID+"_opinion}", latest,
			"{"+other.ID+"_ideas}", latest,
		)
	}
	return strings.NewReplacer(pairs...).Replace(agent.UserPromptTemplate)
}

func formatContext(context map[string]string) string {
	if len(context) == 0 {
		return "(none provided)"
	}
	keys := make([]string, 0, len(context))
	for k := range context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, context[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTranscript(turns []models.Turn, visible func(string) bool) string {
	var b strings.Builder
	for _, turn := range turns {
		if turn.Error || !visible(turn.AgentID) {
			continue
		}
		fmt.Fprintf(&b, "%s (round %d):\n%s\n\n", turn.AgentName, turn.Round, turn.Content)
	}
	if b.Len() == 0 {
		return noStatementPlaceholder
	}
	return strings.TrimRight(b.String(), "\n")
}

func latestContent(turns []models.Turn, agentID string) string {
	content := noStatementPlaceholder
	for _, turn := range turns {
		if turn.AgentID == agentID && !turn.Error {
			content = turn.Content
		}
	}
	return content
}
