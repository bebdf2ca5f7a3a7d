package orchestrator

import (
	"fmt"
	"strings"

	"github.com/opennotebook/workshop/pkg/config"
	"github.com/opennotebook/workshop/pkg/models"
)

// generateReport renders the session transcript as a markdown report,
// grouped by round and agent, with tool usage summarized per turn. The last
// turn of the transcript is treated as the concluding statement and gets its
// own section.
func generateReport(session *models.Session, mode *config.ModeConfig) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Workshop Report: %s\n\n", session.Topic)
	fmt.Fprintf(&b, "**Mode:** %s  \n", mode.Name)
	fmt.Fprintf(&b, "**Agents:** %d  \n", len(mode.Agents))
	fmt.Fprintf(&b, "**Date:** %s\n\n", session.CreatedAt.Format("2006-01-02 15:04 MST"))

	turns := session.Turns
	var conclusion *models.Turn
	if len(turns) > 1 {
		conclusion = &turns[len(turns)-1]
		turns = turns[:len(turns)-1]
	}

	currentRound := 0
	for i := range turns {
		turn := &turns[i]
		if turn.Round != currentRound {
			currentRound = turn.Round
			fmt.Fprintf(&b, "## Round %d\n\n", currentRound)
		}
		writeTurn(&b, turn)
	}

	if conclusion != nil {
		fmt.Fprintf(&b, "## Conclusion\n\n")
		writeTurn(&b, conclusion)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeTurn(b *strings.Builder, turn *models.Turn) {
	fmt.Fprintf(b, "### %s\n\n", turn.AgentName)
	if turn.Error {
		fmt.Fprintf(b, "*This agent failed to respond: %s*\n\n", turn.Content)
		return
	}
	fmt.Fprintf(b, "%s\n\n", turn.Content)
	if len(turn.ToolCalls) > 0 {
		names := make([]string, len(turn.ToolCalls))
		for i, call := range turn.ToolCalls {
			names[i] = call.Tool
		}
		fmt.Fprintf(b, "*Tools used: %s*\n\n", strings.Join(names, ", "))
	}
}
