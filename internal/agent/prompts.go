package agent

import (
	"fmt"
	"strings"

	"scour/internal/research"
)

const todoInstructions = `Use the todo tools to plan and track multi-step work.
- write_todos replaces the whole list; always pass every item with its current status.
- Mark a task in_progress before starting it and completed immediately after finishing it.
- Keep the list short and concrete. One task in_progress at a time.`

const fileInstructions = `You have an in-memory filesystem for offloading context.
- Search results are saved as files automatically; their digests tell you what each file holds.
- Use read_file to pull full detail only when you need it. Use write_file for notes and drafts.
- Use ls to see what has been collected so far.
- Files written by sub-agents appear after the sub-agent finishes.`

const subagentInstructionsFormat = `Delegate research topics with the delegate tool.
- Give each sub-agent exactly one topic. Parallelize independent topics by issuing multiple delegate calls in one turn.
- At most %d sub-agents run concurrently.
- Do not exceed %d delegation rounds; synthesize an answer from what you have instead of delegating again.
- Today's date: %s.`

const researcherInstructionsFormat = `You are a focused research sub-agent. You receive one topic and must research it thoroughly using the internet_search tool.
- After each search, use the think tool to record what you found, what is missing, and whether to keep searching.
- Read saved result files when a digest looks relevant but too thin.
- Stop searching once you have enough evidence and reply with a dense, factual summary of your findings, citing the URLs you used.
- Today's date: %s.`

// SystemInstructions composes the top-level system prompt: todo management,
// file usage, and delegation guidance.
func SystemInstructions(maxConcurrent, maxIterations int) string {
	divider := strings.Repeat("=", 80)
	return "# TODO MANAGEMENT\n" + todoInstructions +
		"\n\n" + divider + "\n\n" +
		"# FILE SYSTEM USAGE\n" + fileInstructions +
		"\n\n" + divider + "\n\n" +
		"# SUB-AGENT DELEGATION\n" + fmt.Sprintf(subagentInstructionsFormat, maxConcurrent, maxIterations, research.Today())
}

// ResearcherInstructions is the system prompt for the bundled research
// sub-agent.
func ResearcherInstructions() string {
	return fmt.Sprintf(researcherInstructionsFormat, research.Today())
}

// ResearchAgent is the bundled sub-agent definition: a researcher that can
// search and reflect, nothing else.
func ResearchAgent() Definition {
	return Definition{
		Name:         "research-agent",
		Description:  "Delegate research to the sub-agent researcher. Only give this researcher one topic at a time.",
		Instructions: ResearcherInstructions(),
		Tools:        []string{"internet_search", "think"},
	}
}
