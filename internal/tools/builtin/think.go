package builtin

import (
	"context"

	"scour/internal/state"
	"scour/internal/tools"
)

// ThinkTool returns the strategic reflection tool. It mutates nothing; it
// exists to force an explicit reasoning checkpoint between actions, and the
// echo keeps the reflection in the conversation for later turns.
func ThinkTool() *tools.Tool {
	return &tools.Tool{
		Name: "think",
		Description: "Record a strategic reflection on research progress. " +
			"Use after each search to assess findings, gaps, and whether to continue searching or answer. " +
			"The reflection should cover: what concrete information was found, what is still missing, " +
			"whether the evidence is sufficient, and the next step.",
		Schema: tools.Schema{
			Required: []string{"reflection"},
			Properties: map[string]tools.Property{
				"reflection": {
					Type:        "string",
					Description: "Detailed reflection on progress, findings, gaps, and next steps",
				},
			},
		},
		Execute: func(ctx context.Context, session *state.Session, args map[string]any) (*tools.Result, error) {
			reflection := tools.StringArg(args, "reflection")
			return &tools.Result{Text: "Reflection recorded: " + reflection}, nil
		},
	}
}
