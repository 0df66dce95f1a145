package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"scour/internal/logging"
	"scour/internal/state"
	"scour/internal/tools"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Gemini talks to the Gemini API through the official genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed model client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyMissing
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Gemini{client: client, model: model}, nil
}

// Chat sends the conversation to the model and returns its turn.
func (g *Gemini) Chat(ctx context.Context, req ChatRequest) (*Turn, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{
			FunctionDeclarations: convertDefinitions(req.Tools),
		}}
	}

	contents := convertMessages(req.Messages)
	logging.LLMDebug("chat request: model=%s messages=%d tools=%d", g.model, len(contents), len(req.Tools))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return parseTurn(resp)
}

// Complete runs a single-shot prompt without tools.
func (g *Gemini) Complete(ctx context.Context, req CompleteRequest) (string, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.ForceJSON {
		config.ResponseMIMEType = "application/json"
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	turn, err := parseTurn(resp)
	if err != nil {
		return "", err
	}
	return turn.Text, nil
}

// parseTurn flattens the first candidate into text plus tool calls. Gemini
// does not always populate FunctionCall.ID, so missing IDs get a fresh UUID
// to keep call/result pairing unambiguous.
func parseTurn(resp *genai.GenerateContentResponse) (*Turn, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyResponse
	}

	turn := &Turn{}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			id := part.FunctionCall.ID
			if id == "" {
				id = uuid.NewString()
			}
			turn.ToolCalls = append(turn.ToolCalls, state.ToolCall{
				ID:   id,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
		}
	}
	turn.Text = text.String()

	if turn.Text == "" && len(turn.ToolCalls) == 0 {
		return nil, ErrEmptyResponse
	}
	return turn, nil
}

// convertMessages maps the session transcript onto the Gemini wire shape.
// Consecutive tool results collapse into a single user content so each
// assistant turn with N calls is answered by one content with N responses.
func convertMessages(msgs []state.Message) []*genai.Content {
	var contents []*genai.Content
	var pendingResponses []*genai.Part

	flush := func() {
		if len(pendingResponses) > 0 {
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: pendingResponses,
			})
			pendingResponses = nil
		}
	}

	for _, msg := range msgs {
		switch msg.Role {
		case state.RoleUser:
			flush()
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))

		case state.RoleAssistant:
			flush()
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   call.ID,
						Name: call.Name,
						Args: call.Args,
					},
				})
			}
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: parts,
			})

		case state.RoleTool:
			response := map[string]any{"output": msg.Content}
			if msg.IsError {
				response = map[string]any{"error": msg.Content}
			}
			pendingResponses = append(pendingResponses, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.ToolName,
					Response: response,
				},
			})
		}
	}
	flush()
	return contents
}

// convertDefinitions translates tool definitions into Gemini function
// declarations.
func convertDefinitions(defs []tools.Definition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  convertInputSchema(def.InputSchema),
		})
	}
	return decls
}

func convertInputSchema(schema map[string]any) *genai.Schema {
	out := &genai.Schema{Type: genai.TypeObject}
	if required, ok := schema["required"].([]string); ok {
		out.Required = required
	}
	if props, ok := schema["properties"].(map[string]tools.Property); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			out.Properties[name] = convertProperty(prop)
		}
	}
	return out
}

func convertProperty(prop tools.Property) *genai.Schema {
	out := &genai.Schema{
		Type:        genaiType(prop.Type),
		Description: prop.Description,
	}
	for _, v := range prop.Enum {
		if s, ok := v.(string); ok {
			out.Enum = append(out.Enum, s)
		}
	}
	if prop.Items != nil {
		out.Items = convertGenericSchema(prop.Items)
	}
	return out
}

// convertGenericSchema handles the loosely typed JSON-schema maps used for
// array item declarations.
func convertGenericSchema(raw map[string]any) *genai.Schema {
	out := &genai.Schema{}
	if t, ok := raw["type"].(string); ok {
		out.Type = genaiType(t)
	}
	if d, ok := raw["description"].(string); ok {
		out.Description = d
	}
	if required, ok := raw["required"].([]string); ok {
		out.Required = required
	}
	if enum, ok := raw["enum"].([]string); ok {
		out.Enum = enum
	}
	if items, ok := raw["items"].(map[string]any); ok {
		out.Items = convertGenericSchema(items)
	}
	if props, ok := raw["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, sub := range props {
			if subMap, ok := sub.(map[string]any); ok {
				out.Properties[name] = convertGenericSchema(subMap)
			}
		}
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	}
	return genai.TypeString
}
