package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/taskdeck/taskdeck/internal/domain"
)

// GeminiClient implements domain.ChatModel on the Gemini API with function
// calling and streamed output.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a ChatModel backed by the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// GenerateTurn implements domain.ChatModel. Text deltas are forwarded to
// onDelta as chunks arrive; function calls are collected across the stream
// and returned with the assembled turn.
func (g *GeminiClient) GenerateTurn(
	ctx context.Context,
	req domain.ModelRequest,
	onDelta func(string),
) (*domain.ModelTurn, error) {
	contents, err := toContents(req.Messages)
	if err != nil {
		return nil, err
	}

	temp := float32(0.7)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temp,
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(req.Tools)}}
	}

	turn := &domain.ModelTurn{}
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.modelName, contents, cfg) {
		if err != nil {
			return nil, fmt.Errorf("gemini stream: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Thought {
				continue
			}
			if part.Text != "" {
				turn.Text += part.Text
				if onDelta != nil {
					onDelta(part.Text)
				}
			}
			if part.FunctionCall != nil {
				callID := part.FunctionCall.ID
				if callID == "" {
					// Gemini omits call ids; results still need to be
					// individually attributable.
					callID = uuid.NewString()
				}
				turn.ToolCalls = append(turn.ToolCalls, domain.ToolCall{
					ID:   callID,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
			}
		}
	}
	return turn, nil
}

// toContents maps the persisted message shape onto the Gemini wire shape.
func toContents(msgs []domain.ChatMessage) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, m := range msgs {
		var role genai.Role
		switch m.Role {
		case domain.RoleAssistant:
			role = genai.RoleModel
		default:
			// Tool results travel back with the user role.
			role = genai.RoleUser
		}

		var parts []*genai.Part
		for _, p := range m.Parts {
			switch p.Type {
			case domain.PartText:
				parts = append(parts, genai.NewPartFromText(p.Text))
			case domain.PartToolCall:
				var args map[string]any
				if len(p.Args) > 0 {
					if err := json.Unmarshal(p.Args, &args); err != nil {
						return nil, fmt.Errorf("tool-call args for %s: %w", p.Tool, err)
					}
				}
				parts = append(parts, genai.NewPartFromFunctionCall(p.Tool, args))
			case domain.PartToolResult:
				parts = append(parts, genai.NewPartFromFunctionResponse(p.Tool, toResponseMap(p.Result)))
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents, nil
}

// toResponseMap shapes an arbitrary JSON tool result into the object the
// FunctionResponse part requires.
func toResponseMap(raw json.RawMessage) map[string]any {
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap
	}
	var asAny any
	if err := json.Unmarshal(raw, &asAny); err != nil {
		return map[string]any{"result": string(raw)}
	}
	return map[string]any{"result": asAny}
}

func toDeclarations(defs []domain.ToolDefinition) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		params := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{},
			Required:   def.Schema.Required,
		}
		for name, prop := range def.Schema.Properties {
			params.Properties[name] = &genai.Schema{
				Type:        genai.TypeString,
				Description: prop.Description,
				Enum:        prop.Enum,
			}
		}
		out = append(out, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  params,
		})
	}
	return out
}
