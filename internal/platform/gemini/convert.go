package gemini

import (
	"strings"

	"google.golang.org/genai"

	"github.com/taskchat/taskchat-api/internal/agent"
)

// toContents converts conversation turns into the provider's content
// format. Assistant turns map to the "model" role; tool results are
// sent back as user-role function responses per the Gemini protocol.
func toContents(turns []agent.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case agent.RoleAssistant:
			var parts []*genai.Part
			if turn.Text != "" {
				parts = append(parts, &genai.Part{Text: turn.Text})
			}
			for _, call := range turn.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						Name: call.Name,
						Args: call.Args,
					},
				})
			}
			if len(parts) == 0 {
				parts = append(parts, &genai.Part{Text: ""})
			}
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: parts,
			})

		case agent.RoleTool:
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     turn.ToolResult.Name,
						Response: turn.ToolResult.Output,
					},
				}},
			})

		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: turn.Text}},
			})
		}
	}
	return contents
}

// fromResponse extracts the text and any function calls from the first
// candidate. A response with no candidates yields an empty reply, which
// the orchestrator replaces with its fallback text.
func fromResponse(resp *genai.GenerateContentResponse) *agent.Reply {
	reply := &agent.Reply{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return reply
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		if part.FunctionCall != nil {
			reply.ToolCalls = append(reply.ToolCalls, agent.ToolCall{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			})
			continue
		}
		text.WriteString(part.Text)
	}
	reply.Text = text.String()

	return reply
}

// toSchema translates the neutral parameter schema into the provider's
// schema type.
func toSchema(s *agent.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Type:        toSchemaType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
		Items:       toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}

func toSchemaType(t string) genai.Type {
	switch t {
	case agent.TypeObject:
		return genai.TypeObject
	case agent.TypeString:
		return genai.TypeString
	case agent.TypeBoolean:
		return genai.TypeBoolean
	case agent.TypeInteger:
		return genai.TypeInteger
	default:
		return genai.TypeUnspecified
	}
}
