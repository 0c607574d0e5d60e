package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/taskchat/taskchat-api/internal/domain"
	"github.com/taskchat/taskchat-api/internal/platform/logger"
)

// fallbackReply is returned when the model produces empty content.
const fallbackReply = "I'm not sure how to help with that. Could you rephrase your request?"

// ToolCallRecord captures one tool invocation for observability and for
// inclusion in the chat response payload. It is ephemeral: logged and
// returned, never persisted.
type ToolCallRecord struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Result     map[string]any `json:"result,omitempty"`
}

// Runner orchestrates one exchange: prompt assembly, the tools-enabled
// model call, sequential tool execution, and the tools-disabled follow-up
// call that yields the final reply.
type Runner struct {
	llm          LLMClient
	registry     *Registry
	historyLimit int
	log          *slog.Logger
}

// NewRunner creates a Runner. historyLimit bounds how many trailing
// conversation messages are included as model context.
func NewRunner(llm LLMClient, registry *Registry, historyLimit int, log *slog.Logger) *Runner {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	if log == nil {
		log = slog.Default()
	}

	return &Runner{
		llm:          llm,
		registry:     registry,
		historyLimit: historyLimit,
		log:          log.With(slog.String("component", "agent")),
	}
}

// Run turns one user message plus conversation history into a final
// assistant reply, executing any tool calls the model requests.
//
// Tool-level failures (unknown tool, task not found, execution error)
// are captured as structured results and surfaced to the model rather
// than aborting the exchange. Only upstream model failures abort the
// run, wrapped in this package's typed errors. The returned records are
// valid even when the second model call fails, so callers can still log
// the mutations that already happened.
func (r *Runner) Run(ctx context.Context, userID uuid.UUID, history []*domain.Message, newMessage string) (string, []ToolCallRecord, error) {
	log := logger.FromContextOrDefault(ctx, r.log)

	turns := r.buildTurns(history, newMessage)

	log.Info("calling model",
		slog.String("user_id", userID.String()),
		slog.Int("turn_count", len(turns)),
		slog.Int("tool_count", len(r.registry.Specs())))

	reply, err := r.llm.Generate(ctx, &Request{
		SystemInstruction: systemInstruction,
		Turns:             turns,
		Tools:             r.registry.Specs(),
	})
	if err != nil {
		log.Error("model call failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return "", nil, err
	}

	if len(reply.ToolCalls) == 0 {
		text := reply.Text
		if strings.TrimSpace(text) == "" {
			text = fallbackReply
		}
		return text, nil, nil
	}

	log.Info("model requested tool calls",
		slog.String("user_id", userID.String()),
		slog.Int("tool_call_count", len(reply.ToolCalls)))

	turns = append(turns, Turn{
		Role:      RoleAssistant,
		Text:      reply.Text,
		ToolCalls: reply.ToolCalls,
	})

	// Tool calls execute sequentially in the order the model returned
	// them: later calls may depend on the side effects of earlier ones.
	records := make([]ToolCallRecord, 0, len(reply.ToolCalls))
	for _, call := range reply.ToolCalls {
		result := r.executeToolCall(ctx, userID, call, log)

		turns = append(turns, Turn{
			Role: RoleTool,
			ToolResult: &ToolResult{
				Name:   call.Name,
				Output: result.Result,
			},
		})
		records = append(records, result)
	}

	// Second round-trip without tool access: the model narrates the
	// tool outcomes as the final natural-language reply.
	final, err := r.llm.Generate(ctx, &Request{
		SystemInstruction: systemInstruction,
		Turns:             turns,
	})
	if err != nil {
		log.Error("final model call failed",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return "", records, err
	}

	text := final.Text
	if strings.TrimSpace(text) == "" {
		text = fallbackReply
	}

	return text, records, nil
}

// executeToolCall runs one requested tool call with the authenticated
// user identity injected, converting every failure into a structured
// error result.
func (r *Runner) executeToolCall(ctx context.Context, userID uuid.UUID, call ToolCall, log *slog.Logger) ToolCallRecord {
	// The authenticated user is authoritative. Any user identifier the
	// model put into the arguments is discarded so it can never act on
	// another user's data.
	args := make(map[string]any, len(call.Args)+1)
	for k, v := range call.Args {
		args[k] = v
	}
	args["user_id"] = userID.String()

	log.Info("executing tool",
		slog.String("user_id", userID.String()),
		slog.String("tool_name", call.Name))

	output, err := r.registry.Execute(ctx, userID, call.Name, args)
	if err != nil {
		log.Error("tool execution failed",
			slog.String("user_id", userID.String()),
			slog.String("tool_name", call.Name),
			slog.String("error", err.Error()))
		output = map[string]any{
			"status": "failed",
			"error":  "tool execution failed: " + err.Error(),
		}
	}

	return ToolCallRecord{
		ToolName:   call.Name,
		Parameters: args,
		Result:     output,
	}
}

// buildTurns assembles the trailing history window plus the new user
// message, oldest first.
func (r *Runner) buildTurns(history []*domain.Message, newMessage string) []Turn {
	if len(history) > r.historyLimit {
		history = history[len(history)-r.historyLimit:]
	}

	turns := make([]Turn, 0, len(history)+1)
	for _, msg := range history {
		role := RoleUser
		if msg.Role == domain.MessageRoleAssistant {
			role = RoleAssistant
		}
		turns = append(turns, Turn{Role: role, Text: msg.Content})
	}

	return append(turns, Turn{Role: RoleUser, Text: newMessage})
}
