// Package agent drives the multi-turn exchange between stored
// conversation context, the language model, and tool execution. It owns
// the tool-calling protocol: one model call with tools enabled, local
// execution of any requested tool calls, and a second call without
// tools to obtain the final natural-language reply.
//
// The package is model-agnostic; the concrete Gemini client lives in
// internal/platform/gemini.
package agent
