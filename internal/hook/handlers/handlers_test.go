package handlers

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"oddsy/internal/hook"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolConfirmHandler(t *testing.T) {
	var out bytes.Buffer
	h := NewToolConfirmHandlerWithIO(strings.NewReader("y\nno\n"), &out, "tavilySearch")

	// Unlisted tools pass without prompting.
	fb, err := h.Handle(context.Background(), hook.NewHookData(hook.BeforeToolExecution, "listOdds"))
	require.NoError(t, err)
	assert.True(t, fb.Allow)
	assert.Empty(t, out.String())

	data := hook.NewHookData(hook.BeforeToolExecution, "tavilySearch").Set(hook.KeyParams, `{"query":"x"}`)
	fb, err = h.Handle(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, fb.Allow)
	assert.Contains(t, out.String(), "tavilySearch")

	fb, err = h.Handle(context.Background(), data)
	require.NoError(t, err)
	assert.False(t, fb.Allow)
	assert.Equal(t, "User denied tool execution", fb.Message)

	fb, err = h.Handle(context.Background(), data)
	require.NoError(t, err)
	assert.False(t, fb.Allow)
	assert.Equal(t, "No input received", fb.Message)
}

func TestToolConfirmHandler_AlwaysAndWildcard(t *testing.T) {
	var out bytes.Buffer
	h := NewToolConfirmHandlerWithIO(strings.NewReader("a\n"), &out, ConfirmAll)

	for i := 0; i < 3; i++ {
		fb, err := h.Handle(context.Background(), hook.NewHookData(hook.BeforeToolExecution, "listOdds"))
		require.NoError(t, err)
		assert.True(t, fb.Allow)
	}
	assert.Equal(t, 1, strings.Count(out.String(), "Allow?"))

	// A different tool still prompts; the reader is exhausted.
	fb, err := h.Handle(context.Background(), hook.NewHookData(hook.BeforeToolExecution, "tavilySearch"))
	require.NoError(t, err)
	assert.False(t, fb.Allow)
}

type fakeResult bool

func (f fakeResult) Succeeded() bool { return bool(f) }

func TestMetricsHandler_AlwaysAllows(t *testing.T) {
	h := NewMetricsHandler()
	assert.ElementsMatch(t, []hook.HookPoint{hook.AfterToolExecution, hook.OnRunEnd}, h.Points())

	after := hook.NewHookData(hook.AfterToolExecution, "listOdds").
		Set(hook.KeyResult, fakeResult(true)).
		Set(hook.KeyDuration, 15*time.Millisecond)
	fb, err := h.Handle(context.Background(), after)
	require.NoError(t, err)
	assert.True(t, fb.Allow)

	end := hook.NewHookData(hook.OnRunEnd, "").
		Set(hook.KeyOutcome, "final").
		Set(hook.KeySteps, 3)
	fb, err = h.Handle(context.Background(), end)
	require.NoError(t, err)
	assert.True(t, fb.Allow)
}
