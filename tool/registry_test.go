package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/namespace"
)

func echoTool(name string) *FunctionTool {
	return NewFunctionTool(name, "Echo the given text",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string", "description": "Text to echo"},
			},
			"required": []string{"text"},
		},
		func(tc *Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	)
}

func testContext() *Context {
	return NewContext(context.Background(), namespace.Identity{OwnerID: "o", AgentID: "a"}, "call-1", nil)
}

func TestRegistryRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(echoTool("Echo")))
	err := r.Register(echoTool("Echo"))
	assert.Error(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryReplaceShadowsExplicitly(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(echoTool("Echo")))

	replacement := NewFunctionTool("Echo", "Shout the given text", map[string]any{"type": "object"},
		func(tc *Context, args map[string]any) (any, error) { return "LOUD", nil })
	r.Replace(replacement)

	got, err := r.Resolve("Echo")
	require.NoError(t, err)
	assert.Equal(t, "Shout the given text", got.Description())
}

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Resolve("Nope")
	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Nope", unknown.Name)
}

func TestDispatchValidatesArguments(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(echoTool("Echo")))

	t.Run("valid", func(t *testing.T) {
		got, err := r.Dispatch(testContext(), "Echo", map[string]any{"text": "hi"})
		require.NoError(t, err)
		assert.Equal(t, "hi", got)
	})

	t.Run("missing required argument", func(t *testing.T) {
		_, err := r.Dispatch(testContext(), "Echo", map[string]any{})
		var ve *ArgumentValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Echo", ve.Tool)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := r.Dispatch(testContext(), "Echo", map[string]any{"text": 42})
		var ve *ArgumentValidationError
		require.ErrorAs(t, err, &ve)
	})
}

func TestDispatchAwaitsTasks(t *testing.T) {
	r := NewRegistry(nil)
	async := NewAsyncFunctionTool("Later", "Compute in the background", map[string]any{"type": "object"},
		func(tc *Context, args map[string]any) (any, error) {
			done := make(chan string, 1)
			go func() { done <- "eventually" }()
			return TaskFunc(func(tc *Context) (any, error) {
				select {
				case v := <-done:
					return v, nil
				case <-tc.Context().Done():
					return nil, tc.Context().Err()
				}
			}), nil
		})
	require.NoError(t, r.Register(async))
	assert.Equal(t, KindLocalAsync, async.Kind())

	got, err := r.Dispatch(testContext(), "Later", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "eventually", got)
}

func TestFunctionToolErrorWrapping(t *testing.T) {
	t.Run("plain errors become execution errors", func(t *testing.T) {
		boom := NewFunctionTool("Boom", "Always fails", map[string]any{"type": "object"},
			func(tc *Context, args map[string]any) (any, error) {
				return nil, assert.AnError
			})
		_, err := boom.Call(testContext(), map[string]any{})
		var te *ToolError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "EXECUTION_ERROR", te.Code)
	})

	t.Run("tool errors pass through", func(t *testing.T) {
		custom := NewFunctionTool("Custom", "Fails with a custom code", map[string]any{"type": "object"},
			func(tc *Context, args map[string]any) (any, error) {
				return nil, NewToolError("Custom", "rate limited", "RATE_LIMITED")
			})
		_, err := custom.Call(testContext(), map[string]any{})
		var te *ToolError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "RATE_LIMITED", te.Code)
	})
}

func TestFunctionToolAppliesDefaults(t *testing.T) {
	var seen map[string]any
	tl := NewFunctionTool("Fmt", "Format text",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":  map[string]any{"type": "string"},
				"width": map[string]any{"type": "number", "default": float64(80)},
			},
			"required": []string{"text"},
		},
		func(tc *Context, args map[string]any) (any, error) {
			seen = args
			return nil, nil
		})

	_, err := tl.Call(testContext(), map[string]any{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, float64(80), seen["width"])
}

func TestDocsText(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(echoTool("Echo")))

	docs := r.DocsText()
	assert.Contains(t, docs, "Echo: Echo the given text")
	assert.Contains(t, docs, "text (string): Text to echo")
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(echoTool("B")))
	require.NoError(t, r.Register(echoTool("A")))
	assert.Equal(t, []string{"A", "B"}, r.Names())
}
