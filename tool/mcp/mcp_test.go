package mcp

import (
	"context"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/namespace"
	"github.com/hupe1980/agentloop/tool"
)

type fakeSession struct {
	tools    []*sdk.Tool
	lastCall *sdk.CallToolParams
	result   *sdk.CallToolResult
	closed   bool
}

func (f *fakeSession) ListTools(ctx context.Context, params *sdk.ListToolsParams) (*sdk.ListToolsResult, error) {
	return &sdk.ListToolsResult{Tools: f.tools}, nil
}

func (f *fakeSession) CallTool(ctx context.Context, params *sdk.CallToolParams) (*sdk.CallToolResult, error) {
	f.lastCall = params
	return f.result, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func newConnector(sess session) *Connector {
	return &Connector{name: "files", session: sess, logger: logging.NewLogger(nil)}
}

func toolContext() *tool.Context {
	return tool.NewContext(context.Background(), namespace.Identity{OwnerID: "o", AgentID: "a"}, "call-1", nil)
}

func TestToolsWrapsAdvertisedTools(t *testing.T) {
	sess := &fakeSession{tools: []*sdk.Tool{
		{
			Name:        "read_file",
			Description: "Read a file from disk",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"path": map[string]any{"type": "string"}},
				"required":   []any{"path"},
			},
		},
		{Name: "list_dir", Description: "List a directory"},
	}}
	c := newConnector(sess)

	tools, err := c.Tools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "read_file", tools[0].Name())
	assert.Equal(t, tool.KindRemote, tools[0].Kind())
	assert.Equal(t, "object", tools[1].Parameters()["type"], "missing schema defaults to an open object")
}

func TestRegisterAll(t *testing.T) {
	sess := &fakeSession{tools: []*sdk.Tool{{Name: "read_file", Description: "Read a file"}}}
	r := tool.NewRegistry(nil)

	require.NoError(t, newConnector(sess).RegisterAll(context.Background(), r))
	_, err := r.Resolve("read_file")
	assert.NoError(t, err)
}

func TestRemoteToolCall(t *testing.T) {
	sess := &fakeSession{
		tools: []*sdk.Tool{{Name: "read_file", Description: "Read a file"}},
		result: &sdk.CallToolResult{Content: []sdk.Content{
			&sdk.TextContent{Text: "line one"},
			&sdk.TextContent{Text: "line two"},
		}},
	}
	c := newConnector(sess)
	tools, err := c.Tools(context.Background())
	require.NoError(t, err)

	got, err := tools[0].Call(toolContext(), map[string]any{"path": "/tmp/x"})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", got)
	assert.Equal(t, "read_file", sess.lastCall.Name)
	assert.Equal(t, map[string]any{"path": "/tmp/x"}, sess.lastCall.Arguments)
}

func TestRemoteToolServerError(t *testing.T) {
	sess := &fakeSession{
		tools: []*sdk.Tool{{Name: "read_file", Description: "Read a file"}},
		result: &sdk.CallToolResult{
			IsError: true,
			Content: []sdk.Content{&sdk.TextContent{Text: "no such file"}},
		},
	}
	c := newConnector(sess)
	tools, err := c.Tools(context.Background())
	require.NoError(t, err)

	_, err = tools[0].Call(toolContext(), map[string]any{"path": "/missing"})
	var te *tool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "REMOTE_TOOL_ERROR", te.Code)
	assert.Contains(t, te.Message, "no such file")
}

func TestConnectorClose(t *testing.T) {
	sess := &fakeSession{}
	c := newConnector(sess)
	require.NoError(t, c.Close())
	assert.True(t, sess.closed)
}
