// Package mcp bridges tools served by Model Context Protocol servers into
// the registry. A Connector owns one stdio server process; every tool the
// server advertises is wrapped as a remote tool and registered under its
// advertised name.
package mcp

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hupe1980/agentloop/logging"
	"github.com/hupe1980/agentloop/tool"
)

// session is the slice of *sdk.ClientSession the connector needs, split out
// so tests can fake the server side.
type session interface {
	ListTools(ctx context.Context, params *sdk.ListToolsParams) (*sdk.ListToolsResult, error)
	CallTool(ctx context.Context, params *sdk.CallToolParams) (*sdk.CallToolResult, error)
	Close() error
}

// Connector manages the connection to one MCP server.
type Connector struct {
	name    string
	session session
	logger  *logging.LoopLogger
}

// ConnectorOptions configures Connect.
type ConnectorOptions struct {
	// ClientName identifies this client to the server.
	ClientName string

	// ClientVersion is reported alongside ClientName.
	ClientVersion string

	Logger *logging.LoopLogger
}

// Connect launches an MCP server over stdio and performs the handshake.
// The caller owns the returned Connector and must Close it.
func Connect(ctx context.Context, name, command string, args []string, optFns ...func(o *ConnectorOptions)) (*Connector, error) {
	opts := ConnectorOptions{ClientName: "agentloop", ClientVersion: "1.0.0", Logger: logging.NewLogger(nil)}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := sdk.NewClient(&sdk.Implementation{Name: opts.ClientName, Version: opts.ClientVersion}, nil)
	transport := &sdk.CommandTransport{Command: exec.Command(command, args...)}
	sess, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect to server %q: %w", name, err)
	}
	return &Connector{name: name, session: sess, logger: opts.Logger.WithComponent("mcp")}, nil
}

// Tools lists the server's tools wrapped as registry-ready remote tools.
func (c *Connector) Tools(ctx context.Context) ([]tool.Tool, error) {
	res, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools on %q: %w", c.name, err)
	}

	tools := make([]tool.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema, _ := asMap(t.InputSchema)
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		tools = append(tools, &remoteTool{
			connector:   c,
			name:        t.Name,
			description: t.Description,
			parameters:  schema,
		})
	}
	c.logger.Debug("mcp server %s advertises %d tools", c.name, len(tools))
	return tools, nil
}

// RegisterAll lists the server's tools and registers each one. A name already
// taken locally is replaced, with the registry logging the shadowing.
func (c *Connector) RegisterAll(ctx context.Context, registry *tool.Registry) error {
	tools, err := c.Tools(ctx)
	if err != nil {
		return err
	}
	for _, t := range tools {
		registry.Replace(t)
	}
	return nil
}

// Close shuts the server connection down.
func (c *Connector) Close() error {
	return c.session.Close()
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// remoteTool proxies one server-side tool.
type remoteTool struct {
	connector   *Connector
	name        string
	description string
	parameters  map[string]any
}

func (t *remoteTool) Name() string { return t.name }

func (t *remoteTool) Description() string { return t.description }

func (t *remoteTool) Parameters() map[string]any { return t.parameters }

func (t *remoteTool) Kind() tool.Kind { return tool.KindRemote }

// Call forwards the invocation to the server and flattens the text content
// of the reply. A server-reported tool error comes back as *tool.ToolError so
// the loop can surface it like any local failure.
func (t *remoteTool) Call(toolCtx *tool.Context, args map[string]any) (any, error) {
	res, err := t.connector.session.CallTool(toolCtx.Context(), &sdk.CallToolParams{
		Name:      t.name,
		Arguments: args,
	})
	if err != nil {
		return nil, tool.NewToolError(t.name, err.Error(), "REMOTE_ERROR")
	}

	text := flattenContent(res.Content)
	if res.IsError {
		return nil, tool.NewToolError(t.name, text, "REMOTE_TOOL_ERROR")
	}
	return text, nil
}

func flattenContent(content []sdk.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*sdk.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
