// Command mcpecho wires together an in-process mcp.Server and mcp.Client
// over transport.Direct and runs through the initialize handshake, a ping,
// and a single tool call, to exercise the core runtime end to end.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mcpkit/mcpcore"
	"github.com/mcpkit/mcpcore/code"
	"github.com/mcpkit/mcpcore/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mcpecho:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	logger := mcp.StdLogger(log.New(os.Stderr, "mcpecho: ", 0))

	clientSide, serverSide := transport.Direct()

	srv := mcp.NewServer(serverSide, &mcp.ServerOptions{
		ServerInfo: mcp.PeerInfo{Name: "mcpecho-server", Version: "0.1.0"},
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolsCapability{},
		},
		Logger: logger,
	})
	mcp.RegisterMethod(srv.Methods(), "tools/list", func(_ context.Context, _ mcp.ListToolsParams) (mcp.ListToolsResult, error) {
		return mcp.ListToolsResult{
			Tools: []mcp.Tool{{Name: "echo", Description: "echoes its input back"}},
		}, nil
	})
	mcp.RegisterMethod(srv.Methods(), "tools/call", func(_ context.Context, params mcp.CallToolParams) (mcp.CallToolResult, error) {
		if params.Name != "echo" {
			return mcp.CallToolResult{}, mcp.Errorf(code.InvalidParams, "unknown tool %q", params.Name)
		}
		return mcp.CallToolResult{Content: []mcp.Content{{Type: "text", Text: string(params.Arguments)}}}, nil
	})

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Stop()

	cli := mcp.NewClient(clientSide, &mcp.ClientOptions{
		ClientInfo: mcp.PeerInfo{Name: "mcpecho-client", Version: "0.1.0"},
		Logger:     logger,
	})
	if err := cli.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer cli.Disconnect()

	if _, err := cli.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := cli.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	tools, err := cli.ListTools(ctx, mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}
	for _, t := range tools.Tools {
		fmt.Printf("tool: %s - %s\n", t.Name, t.Description)
	}

	result, err := cli.CallTool(ctx, mcp.CallToolParams{Name: "echo", Arguments: mcp.Value(`"hello, mcp"`)})
	if err != nil {
		return fmt.Errorf("call tool: %w", err)
	}
	for _, c := range result.Content {
		fmt.Println(c.Text)
	}

	return nil
}
