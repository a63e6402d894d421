package mcp

// Well-known MCP method and notification names.
const (
	methodInitialize = "initialize"
	methodPing       = "ping"

	notificationInitialized = "notifications/initialized"

	methodListPrompts       = "prompts/list"
	methodGetPrompt         = "prompts/get"
	methodListResources     = "resources/list"
	methodReadResource      = "resources/read"
	methodSubscribeResource = "resources/subscribe"
	methodListTools         = "tools/list"
	methodCallTool          = "tools/call"

	notificationResourceUpdated = "notifications/resources/updated"
)

// InitializeParams is sent by the client to open a session.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      PeerInfo           `json:"clientInfo"`
}

// InitializeResult is the server's reply to InitializeParams.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      PeerInfo           `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// PingParams carries no data; ping is a pure liveness check.
type PingParams struct{}

// PingResult carries no data.
type PingResult struct{}

// PromptArgument describes one named argument a Prompt accepts.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Prompt describes a prompt template the server can expand.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// ListPromptsParams supports cursor-based pagination.
type ListPromptsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListPromptsResult is the server's reply to ListPromptsParams.
type ListPromptsResult struct {
	Prompts    []Prompt `json:"prompts"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// GetPromptParams requests the expansion of a named prompt.
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// Content is a single piece of prompt or tool output content. Exactly one of
// Text, and in future image/resource variants, is populated per the Type
// discriminator.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// PromptMessage is one turn of an expanded prompt.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// GetPromptResult is the server's reply to GetPromptParams.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// Resource describes one resource a server exposes.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListResourcesParams supports cursor-based pagination.
type ListResourcesParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListResourcesResult is the server's reply to ListResourcesParams.
type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ReadResourceParams identifies the resource to read.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents is one chunk of a resource's content.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ReadResourceResult is the server's reply to ReadResourceParams.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// SubscribeResourceParams identifies the resource to subscribe to.
type SubscribeResourceParams struct {
	URI string `json:"uri"`
}

// SubscribeResourceResult carries no data; a successful Response confirms
// the subscription.
type SubscribeResourceResult struct{}

// ResourceUpdatedParams is sent as a notification when a subscribed
// resource changes.
type ResourceUpdatedParams struct {
	URI string `json:"uri"`
}

// Tool describes one callable tool a server exposes.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema Value  `json:"inputSchema,omitempty"`
}

// ListToolsParams supports cursor-based pagination.
type ListToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListToolsResult is the server's reply to ListToolsParams.
type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// CallToolParams invokes a named tool with arguments.
type CallToolParams struct {
	Name      string `json:"name"`
	Arguments Value  `json:"arguments,omitempty"`
}

// CallToolResult is the server's reply to CallToolParams.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}
