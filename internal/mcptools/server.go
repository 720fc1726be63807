package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewPactMCPServer creates an MCP server with the contract generation and
// interaction graph tools registered.
func NewPactMCPServer(svc *PactService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pactgen",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_contracts",
		Description: "Analyze every @pact annotated function in the project, write one Pact contract per provider and rebuild the interaction graph. Returns the contract files and the generated interactions.",
	}, svc.GenerateContracts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_function",
		Description: "Analyze a single function, annotated or not, and return the Pact interaction its axios call would produce. Nothing is written.",
	}, svc.AnalyzeFunction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_endpoints",
		Description: "List the provider endpoints requested by the project, as found by the last generate_contracts run. Optionally filter by provider.",
	}, svc.ListEndpoints)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_symbols",
		Description: "Search for symbols (functions, methods, types, etc.) by name substring match. Optionally filter by kind or by @pact annotation.",
	}, svc.QuerySymbols)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_dependencies",
		Description: "Traverse the interaction graph upstream or downstream from a file, function or endpoint. Upstream from an endpoint lists the functions and files requesting it.",
	}, svc.GetDependencies)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts an HTTP server exposing the MCP tools.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
