package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/atessier/docport/internal/docs"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	service   *docs.Service
}

func NewServer(service *docs.Service) *Server {
	s := &Server{service: service}

	mcpServer := server.NewMCPServer(
		"docport",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerPrompts(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("list_documentation",
			mcp.WithDescription("List the documentation sites this server is configured to serve. Takes no input. Call this first to discover valid doc_index values for the other tools."),
		),
		s.handleListDocumentation,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_doc_toc",
			mcp.WithDescription("Get the table of contents of a documentation site: the ordered, deduplicated list of page links discovered on the site's root page. Results are cached."),
			mcp.WithNumber("doc_index",
				mcp.Description("Index of the documentation site, as returned by list_documentation"),
				mcp.Required(),
			),
		),
		s.handleGetDocTOC,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_doc_page",
			mcp.WithDescription("Fetch a single documentation page as markdown. The URL must belong to the selected site's domain. Results are cached."),
			mcp.WithNumber("doc_index",
				mcp.Description("Index of the documentation site, as returned by list_documentation"),
				mcp.Required(),
			),
			mcp.WithString("url",
				mcp.Description("Full URL of the page to fetch, e.g. a URL from get_doc_toc"),
				mcp.Required(),
			),
		),
		s.handleGetDocPage,
	)
}

func (s *Server) handleListDocumentation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sites := s.service.ListDocumentation()
	resultJSON, err := json.MarshalIndent(sites, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding site list: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleGetDocTOC(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	idx, ok := args["doc_index"].(float64)
	if !ok {
		return mcp.NewToolResultError("missing required parameter: doc_index"), nil
	}

	entries, err := s.service.GetTOC(ctx, int(idx))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resultJSON, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding table of contents: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleGetDocPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	idx, ok := args["doc_index"].(float64)
	if !ok {
		return mcp.NewToolResultError("missing required parameter: doc_index"), nil
	}
	pageURL, _ := args["url"].(string)
	if pageURL == "" {
		return mcp.NewToolResultError("missing required parameter: url"), nil
	}

	content, err := s.service.GetPage(ctx, int(idx), pageURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) registerPrompts(mcpServer *server.MCPServer) {
	mcpServer.AddPrompt(
		mcp.NewPrompt("list_documentation",
			mcp.WithPromptDescription("List the configured documentation sites with their indexes and URLs"),
		),
		s.handleListDocumentationPrompt,
	)

	mcpServer.AddPrompt(
		mcp.NewPrompt("get_doc_page",
			mcp.WithPromptDescription("Fetch the full content of a documentation page as markdown"),
			mcp.WithArgument("doc_index",
				mcp.ArgumentDescription("Index of the documentation site"),
				mcp.RequiredArgument(),
			),
			mcp.WithArgument("url",
				mcp.ArgumentDescription("Full URL of the page to fetch"),
				mcp.RequiredArgument(),
			),
		),
		s.handleGetDocPagePrompt,
	)
}

func (s *Server) handleListDocumentationPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	sites := s.service.ListDocumentation()
	resultJSON, err := json.MarshalIndent(sites, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding site list: %w", err)
	}

	return mcp.NewGetPromptResult(
		"Available documentation sites",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(
				mcp.RoleUser,
				mcp.NewTextContent(fmt.Sprintf("Available documentation sites:\n%s", resultJSON)),
			),
		},
	), nil
}

func (s *Server) handleGetDocPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	idxStr := req.Params.Arguments["doc_index"]
	pageURL := req.Params.Arguments["url"]
	if idxStr == "" || pageURL == "" {
		return nil, fmt.Errorf("doc_index and url are required")
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return nil, fmt.Errorf("invalid doc_index %q: %w", idxStr, err)
	}

	content, err := s.service.GetPage(ctx, idx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	return mcp.NewGetPromptResult(
		fmt.Sprintf("Documentation content for %s", pageURL),
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(content)),
		},
	), nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
