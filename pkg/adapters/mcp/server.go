// Package mcp exposes an Assistant as Model Context Protocol tools so an
// agent can hold loan conversations on a customer's behalf.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/logging"
	"github.com/aretw0/lendflow/internal/presentation/graph"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the stage graph.
const GraphURI = "lendflow://graph"

// Assistant is the subset of *lendflow.Assistant the tools call.
type Assistant interface {
	Start(ctx context.Context, customer string) (domain.Reply, error)
	Send(ctx context.Context, sessionID, text string) (domain.Reply, error)
	Upload(ctx context.Context, sessionID string, docType domain.DocumentType, filename string, content []byte) (domain.UploadResult, error)
	Abandon(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
}

// Server wraps an Assistant and exposes it as an MCP Server.
type Server struct {
	assistant Assistant
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server instance.
func NewServer(a Assistant, opts ...Option) *Server {
	s := &Server{
		assistant: a,
		mcpServer: server.NewMCPServer("lendflow-mcp", strings.TrimSpace(lendflow.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Open a loan conversation and return the assistant's welcome. The customer may be a directory id (cust_001), an email, or empty for a guest."),
		mcp.WithString("customer", mcp.Description("Customer id or email (optional)")),
	), s.handleStartSession)

	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send the customer's message and return the assistant's reply with the resulting stage."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from start_session")),
		mcp.WithString("message", mcp.Required(), mcp.Description("What the customer says")),
	), s.handleSendMessage)

	s.mcpServer.AddTool(mcp.NewTool("upload_document",
		mcp.WithDescription("Submit a document for the application."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("document_type", mcp.Required(), mcp.Description("Document type"),
			mcp.Enum(string(domain.DocumentAadhaar), string(domain.DocumentPAN), string(domain.DocumentSalarySlip), string(domain.DocumentBankStatement))),
		mcp.WithString("filename", mcp.Required(), mcp.Description("File name including extension")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Base64-encoded file content")),
	), s.handleUploadDocument)

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the full state of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("abandon_session",
		mcp.WithDescription("Leave an unfinished conversation. The session is kept and marked abandoned."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleAbandonSession)
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reply, err := s.assistant.Start(ctx, request.GetString("customer", ""))
	if err != nil {
		return s.toolError("start_session", err), nil
	}
	return jsonResult(reply)
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clean, err := runner.SanitizeInput(strings.TrimSpace(message))
	if err != nil {
		s.logger.Warn("MCP send_message: Input rejected", "err", err, "size", len(message))
		return mcp.NewToolResultError(fmt.Sprintf("input rejected: %v", err)), nil
	}

	reply, err := s.assistant.Send(ctx, id, clean)
	if err != nil {
		return s.toolError("send_message", err), nil
	}
	return jsonResult(reply)
}

func (s *Server) handleUploadDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		SessionID    string `json:"session_id"`
		DocumentType string `json:"document_type"`
		Filename     string `json:"filename"`
		Content      string `json:"content"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	content, err := base64.StdEncoding.DecodeString(args.Content)
	if err != nil {
		return mcp.NewToolResultError("content must be base64"), nil
	}

	result, err := s.assistant.Upload(ctx, args.SessionID, domain.DocumentType(args.DocumentType), args.Filename, content)
	if err != nil {
		return s.toolError("upload_document", err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.assistant.Session(ctx, id)
	if err != nil {
		return s.toolError("get_session", err), nil
	}
	return jsonResult(sess)
}

func (s *Server) handleAbandonSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.assistant.Abandon(ctx, id); err != nil {
		return s.toolError("abandon_session", err), nil
	}
	return mcp.NewToolResultText("abandoned"), nil
}

// toolError reports domain errors to the agent as tool failures; anything
// else is logged as well.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	known := errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionEnded) ||
		errors.Is(err, domain.ErrUnknownDocument) || errors.Is(err, domain.ErrDocumentRejected)
	if !known {
		s.logger.Error("MCP tool failed", "tool", tool, "err", err)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Conversation stage graph",
		mcp.WithResourceDescription("Mermaid flowchart of the loan conversation stages"),
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      GraphURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(nil),
			},
		}, nil
	})
}
