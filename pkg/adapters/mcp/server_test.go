package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/adapters/crm"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	directory := crm.Default()
	var n int
	return NewServer(lendflow.New(
		lendflow.WithDirectory(directory),
		lendflow.WithKYC(directory),
		lendflow.WithIDs(func() string { n++; return fmt.Sprintf("s%d", n) }),
	))
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func TestTools_Conversation(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)

	res, err := s.handleStartSession(ctx, call(map[string]any{"customer": "cust_001"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var welcome domain.Reply
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &welcome))
	assert.Equal(t, "s1", welcome.SessionID)
	assert.Equal(t, domain.StageGreeting, welcome.Stage)

	res, err = s.handleSendMessage(ctx, call(map[string]any{"session_id": "s1", "message": "I need a car loan of 5 lakhs"}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	var reply domain.Reply
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &reply))
	assert.Equal(t, domain.StageOfferPresentation, reply.Stage)

	res, err = s.handleUploadDocument(ctx, call(map[string]any{
		"session_id":    "s1",
		"document_type": "aadhaar",
		"filename":      "aadhaar.pdf",
		"content":       base64.StdEncoding.EncodeToString([]byte("scan")),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, text(t, res))
	assert.Contains(t, text(t, res), `"document_type":"aadhaar"`)

	res, err = s.handleGetSession(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	var sess domain.Session
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &sess))
	assert.Equal(t, domain.StageOfferPresentation, sess.Stage)
	assert.Contains(t, sess.UploadedDocuments, domain.DocumentAadhaar)

	res, err = s.handleAbandonSession(ctx, call(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.Equal(t, "abandoned", text(t, res))
}

func TestTools_Errors(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	_, err := s.handleStartSession(ctx, call(map[string]any{}))
	require.NoError(t, err)

	tests := []struct {
		name string
		run  func() (*mcp.CallToolResult, error)
		want string
	}{
		{"missing session id", func() (*mcp.CallToolResult, error) {
			return s.handleSendMessage(ctx, call(map[string]any{"message": "hi"}))
		}, "session_id"},
		{"unknown session", func() (*mcp.CallToolResult, error) {
			return s.handleSendMessage(ctx, call(map[string]any{"session_id": "nope", "message": "hi"}))
		}, domain.ErrSessionNotFound.Error()},
		{"oversized message", func() (*mcp.CallToolResult, error) {
			return s.handleSendMessage(ctx, call(map[string]any{"session_id": "s1", "message": strings.Repeat("a", 5000)}))
		}, "input rejected"},
		{"bad base64", func() (*mcp.CallToolResult, error) {
			return s.handleUploadDocument(ctx, call(map[string]any{"session_id": "s1", "document_type": "pan", "filename": "p.pdf", "content": "%%%"}))
		}, "base64"},
		{"unknown document", func() (*mcp.CallToolResult, error) {
			return s.handleUploadDocument(ctx, call(map[string]any{"session_id": "s1", "document_type": "passport", "filename": "p.pdf", "content": "eA=="}))
		}, domain.ErrUnknownDocument.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.run()
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}
