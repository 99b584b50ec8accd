package mcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil search service returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{})
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingSearchService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)
		assert.NotNil(t, server)
		assert.NotNil(t, server.Handler())
	})
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingSearchService)
	assert.NoError(t, (&Ports{Search: &mockSearchService{}}).Validate())
	assert.NoError(t, (&Ports{Search: &mockSearchService{}, Document: &mockDocumentService{}}).Validate())
}

// connect opens an in-memory client session against server.
func connect(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

func TestServer_Session_Handshake(t *testing.T) {
	tests := []struct {
		name             string
		opts             []Option
		wantName         string
		wantVersion      string
		wantInstructions string
	}{
		{"defaults", nil, "sercha-kb", Version, DefaultInstructions},
		{
			"overrides",
			[]Option{WithName("handbook"), WithVersion("2.0.0"), WithInstructions("Answer from the handbook.")},
			"handbook", "2.0.0", "Answer from the handbook.",
		},
		{"empty name keeps default", []Option{WithName("")}, "sercha-kb", Version, DefaultInstructions},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewServer(&Ports{Search: &mockSearchService{}}, tt.opts...)
			require.NoError(t, err)

			init := connect(t, server).InitializeResult()
			require.NotNil(t, init)
			require.NotNil(t, init.ServerInfo)
			assert.Equal(t, tt.wantName, init.ServerInfo.Name)
			assert.Equal(t, tt.wantVersion, init.ServerInfo.Version)
			assert.Equal(t, tt.wantInstructions, init.Instructions)
		})
	}
}

func TestServer_Session_ListsTools(t *testing.T) {
	server, err := NewServer(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)

	res, err := connect(t, server).ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"get_context", "search", "list_files"}, names)
}

func TestServer_Session_GetContext(t *testing.T) {
	search := &mockSearchService{passages: []string{"Refunds take 14 days."}}
	server, err := NewServer(&Ports{Search: search})
	require.NoError(t, err)

	res, err := connect(t, server).CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_context",
		Arguments: map[string]any{"query": "how long do refunds take", "max_results": 2},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	out, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "structured content: %T", res.StructuredContent)
	assert.Equal(t, []any{"Refunds take 14 days."}, out["passages"])
	assert.Equal(t, "how long do refunds take", search.lastQuery)
	assert.Equal(t, 2, search.lastMax)
}

func TestServer_Serve_StopsOnCancel(t *testing.T) {
	server, err := NewServer(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_RunHTTP_InvalidAddress(t *testing.T) {
	server, err := NewServer(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)

	err = server.RunHTTP(context.Background(), "not-an-address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on not-an-address")
}
