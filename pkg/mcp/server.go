package mcp

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	giftjourney "github.com/unowned-ai/giftjourney/pkg"
	pkgdb "github.com/unowned-ai/giftjourney/pkg/db"
	"github.com/unowned-ai/giftjourney/pkg/journeys"
	"github.com/unowned-ai/giftjourney/pkg/utils"
)

// Options configures the MCP server.
type Options struct {
	DBPath string
	WAL    bool
	Sync   string

	Client *journeys.Client
	// ShareBase is the web origin reveal links point at.
	ShareBase    string
	CheckoutURL  string // template with {session_id}
	PollInterval time.Duration
	PollTimeout  time.Duration
}

type GiftJourneyMCPServer struct {
	mcpServer *server.MCPServer
	db        *sql.DB
	deps      Deps
	DbPath    string
}

// NewGiftJourneyMCPServer opens the registry at opts.DBPath and prepares an
// MCP server talking to the journeys API through opts.Client.
func NewGiftJourneyMCPServer(opts Options) (*GiftJourneyMCPServer, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("a journeys API client is required")
	}

	dbPath, err := utils.ResolveAndEnsureDBPath(opts.DBPath)
	if err != nil {
		return nil, err
	}

	s := server.NewMCPServer(
		"Gift Journey MCP Server",
		giftjourney.Version,
		server.WithLogging(),
		server.WithRecovery(),
	)

	dbConn, err := pkgdb.OpenDBConnection(dbPath, opts.WAL, opts.Sync)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := pkgdb.UpgradeDB(dbConn, dbPath, pkgdb.TargetSchemaVersion); err != nil {
		dbConn.Close()
		return nil, fmt.Errorf("failed to initialize/upgrade database schema for '%s': %w", dbPath, err)
	}

	return &GiftJourneyMCPServer{
		mcpServer: s,
		db:        dbConn,
		deps: Deps{
			DB:           dbConn,
			Client:       opts.Client,
			ShareBase:    opts.ShareBase,
			CheckoutURL:  opts.CheckoutURL,
			PollInterval: opts.PollInterval,
			PollTimeout:  opts.PollTimeout,
		},
		DbPath: dbPath,
	}, nil
}

// RegisterTools adds every giftjourney tool to the server.
func (s *GiftJourneyMCPServer) RegisterTools() {
	RegisterTools(s.mcpServer, s.deps)
}

// Start runs the stdio event loop. Make sure to register tools beforehand.
func (s *GiftJourneyMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// DB returns the underlying *sql.DB.
func (s *GiftJourneyMCPServer) DB() *sql.DB {
	return s.db
}

// MCPRawServer exposes the raw mcp-go server (useful for additional configuration).
func (s *GiftJourneyMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}

// Close cleans up allocated resources.
func (s *GiftJourneyMCPServer) Close() error {
	if s.db != nil {
		// TRUNCATE mode waits for transactions and writes the WAL back to the main DB.
		_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: WAL checkpoint failed during close: %v\n", err)
		}
		return s.db.Close()
	}
	return nil
}
