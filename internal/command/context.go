package command

import (
	"fmt"
	"path/filepath"

	"github.com/desklinehq/deskline/internal/auth"
	"github.com/desklinehq/deskline/internal/core"
	"github.com/desklinehq/deskline/internal/gateway"
	"github.com/desklinehq/deskline/internal/logging"
	"github.com/desklinehq/deskline/internal/store"
	"github.com/desklinehq/deskline/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CommandContext bundles what a command needs: the resolved backend
// URL, the open state database, and the file logger.
type CommandContext struct {
	ServerURL string
	StateDir  string
	Store     *store.DB
	Logger    *zap.Logger
	JSONMode  bool
}

// GetContext resolves flags and opens the state database. Callers
// must Close the returned context.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	serverFlag, _ := cmd.Flags().GetString("server")
	stateDirFlag, _ := cmd.Flags().GetString("state-dir")
	jsonMode, _ := cmd.Flags().GetBool("json")
	debug, _ := cmd.Flags().GetBool("debug")

	stateDir := stateDirFlag
	if stateDir == "" {
		dir, err := core.EnsureStateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve state dir: %w", err)
		}
		stateDir = dir
	}

	logger, err := logging.New(filepath.Join(stateDir, "logs", "deskline.log"), debug)
	if err != nil {
		// The client works without a log file; state loss is the
		// only failure worth aborting for.
		logger = zap.NewNop()
	}

	db, err := store.Open(filepath.Join(stateDir, "deskline.db"))
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	return &CommandContext{
		ServerURL: core.ResolveServerURL(serverFlag),
		StateDir:  stateDir,
		Store:     db,
		Logger:    logger,
		JSONMode:  jsonMode,
	}, nil
}

func (c *CommandContext) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// NewGateway builds a backend client for the resolved server,
// carrying the principal's token when one is given.
func (c *CommandContext) NewGateway(principal *types.Principal) (*gateway.Client, error) {
	token := ""
	if principal != nil {
		token = principal.Token
	}
	return gateway.NewClient(c.ServerURL, token)
}

// requirePrincipal loads stored credentials and fails when the user
// has not logged in.
func requirePrincipal() (*types.Principal, error) {
	principal, err := auth.Load()
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if principal == nil {
		return nil, fmt.Errorf("not logged in (run: %s login <email>)", AppName)
	}
	return principal, nil
}
