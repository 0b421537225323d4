package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/adp-scheduler/internal/config"
	"github.com/jakechorley/adp-scheduler/pkg/clients/sheetsclient"
	"github.com/jakechorley/adp-scheduler/pkg/core/cpsat"
	"github.com/jakechorley/adp-scheduler/pkg/db"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg    *config.Config
	Env    string
	Solver cpsat.Solver
	Logger *zap.Logger
	Ctx    context.Context

	// Database is nil when no connection string is configured
	Database db.Database

	sheetsClient *sheetsclient.Client
}

// Sheets returns the Google Sheets client, loading OAuth credentials and
// authenticating on first use. Commands that never touch a sheet skip the
// browser flow entirely.
func (a *AppContext) Sheets() (*sheetsclient.Client, error) {
	if a.sheetsClient != nil {
		return a.sheetsClient, nil
	}

	a.Logger.Info("Loading OAuth client configuration")
	oauthCfg, err := config.LoadOAuthClientWithEnv(a.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	a.Logger.Info("Initializing sheets client")
	client, err := sheetsclient.NewClient(a.Ctx, oauthCfg, a.Env, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	a.sheetsClient = client
	return client, nil
}

// RequireDatabase returns the run store or an error naming the missing setting
func (a *AppContext) RequireDatabase() (db.Database, error) {
	if a.Database == nil {
		return nil, fmt.Errorf("this command needs the run history: set database.connectionString in the %s config", a.Env)
	}
	return a.Database, nil
}
