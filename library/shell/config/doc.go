// Package config loads the lending desk's runtime settings and builds what depends on them:
// the slog logger and the SQLite handle of the ledger.
//
// Settings come from environment variables, optionally preloaded from a .env file.
//
// This package is part of the shell (infrastructure) layer.
package config
