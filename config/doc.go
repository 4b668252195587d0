// Package config provides configuration loading and validation for webroot.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (WEBROOT_ prefix)
//  4. CLI flags that were explicitly set
//
// Without an explicit file, ./config.yaml is read when present.
//
// # Environment Variables
//
// All config keys map to environment variables with WEBROOT_ prefix:
//   - server.port → WEBROOT_SERVER_PORT
//   - site.web_root → WEBROOT_SITE_WEB_ROOT
//   - access_log.dsn → WEBROOT_ACCESS_LOG_DSN
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: listen address, port, backlog, read timeout and framing limits
//   - Site: web root, default document, forbidden and error paths, redirects, content types
//   - AccessLog: optional sqlite or postgres access log
//   - Admin: optional admin API listener
//   - CORS: cross-origin settings for the admin API
//   - Log: level and optional output file
//
// Redirects are a list of from/to pairs. Content types are keyed by
// extension without the dot, and configured entries are added to the
// built-in table.
package config
