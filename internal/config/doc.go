// Package config provides centralized configuration management for the report
// generation service. Configuration is loaded from an optional YAML file and
// from environment variables, with environment variables taking precedence.
//
// All environment variables follow the pattern REPORTFORGE_* for namespacing:
//
//	REPORTFORGE_SERVER_PORT=8080
//	REPORTFORGE_DATABASE_DRIVER=sqlite
//	REPORTFORGE_DATABASE_DSN=data/reports.db
//	REPORTFORGE_STORAGE_TEMPLATES_DIR=uploads/templates
//	REPORTFORGE_CONVERTER_BINARY=soffice
//	REPORTFORGE_LOGGING_LEVEL=info
//
// The YAML file path defaults to config.yaml in the working directory and can
// be overridden with REPORTFORGE_CONFIG.
package config
