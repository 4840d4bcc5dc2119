// Package config locates the logging document and resolves runtime settings
// from multiple sources (CLI flags, environment variables and .env files)
// with precedence: CLI flags > Environment variables > Defaults. Override
// documents are merged recursively onto the packaged defaults.
package config
