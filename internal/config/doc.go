// Package config loads the opsdash configuration.
//
// Values are resolved in increasing order of precedence:
//
//	1. Default()
//	2. a YAML file (OPSDASH_CONFIG, or config.yaml / configs/config.yaml)
//	3. environment variables, optionally seeded from a .env file
//
// Environment variables follow OPSDASH_<SECTION>_<FIELD>:
//
//	OPSDASH_SERVER_PORT=9090
//	OPSDASH_LOGGING_LEVEL=debug
//	OPSDASH_UPLOAD_MAX_BYTES=1048576
//	OPSDASH_SAMPLE_SEED=7
//	OPSDASH_SAMPLE_DEPARTMENTS=Ops,Finance
//	OPSDASH_SESSION_IDLE_TTL=30m
//	OPSDASH_TELEMETRY_TRACE_EXPORTER=stdout
//
// Load validates the merged result and fails fast on bad ports, timeouts,
// sample epochs and day counts.
package config
