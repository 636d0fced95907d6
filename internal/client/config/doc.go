// Package config loads runtime configuration for the journal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see Defaults).
//  2. Optional YAML or JSON file selected via -c or -config.
//  3. GOKIGEN_* environment variables, e.g. GOKIGEN_SERVER_ADDR.
//  4. Command-line flags (see parseFlags), which override everything else.
//
// Supported flags
//
//	-a string   address:port of the journal service
//	-i int      online check interval (seconds)
//	-d string   data directory
//	-l string   log level
//
// Durations in files and environment use Go syntax ("3s", "30s").
//
//	server_addr: 127.0.0.1:50051
//	kv_backend: sqlite
//	timezone: Asia/Tokyo
//	owned_products: [gokigen.lifetime]
package config
