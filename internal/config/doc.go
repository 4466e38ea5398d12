// Package config loads primitives configuration from an optional file, a
// .env file and the environment.
//
// Keys are nested with dots in files and with underscores in the
// environment:
//
//	server:
//	  addr: ":7070"
//	log:
//	  level: debug
//
// is equivalent to
//
//	SERVER_ADDR=:7070 LOG_LEVEL=debug
//
// Environment values win over the file; the file wins over the defaults
// declared in the struct tags.
package config
