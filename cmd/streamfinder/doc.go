// Package main hosts the streamfinder CLI.
//
// The Cobra command tree resolves streams for a TMDB id from the terminal,
// runs raw catalog searches, serves the HTTP API, and inspects the resolution
// history. Configuration is loaded lazily once per invocation; commands that
// must work without a config (config init) opt out through the skipConfigLoad
// annotation.
package main
