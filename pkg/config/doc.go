// Package config loads and validates svnwatch configuration.
//
// Configuration is read from a YAML or TOML file (chosen by extension),
// decoded over the defaults, overridden by SVNWATCH_* environment variables
// and validated as a whole so that every problem is reported at once:
//
//	source:
//	  url: svn://svn.example.org/repo/project
//	  username: builder
//	  poll_interval: 10m
//	  splitter: branches
//	sink:
//	  type: sqlite
//	  sqlite:
//	    path: data/changes.db
//	telemetry:
//	  logging:
//	    level: info
//
// Durations accept Go syntax ("90s", "10m") or a bare number of seconds.
//
// Watcher reloads the file when it changes on disk. Only source scheduling
// and the log level are applied to a running process; other settings need a
// restart.
package config
