// svnwatch watches a Subversion repository and reports new commits.
//
// It polls `svn log` on a schedule, turns every commit that is new since the
// last cycle into one change per touched branch, and hands the changes to a
// sink (log, JSON lines, SQLite).
//
// Usage:
//
//	# Poll continuously with the admin server on 127.0.0.1:8089
//	svnwatch run --config svnwatch.yaml
//
//	# Print what changed after r1200 and exit
//	svnwatch check --since 1200
//
//	# List changes recorded by the SQLite sink
//	svnwatch changes --limit 20 --format json
//
//	# Validate a configuration file
//	svnwatch validate --config svnwatch.toml
package main

import "os"

func main() {
	os.Exit(Execute())
}
