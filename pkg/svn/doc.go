// Package svn detects new commits in a Subversion repository and turns them
// into change records for a downstream consumer.
//
// The repository is only reached through the svn command line client with
// XML output. A Poller runs one detection cycle per call to Poll:
//
//	resolve prefix (once) -> svn log -> parse -> filter -> build -> submit
//
// # Basic Usage
//
//	split, _ := svn.SplitterByName("branches", "")
//	poller, err := svn.NewPoller(svn.Config{
//		RepositoryURL: "svn://svn.example.org/repo/project",
//		Split:         split,
//	}, svn.NewExecRunner(time.Minute), sink)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	report, err := poller.Poll(ctx)
//
// # Watermark
//
// The poller remembers the newest revision it has processed. The first
// successful cycle only records the newest revision so that a restart does
// not replay the whole history. Later cycles report every revision newer than
// the watermark, oldest first, bounded by Config.HistoryLimit. The watermark
// lives in memory and never moves backwards.
//
// # Branches
//
// A PathSplitter maps each changed path to a branch. SplitAlwaysTrunk keeps
// everything on trunk, SplitBranches understands trunk/ and branches/<name>/,
// and SplitProjectBranches additionally selects one project inside those
// directories. A commit touching several branches produces one Change per
// branch.
//
// # Failures
//
// A failing stage aborts the cycle without moving the watermark, so the next
// trigger retries from the same place. The error is a *CycleError wrapping an
// *ExecutionError, *ParseError or *InvariantViolation. Sink failures do not
// abort the cycle; the remaining changes are still submitted.
package svn
