/*
Package cli provides helpers shared by the svnwatch commands.

Errors:

Commands return ConfigError for configuration problems and CommandError for
everything else; ExitCode maps them to the process exit status (2 and 1).

Output:

	format, err := cli.ParseOutputFormat(flagValue)
	if format == cli.FormatJSON {
		return cli.WriteJSON(os.Stdout, changes)
	}
	return cli.WriteChanges(os.Stdout, changes)

Signals:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
