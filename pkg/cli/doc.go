/*
Package cli provides command-line interface utilities for the charter
command.

The cli package includes output formatters, exit-code plumbing, and
signal handling shared by every subcommand.

Output Formatting:

The cli package supports text and JSON output for command results:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, report); err != nil {
		return err
	}

The text formatter renders evaluation reports one violation per line
followed by a summary, the shape CI logs expect.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM in watch mode:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
