/*
Package cli provides helpers shared by the guardian commands: output
formatters, typed command errors and signal handling.

Output formatting:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Values that implement Texter control their text rendering, and values that
implement Table can be written as CSV.

Signal handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
