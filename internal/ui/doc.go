// Package ui provides terminal output components for the iometer CLI.
//
// This package uses Lipgloss to render readings, status and bridge lists as
// styled boxes, and Bubble Tea with a Bubbles spinner to show progress while
// a bridge request is in flight. Everything follows a "run once and exit"
// pattern: nothing waits for user input.
//
// # Components
//
//   - RenderReading: meter values and the full register list
//   - RenderStatus: bridge firmware and signal, core module state
//   - RenderBridgeList: bridges found by mDNS or remembered in the registry
//   - RenderSuccessBox / RenderErrorBox: result boxes with troubleshooting
//   - RunWithSpinner: spinner around a blocking call, only on a terminal
//
// Example:
//
//	printer := ui.NewPrinter(os.Stdout)
//	err := ui.RunWithSpinner(ctx, os.Stderr, "Fetching reading...", func(ctx context.Context) error {
//	    reading, err = client.GetCurrentReading(ctx)
//	    return err
//	})
//	if err != nil {
//	    printer.PrintError("Reading failed", err, iometer.GetTroubleshootingHint(err))
//	    return err
//	}
//	printer.Println(ui.RenderReading(reading, host, printer.Width()))
package ui
