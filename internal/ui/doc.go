// Package ui renders terminal output for the sigknife commands.
//
// Commands follow the same layout: a Header describing the command and its
// inputs, live Progress while long operations run, and a Result box (or a
// table of matches) at the end.
//
//	p := ui.NewPrinter(os.Stdout)
//	p.PrintHeader("Batch signatures", "sigknife batch app.exe addrs.txt",
//	    ui.Param{Key: "Image", Value: "app.exe"})
//
//	err := ui.RunWithProgress(ctx, os.Stdout, "Generating...", len(addrs),
//	    func(ctx context.Context, report ui.ReportFunc) error {
//	        ...
//	    })
//
// Live progress uses Bubble Tea and is only drawn on terminals; redirected
// output gets the final result only. Styling uses Lip Gloss and degrades to
// plain text when colours are unavailable.
package ui
