package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/muurk/sigknife/internal/config"
	"github.com/muurk/sigknife/internal/descriptor"
	"github.com/muurk/sigknife/internal/disasm"
	"github.com/muurk/sigknife/internal/image"
	"github.com/muurk/sigknife/internal/matcher"
	"github.com/muurk/sigknife/internal/sigfile"
	"github.com/muurk/sigknife/internal/sigmake"
	"github.com/muurk/sigknife/internal/ui"
)

// Image flags shared by every command that loads a module
var (
	imageBase string
	imageBits int
	imageRaw  bool
)

// Signature command flags
var (
	rangeStart    string
	rangeEnd      string
	styleName     string
	scanStyle     string
	fromStyle     string
	toStyle       string
	quiet         bool
	shortest      bool
	noTrim        bool
	noWildcards   bool
	memReferences bool
	minLength     int
	maxLength     int
)

func init() {
	for _, cmd := range []*cobra.Command{applyCmd, makeCmd, batchCmd, scanCmd, peidCmd, diffShowCmd} {
		addImageFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{makeCmd, batchCmd} {
		addGeneratorFlags(cmd)
	}

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(makeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(convertCmd)
}

func addImageFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&imageBase, "base", "0", "Base address for raw images (hex)")
	cmd.Flags().IntVar(&imageBits, "bits", 64, "Code bitness for raw images (16, 32 or 64)")
	cmd.Flags().BoolVar(&imageRaw, "raw", false, "Treat the image as a flat dump even if it looks like PE or ELF")
}

func addGeneratorFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&styleName, "style", "", "Output style: code, ida, peid (default: last_type setting)")
	cmd.Flags().BoolVar(&shortest, "shortest", false, "Shorten signatures while they stay unique")
	cmd.Flags().BoolVar(&noTrim, "no-trim", false, "Keep trailing wildcards")
	cmd.Flags().BoolVar(&noWildcards, "no-wildcards", false, "Keep every instruction byte")
	cmd.Flags().BoolVar(&memReferences, "mem-refs", false, "Keep memory references and large immediates")
}

// parseHex parses an address with an optional 0x prefix.
func parseHex(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return v, nil
}

func loadImage(path string) (*image.Image, error) {
	base, err := parseHex(imageBase)
	if err != nil {
		return nil, fmt.Errorf("invalid --base: %w", err)
	}
	img, err := image.Load(path, image.LoadOptions{Base: base, Bits: imageBits, Raw: imageRaw})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func describeImage(img *image.Image) string {
	return fmt.Sprintf("%s (%s, %d-bit, %s at 0x%x)", img.Name, strings.ToUpper(string(img.Format)), img.Bits,
		humanize.IBytes(uint64(img.Size())), img.Base)
}

// generatorOptions merges the saved settings with command line overrides.
func generatorOptions(cmd *cobra.Command) (sigmake.Options, error) {
	settings, err := config.Load()
	if err != nil {
		return sigmake.Options{}, fmt.Errorf("failed to load settings: %w", err)
	}
	opts := settings.GeneratorOptions()

	flags := cmd.Flags()
	if flags.Changed("style") {
		style, err := descriptor.ParseStyle(styleName)
		if err != nil {
			return opts, err
		}
		opts.Style = style
	}
	if flags.Changed("shortest") {
		opts.ShortestSignatures = shortest
	}
	if flags.Changed("no-trim") {
		opts.TrimSignatures = !noTrim
	}
	if flags.Changed("no-wildcards") {
		opts.DisableWildcards = noWildcards
	}
	if flags.Changed("mem-refs") {
		opts.IncludeMemReferences = memReferences
	}
	if flags.Changed("min-length") {
		opts.MinLength = minLength
	}
	if flags.Changed("max-length") {
		opts.MaxLength = maxLength
	}
	return opts, opts.Validate()
}

func newGenerator(cmd *cobra.Command, img *image.Image) (*sigmake.Generator, error) {
	opts, err := generatorOptions(cmd)
	if err != nil {
		return nil, err
	}
	dec, err := disasm.NewX86(img.Bits)
	if err != nil {
		return nil, err
	}
	return sigmake.New(dec, opts), nil
}

// printRows prints a table on terminals and tab separated lines otherwise.
func printRows(p *ui.Printer, headers []string, rows [][]string) {
	if ui.IsTerminal(p.Writer()) {
		p.PrintTable(headers, rows)
		return
	}
	for _, row := range rows {
		p.Println(strings.Join(row, "\t"))
	}
}

// infoCmd implements the 'info' command
var infoCmd = &cobra.Command{
	Use:   "info <database.sig>",
	Short: "Show a signature database header and tree statistics",
	Long: `Decode an IDA signature database and print its header, name and tree
statistics. Version 4 to 6 databases are upgraded to the version 7 layout
while loading.`,
	Example: `  sigknife info pe64.sig`,
	Args:    cobra.ExactArgs(1),
	RunE:    runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	st, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	db, err := sigfile.Load(args[0])
	if err != nil {
		return err
	}
	h := db.Header
	stats := db.Stats()

	version := strconv.Itoa(int(h.Version))
	if db.OriginalVersion != h.Version {
		version = fmt.Sprintf("%d (upgraded from %d)", h.Version, db.OriginalVersion)
	}
	var arch []string
	if db.Supports(32) {
		arch = append(arch, "32-bit")
	}
	if db.Supports(64) {
		arch = append(arch, "64-bit")
	}
	features := strings.Join(h.FeatureNames(), ", ")
	if features == "" {
		features = "none"
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	p.PrintSuccess("Signature database",
		ui.Param{Key: "Name", Value: db.Name},
		ui.Param{Key: "File", Value: fmt.Sprintf("%s (%s)", args[0], humanize.IBytes(uint64(st.Size())))},
		ui.Param{Key: "Version", Value: version},
		ui.Param{Key: "Processor", Value: strconv.Itoa(int(h.Processor))},
		ui.Param{Key: "Applications", Value: fmt.Sprintf("0x%04x %s", h.AppTypes, strings.Join(arch, " "))},
		ui.Param{Key: "Features", Value: features},
		ui.Param{Key: "CType", Value: h.CTypeNameString()},
		ui.Param{Key: "Modules", Value: humanize.Comma(int64(h.ModuleCount))},
		ui.Param{Key: "Nodes", Value: humanize.Comma(int64(stats.Nodes))},
		ui.Param{Key: "Leaves", Value: humanize.Comma(int64(stats.Leaves))},
		ui.Param{Key: "Depth", Value: strconv.Itoa(stats.Depth)},
	)
	return nil
}

// applyCmd implements the 'apply' command
var applyCmd = &cobra.Command{
	Use:   "apply <database.sig> <image>",
	Short: "Match a signature database against a module image",
	Long: `Scan a module image with an IDA signature database and print every
recognised function as "address symbol length".

Scanning is greedy: after a match the scan resumes past the matched bytes,
and every database signature is reported at most once.`,
	Example: `  sigknife apply vc64rtf.sig app.exe
  sigknife apply libc.sig dump.bin --raw --base 0x7ff600000000`,
	Args: cobra.ExactArgs(2),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	db, err := sigfile.Load(args[0])
	if err != nil {
		return err
	}
	img, err := loadImage(args[1])
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if !db.Supports(img.Bits) {
		p.PrintWarning("Database does not list this architecture",
			ui.Param{Key: "Database", Value: db.Name},
			ui.Param{Key: "Image", Value: describeImage(img)},
		)
	}

	results := matcher.New(db.Tree).Scan(img.Data(), img.Base)
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{fmt.Sprintf("0x%x", r.Address), r.Symbol, strconv.Itoa(r.Length)})
	}
	printRows(p, []string{"Address", "Symbol", "Length"}, rows)

	if ui.IsTerminal(p.Writer()) {
		p.PrintSuccess("Database applied",
			ui.Param{Key: "Database", Value: db.Name},
			ui.Param{Key: "Image", Value: describeImage(img)},
			ui.Param{Key: "Matches", Value: humanize.Comma(int64(len(results)))},
		)
	}
	return nil
}

// makeCmd implements the 'make' command
var makeCmd = &cobra.Command{
	Use:   "make <image> --start <addr> --end <addr>",
	Short: "Create a signature for an address range",
	Long: `Create a signature for the instructions in [start, end).

Operand bytes that change between builds (relative branch targets, memory
displacements, large immediates) are wildcarded according to the saved
settings, which the flags below override. The signature is then tested
against the whole image and reported with its match count.`,
	Example: `  sigknife make app.exe --start 0x140001000 --end 0x140001020
  sigknife make app.exe --start 140001000 --end 140001020 --style code --shortest`,
	Args: cobra.ExactArgs(1),
	RunE: runMake,
}

func init() {
	makeCmd.Flags().StringVar(&rangeStart, "start", "", "Start address (hex, required)")
	makeCmd.Flags().StringVar(&rangeEnd, "end", "", "End address, exclusive (hex, required)")
	makeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the signature")
	_ = makeCmd.MarkFlagRequired("start")
	_ = makeCmd.MarkFlagRequired("end")
}

func runMake(cmd *cobra.Command, args []string) error {
	start, err := parseHex(rangeStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := parseHex(rangeEnd)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}
	img, err := loadImage(args[0])
	if err != nil {
		return err
	}
	gen, err := newGenerator(cmd, img)
	if err != nil {
		return err
	}

	sig, genErr := gen.Generate(img, start, end)
	if sig == nil {
		return genErr
	}
	text, err := sig.Format(gen.Options().Style)
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if quiet {
		p.Println(text)
		return genErr
	}

	details := []ui.Param{
		{Key: "Address", Value: fmt.Sprintf("0x%x", sig.Address)},
		{Key: "Length", Value: fmt.Sprintf("%d bytes (%d wildcards, from %d code bytes)", sig.Descriptor.Len(), sig.Descriptor.Wildcards(), sig.CodeLength)},
		{Key: "Matches", Value: strconv.Itoa(sig.Matches)},
		{Key: "Style", Value: gen.Options().Style.String()},
		{Key: "Signature", Value: ui.SignatureStyle.Render(text)},
	}
	if genErr != nil {
		p.PrintWarning(genErr.Error(), details...)
		return nil
	}
	p.PrintSuccess("Signature generated", details...)
	return nil
}

// batchCmd implements the 'batch' command
var batchCmd = &cobra.Command{
	Use:   "batch <image> <addresses.txt>",
	Short: "Create unique signatures for a list of addresses",
	Long: `Create a unique signature for every address in a list file.

The list holds one hexadecimal address per line; "//" starts a comment. For
each address the signature grows one instruction at a time from
--min-length bytes until it matches exactly once, giving up at
--max-length bytes. Addresses are processed in parallel.`,
	Example: `  sigknife batch app.exe functions.txt
  sigknife batch app.exe functions.txt --max-length 80 --style peid`,
	Args: cobra.ExactArgs(2),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&minLength, "min-length", sigmake.DefaultBatchMinLength, "Initial signature length in bytes")
	batchCmd.Flags().IntVar(&maxLength, "max-length", sigmake.DefaultBatchMaxLength, "Maximum signature length in bytes")
}

func runBatch(cmd *cobra.Command, args []string) error {
	img, err := loadImage(args[0])
	if err != nil {
		return err
	}
	f, err := os.Open(args[1])
	if err != nil {
		return fmt.Errorf("failed to open address list: %w", err)
	}
	addrs, err := sigmake.ParseAddressList(f)
	f.Close()
	if err != nil {
		return err
	}
	gen, err := newGenerator(cmd, img)
	if err != nil {
		return err
	}
	opts := gen.Options()

	out := cmd.OutOrStdout()
	p := ui.NewPrinter(out)
	tty := ui.IsTerminal(out)
	if tty {
		p.PrintHeader("Batch signatures", cmd.CommandPath()+" "+strings.Join(args, " "),
			ui.Param{Key: "Image", Value: describeImage(img)},
			ui.Param{Key: "Candidates", Value: humanize.Comma(int64(len(addrs)))},
			ui.Param{Key: "Window", Value: fmt.Sprintf("%d-%d bytes", opts.MinLength, opts.MaxLength)},
			ui.Param{Key: "Style", Value: opts.Style.String()},
		)
	}

	var results []sigmake.BatchResult
	err = ui.RunWithProgress(cmd.Context(), out, "Generating signatures...", len(addrs),
		func(ctx context.Context, report ui.ReportFunc) error {
			var err error
			results, err = gen.Batch(ctx, img, addrs, func(done, total int, res sigmake.BatchResult) {
				report(fmt.Sprintf("0x%x", res.Address), res.Err != nil)
			})
			return err
		})
	if err != nil {
		return err
	}

	failed := 0
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		text := describeBatchError(r.Err)
		length := "-"
		if r.Err == nil {
			if text, err = r.Signature.Format(opts.Style); err != nil {
				return err
			}
			length = strconv.Itoa(r.Signature.Descriptor.Len())
		} else {
			failed++
		}
		rows = append(rows, []string{fmt.Sprintf("0x%x", r.Address), length, text})
	}
	printRows(p, []string{"Address", "Length", "Signature"}, rows)

	if tty {
		details := []ui.Param{
			{Key: "Unique", Value: humanize.Comma(int64(len(results) - failed))},
			{Key: "Failed", Value: humanize.Comma(int64(failed))},
		}
		if failed > 0 {
			p.PrintWarning("Batch finished with failures", details...)
		} else {
			p.PrintSuccess("Batch finished", details...)
		}
	}
	return nil
}

func describeBatchError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, sigmake.ErrNoUniqueSignature):
		return "no unique signature found"
	case errors.Is(err, sigmake.ErrNotFound):
		return "signature not found"
	default:
		return err.Error()
	}
}

// scanCmd implements the 'scan' command
var scanCmd = &cobra.Command{
	Use:   "scan <image> <pattern>",
	Short: "Find every occurrence of a signature in an image",
	Long: `Search an image for a textual signature and print the address of every
non-overlapping match. At most 10,000 matches are reported.

Code style patterns take the data and mask as two arguments.`,
	Example: `  sigknife scan app.exe "48 8B 05 ? ? ? ? 48 85 C0"
  sigknife scan app.exe --style code '\x48\x8B\x05\x00' 'xxx?'`,
	Args: cobra.MinimumNArgs(2),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanStyle, "style", "ida", "Pattern style: code, ida, peid")
}

func runScan(cmd *cobra.Command, args []string) error {
	style, err := descriptor.ParseStyle(scanStyle)
	if err != nil {
		return err
	}
	d, err := descriptor.Parse(style, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	img, err := loadImage(args[0])
	if err != nil {
		return err
	}

	hits := sigmake.MultiPatternScan(d, img.Data(), img.Base)
	p := ui.NewPrinter(cmd.OutOrStdout())
	for _, addr := range hits {
		p.Printf("0x%x\n", addr)
	}
	if len(hits) == sigmake.MaxScanResults {
		fmt.Fprintf(cmd.ErrOrStderr(), "stopped after %s matches\n", humanize.Comma(sigmake.MaxScanResults))
	}
	if len(hits) == 0 {
		return sigmake.ErrNotFound
	}
	return nil
}

// convertCmd implements the 'convert' command
var convertCmd = &cobra.Command{
	Use:   "convert <pattern>",
	Short: "Convert a signature between textual styles",
	Long: `Convert a signature between the code (data and mask), IDA and PEiD styles.
The CRC style cannot be produced.`,
	Example: `  sigknife convert "55 8B EC ? ? 5D" --to code
  sigknife convert --from code '\x55\x8B\xEC\x00' 'xxx?' --to peid`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&fromStyle, "from", "ida", "Input style: code, ida, peid")
	convertCmd.Flags().StringVar(&toStyle, "to", "code", "Output style: code, ida, peid")
}

func runConvert(cmd *cobra.Command, args []string) error {
	from, err := descriptor.ParseStyle(fromStyle)
	if err != nil {
		return err
	}
	to, err := descriptor.ParseStyle(toStyle)
	if err != nil {
		return err
	}
	d, err := descriptor.Parse(from, strings.Join(args, " "))
	if err != nil {
		return err
	}
	text, err := d.Format(to)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
