package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/muurk/sigknife/internal/config"
	"github.com/muurk/sigknife/internal/difffile"
	"github.com/muurk/sigknife/internal/image"
	"github.com/muurk/sigknife/internal/mapfile"
	"github.com/muurk/sigknife/internal/peid"
	"github.com/muurk/sigknife/internal/ui"
	"github.com/muurk/sigknife/internal/wizard"
)

// File command flags
var (
	mapBase    string
	diffOutput string
	diffForce  bool
)

func init() {
	rootCmd.AddCommand(peidCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(configCmd)

	diffCmd.AddCommand(diffShowCmd)
	diffCmd.AddCommand(diffApplyCmd)
	diffCmd.AddCommand(diffCreateCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
}

// peidCmd implements the 'peid' command
var peidCmd = &cobra.Command{
	Use:   "peid <userdb.txt> <image>",
	Short: "Identify packers and compilers with a PEiD database",
	Long: `Test every entry of a PEiD userdb.txt database against an image.

Entries marked ep_only are tested at the entry point only; the others are
searched for across the whole image.`,
	Example: `  sigknife peid userdb.txt packed.exe`,
	Args:    cobra.ExactArgs(2),
	RunE:    runPEiD,
}

func runPEiD(cmd *cobra.Command, args []string) error {
	db, err := peid.Load(args[0])
	if err != nil {
		return err
	}
	img, err := loadImage(args[1])
	if err != nil {
		return err
	}

	hits := db.Scan(img.Data(), img.Base, img.Entry)
	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, []string{fmt.Sprintf("0x%x", h.Address), h.Name})
	}
	p := ui.NewPrinter(cmd.OutOrStdout())
	printRows(p, []string{"Address", "Entry"}, rows)
	if ui.IsTerminal(p.Writer()) {
		p.PrintSuccess("PEiD scan complete",
			ui.Param{Key: "Image", Value: describeImage(img)},
			ui.Param{Key: "Entry point", Value: fmt.Sprintf("0x%x", img.Entry)},
			ui.Param{Key: "Signatures", Value: humanize.Comma(int64(len(db.Entries)))},
			ui.Param{Key: "Hits", Value: strconv.Itoa(len(hits))},
		)
	}
	return nil
}

// mapCmd implements the 'map' command
var mapCmd = &cobra.Command{
	Use:   "map <file.map>",
	Short: "Print the segments and symbols of a linker MAP file",
	Long: `Parse a linker MAP file and print its segments and symbols. Symbol
addresses are resolved against --base (the module load address).`,
	Example: `  sigknife map app.map --base 0x400000`,
	Args:    cobra.ExactArgs(1),
	RunE:    runMap,
}

func init() {
	mapCmd.Flags().StringVar(&mapBase, "base", "0", "Module base address (hex)")
}

func runMap(cmd *cobra.Command, args []string) error {
	base, err := parseHex(mapBase)
	if err != nil {
		return fmt.Errorf("invalid --base: %w", err)
	}
	m, err := mapfile.Load(args[0])
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if len(m.Segments) > 0 && ui.IsTerminal(p.Writer()) {
		rows := make([][]string, 0, len(m.Segments))
		for _, s := range m.Segments {
			rows = append(rows, []string{
				fmt.Sprintf("%04X", s.ID), s.Name, s.Class,
				fmt.Sprintf("0x%x", base+s.Start), humanize.IBytes(s.Length),
			})
		}
		p.PrintTable([]string{"Id", "Name", "Class", "Start", "Length"}, rows)
	}

	labels := m.Labels(base)
	rows := make([][]string, 0, len(labels))
	for _, l := range labels {
		rows = append(rows, []string{fmt.Sprintf("0x%x", l.Address), l.Name})
	}
	printRows(p, []string{"Address", "Symbol"}, rows)
	return nil
}

// diffCmd groups the DIF patch file commands
var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Work with IDA DIF patch files",
}

var diffShowCmd = &cobra.Command{
	Use:   "show <patch.dif> <image>",
	Short: "Print patches with their virtual addresses",
	Long: `Print every patch of a DIF file together with the virtual address its file
offset maps to in the image, and whether the image holds the original or the
patched byte.`,
	Example: `  sigknife diff show app.dif app.exe`,
	Args:    cobra.ExactArgs(2),
	RunE:    runDiffShow,
}

func runDiffShow(cmd *cobra.Command, args []string) error {
	d, err := difffile.Load(args[0])
	if err != nil {
		return err
	}
	img, err := loadImage(args[1])
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(d.Patches))
	for _, patch := range d.Patches {
		va := img.FileOffsetToVA(patch.Offset)
		address, status := "-", "unmapped"
		if va != image.BadAddress {
			address = fmt.Sprintf("0x%x", va)
			if cur, err := img.ReadBytes(va, 1); err == nil {
				switch cur[0] {
				case patch.Old:
					status = "original"
				case patch.New:
					status = "patched"
				default:
					status = fmt.Sprintf("mismatch (%02X)", cur[0])
				}
			}
		}
		rows = append(rows, []string{
			fmt.Sprintf("%08x", patch.Offset), address,
			fmt.Sprintf("%02X", patch.Old), fmt.Sprintf("%02X", patch.New), status,
		})
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if ui.IsTerminal(p.Writer()) {
		p.PrintHeader("DIF patches", cmd.CommandPath()+" "+args[0],
			ui.Param{Key: "Description", Value: d.Description},
			ui.Param{Key: "Module", Value: d.Module},
			ui.Param{Key: "Image", Value: describeImage(img)},
		)
	}
	printRows(p, []string{"Offset", "Address", "Old", "New", "Status"}, rows)
	return nil
}

var diffApplyCmd = &cobra.Command{
	Use:   "apply <patch.dif> <file>",
	Short: "Write a patched copy of a file",
	Long: `Apply every patch of a DIF file to a copy of <file>. Bytes that do not hold
the expected original value are patched anyway and reported.`,
	Example: `  sigknife diff apply app.dif app.exe -o app.patched.exe`,
	Args:    cobra.ExactArgs(2),
	RunE:    runDiffApply,
}

var diffCreateCmd = &cobra.Command{
	Use:   "create <original> <patched>",
	Short: "Create a DIF file from two versions of a file",
	Example: `  sigknife diff create app.exe app.patched.exe -o app.dif`,
	Args:    cobra.ExactArgs(2),
	RunE:    runDiffCreate,
}

func init() {
	for _, c := range []*cobra.Command{diffApplyCmd, diffCreateCmd} {
		c.Flags().StringVarP(&diffOutput, "output", "o", "", "Output file (required)")
		c.Flags().BoolVarP(&diffForce, "force", "f", false, "Overwrite the output file without asking")
		_ = c.MarkFlagRequired("output")
	}
}

// confirmOverwrite asks before replacing an existing output file.
func confirmOverwrite(cmd *cobra.Command, path string) bool {
	if diffForce {
		return true
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return true
	}
	return ui.Confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Overwrite file", path+" already exists")
}

func runDiffApply(cmd *cobra.Command, args []string) error {
	d, err := difffile.Load(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	if d.Module != "" && d.Module != filepath.Base(args[1]) {
		fmt.Fprintf(cmd.ErrOrStderr(), "patch file targets %s, applying to %s\n", d.Module, filepath.Base(args[1]))
	}

	applied, applyErr := d.Apply(data)
	if !confirmOverwrite(cmd, diffOutput) {
		return nil
	}
	if err := os.WriteFile(diffOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", diffOutput, err)
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	details := []ui.Param{
		{Key: "Output", Value: diffOutput},
		{Key: "Applied", Value: fmt.Sprintf("%d of %d", applied, len(d.Patches))},
	}
	if applyErr != nil {
		p.PrintError("Patches applied with problems", applyErr)
		return nil
	}
	p.PrintSuccess("Patches applied", details...)
	return nil
}

func runDiffCreate(cmd *cobra.Command, args []string) error {
	original, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	patched, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	if len(original) != len(patched) {
		fmt.Fprintf(cmd.ErrOrStderr(), "files differ in size (%s vs %s), comparing the common prefix\n",
			humanize.IBytes(uint64(len(original))), humanize.IBytes(uint64(len(patched))))
	}

	d := difffile.Diff(filepath.Base(args[0]), original, patched)
	if !confirmOverwrite(cmd, diffOutput) {
		return nil
	}
	if err := d.Save(diffOutput); err != nil {
		return err
	}
	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("DIF file written",
		ui.Param{Key: "Output", Value: diffOutput},
		ui.Param{Key: "Patches", Value: humanize.Comma(int64(len(d.Patches)))},
	)
	return nil
}

// configCmd groups the settings commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change saved settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return err
		}
		text, err := settings.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Change a setting and save the settings file.

Keys: trim_signatures, disable_wildcards, shortest_signatures,
include_short_jumps, include_mem_references, include_rel_addresses,
last_type, batch.min_length, batch.max_length`,
	Example: `  sigknife config set last_type peid
  sigknife config set batch.max_length 80`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load()
		if err != nil {
			return err
		}
		if err := settings.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := settings.Save(); err != nil {
			return err
		}
		value, _ := settings.Get(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], value)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the settings file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit settings interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !ui.IsTerminal(out) {
			return fmt.Errorf("config edit needs a terminal, use \"config set\" instead")
		}

		settings, err := config.Load()
		if err != nil {
			return err
		}

		final, err := tea.NewProgram(wizard.NewSettingsModel(settings), tea.WithAltScreen()).Run()
		if err != nil {
			return fmt.Errorf("failed to run settings editor: %w", err)
		}

		model := final.(wizard.SettingsModel)
		if !model.Saved() || !model.Changed() {
			fmt.Fprintln(out, "No changes saved")
			return nil
		}

		*settings = *model.Result()
		if err := settings.Save(); err != nil {
			return err
		}
		path, _ := config.GetConfigPath()
		fmt.Fprintf(out, "Settings saved to %s\n", path)
		return nil
	},
}
