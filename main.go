package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"contactimport/app"
	"contactimport/app/fileloader"
	"contactimport/app/interfaces"
	"contactimport/app/settings"
	"contactimport/store/sqlite"
)

const reviewPreviewRows = 15

func main() {
	var (
		dbPath     = flag.String("db", "contacts.db", "path to the contacts database")
		configPath = flag.String("config", "", "path to a YAML settings file (optional)")
		pattern    = flag.String("pattern", "**/*.{csv,xlsx,json}", "glob pattern when importing a directory")
		formatName = flag.String("format", "", "declared input format: csv, xlsx or json (default: detect)")
		yes        = flag.Bool("yes", false, "accept defaults at every prompt (non-interactive)")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file-or-directory>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	cfg := settings.Load(*configPath)

	declared, err := parseFormatFlag(*formatName)
	if err != nil {
		color.Red("%v", err)
		os.Exit(2)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		color.Red("open database: %v", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Init(context.Background()); err != nil {
		color.Red("init database: %v", err)
		os.Exit(1)
	}

	manager := app.NewManager(store, cfg)
	files, err := resolveInputs(inputPath, *pattern)
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	prompter := &prompter{reader: bufio.NewReader(os.Stdin), autoAccept: *yes}
	failures := 0
	for _, file := range files {
		if err := runWizard(manager, prompter, file, declared); err != nil {
			color.Red("import %s failed: %v", file, err)
			failures++
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

// resolveInputs expands a directory argument into its matching files; a plain
// file argument passes through untouched.
func resolveInputs(path, pattern string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	dir, err := fileloader.DiscoverFiles(path, pattern)
	if err != nil {
		return nil, fmt.Errorf("discover files in %s: %w", path, err)
	}
	if len(dir.Files) == 0 {
		return nil, fmt.Errorf("no files matching %q under %s", pattern, path)
	}
	color.Cyan("Found %d file(s) under %s", len(dir.Files), path)
	return dir.Files, nil
}

func parseFormatFlag(name string) (fileloader.Format, error) {
	switch strings.ToLower(name) {
	case "":
		return fileloader.FormatAuto, nil
	case "csv":
		return fileloader.FormatCSV, nil
	case "xlsx":
		return fileloader.FormatXLSX, nil
	case "json":
		return fileloader.FormatJSON, nil
	default:
		return fileloader.FormatAuto, fmt.Errorf("unknown format %q (want csv, xlsx or json)", name)
	}
}

// runWizard drives one file through the full import wizard.
func runWizard(manager *app.Manager, p *prompter, path string, declared fileloader.Format) error {
	color.Cyan("\n=== Importing %s ===", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	if declared == fileloader.FormatAuto {
		declared = fileloader.DetectFormat(path)
	}

	session := manager.NewSession(progressPrinter)
	defer manager.Remove(session.ID)

	if err := session.StartAnalysis(context.Background(), data, declared); err != nil {
		return err
	}

	summary := session.Summary()
	printAnalysis(summary)
	printMappings(summary.Mappings)
	printContacts(summary.Contacts)
	printIssues(summary.Issues)

	if len(summary.Contacts) == 0 {
		color.Yellow("No importable contacts; nothing to commit.")
		return session.Reset()
	}

	if session.HasDuplicates() {
		if err := session.OpenDuplicates(); err != nil {
			return err
		}
		if err := reviewDuplicates(session, p); err != nil {
			return err
		}
	}

	if err := session.Confirm(); err != nil {
		return err
	}
	if !p.confirm(fmt.Sprintf("Commit %d contact(s)?", len(summary.Contacts)-len(summary.Duplicates)), true) {
		color.Yellow("Import cancelled.")
		return session.Reset()
	}

	result, err := session.Commit(context.Background())
	if err != nil {
		return err
	}

	color.Green("Saved %d contact(s).", result.SavedCount)
	if len(result.Failures) > 0 {
		color.Red("%d write(s) failed:", len(result.Failures))
		for _, f := range result.Failures {
			fmt.Printf("  %s: %s\n", f.Contact.Name, f.Reason)
		}
	}
	return nil
}

// reviewDuplicates walks the flagged candidates, letting the user re-include
// individual contacts. The default keeps every flagged contact out.
func reviewDuplicates(session *app.Session, p *prompter) error {
	candidates := session.Duplicates()
	color.Yellow("\n%d possible duplicate(s) found (excluded by default)", len(candidates))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Incoming", "Matches Existing", "Confidence"})
	for i, c := range candidates {
		table.Append([]string{
			strconv.Itoa(i + 1),
			describeContact(c.Contact),
			c.ExistingMatch,
			fmt.Sprintf("%.0f%%", c.Confidence*100),
		})
	}
	table.Render()

	for i, c := range candidates {
		if p.confirm(fmt.Sprintf("Import %q anyway?", c.Contact.Name), false) {
			if err := session.SelectDuplicate(i, true); err != nil {
				return err
			}
		}
	}
	return session.BackToReview()
}

func printAnalysis(summary app.Summary) {
	a := summary.StructuralAnalysis
	if a == nil {
		return
	}
	fmt.Printf("Rows: %d  Columns: %d  Quality: ", a.RowCount, a.ColumnCount)
	switch a.OverallQuality {
	case interfaces.QualityGood:
		color.Green("%s", a.OverallQuality)
	case interfaces.QualityFair:
		color.Yellow("%s", a.OverallQuality)
	default:
		color.Red("%s", a.OverallQuality)
	}
	if summary.Stats.AutoCorrections > 0 {
		fmt.Printf("Auto-corrections applied: %d\n", summary.Stats.AutoCorrections)
	}
}

func printMappings(mappings []interfaces.ColumnMapping) {
	color.Yellow("\nColumn Mapping")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Column", "Mapped To", "Confidence"})
	for _, m := range mappings {
		table.Append([]string{
			m.OriginalHeader,
			m.TargetField,
			fmt.Sprintf("%.0f%%", m.Confidence*100),
		})
	}
	table.Render()
}

func printContacts(contacts []interfaces.ImportedContact) {
	color.Yellow("\nContacts (%d)", len(contacts))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Row", "Name", "Email", "Phone", "City"})
	for i, c := range contacts {
		if i == reviewPreviewRows {
			fmt.Printf("  ... and %d more\n", len(contacts)-reviewPreviewRows)
			break
		}
		table.Append([]string{
			strconv.Itoa(c.RowIndex + 1),
			c.Name,
			c.Email,
			c.Phone,
			c.City,
		})
	}
	table.Render()
}

func printIssues(issues []interfaces.ImportIssue) {
	if len(issues) == 0 {
		return
	}
	color.Yellow("\nIssues (%d)", len(issues))
	for _, issue := range issues {
		line := issue.Message
		if issue.RowIndex >= 0 {
			line = fmt.Sprintf("row %d: %s", issue.RowIndex+1, issue.Message)
		}
		switch issue.Severity {
		case interfaces.SeverityError:
			color.Red("  %s", line)
		case interfaces.SeverityWarning:
			color.Yellow("  %s", line)
		default:
			fmt.Printf("  %s\n", line)
		}
	}
}

func describeContact(c interfaces.ImportedContact) string {
	if c.Email != "" {
		return fmt.Sprintf("%s <%s>", c.Name, c.Email)
	}
	if c.Phone != "" {
		return fmt.Sprintf("%s (%s)", c.Name, c.Phone)
	}
	return c.Name
}

// progressPrinter reports pipeline stage starts on one line each.
func progressPrinter(stage string, current, total int64, detail string) {
	if current == 0 {
		fmt.Printf("  %s: %s\n", stage, detail)
	}
}

// prompter reads yes/no answers from stdin. Each prompt declares its own
// default answer; -yes takes that default at every prompt, so scripted runs
// commit imports but still leave flagged duplicates excluded.
type prompter struct {
	reader     *bufio.Reader
	autoAccept bool
}

func (p *prompter) confirm(question string, preferYes bool) bool {
	if p.autoAccept {
		return preferYes
	}
	hint := "[y/N]"
	if preferYes {
		hint = "[Y/n]"
	}
	fmt.Printf("%s %s ", question, hint)
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	case "":
		return preferYes
	default:
		return false
	}
}
