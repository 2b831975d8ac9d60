package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/stlalpha/gbbsmsg/internal/config"
	"github.com/stlalpha/gbbsmsg/internal/gbbs"
	"github.com/stlalpha/gbbsmsg/internal/logging"
	"github.com/stlalpha/gbbsmsg/internal/output"
	"github.com/stlalpha/gbbsmsg/internal/report"
	"github.com/stlalpha/gbbsmsg/internal/user"
)

const version = "1.0.1"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	cmd := args[0]
	switch cmd {
	case "--version", "-version":
		fmt.Fprintf(stdout, "gbbsmsgtool %s - GBBS Pro Message Database Tool\n", version)
		return 0
	case "--help", "-h", "help":
		printUsage(stdout)
		return 0
	case "analyze":
		return cmdAnalyze(args[1:], stdout, stderr)
	case "extract":
		return cmdExtract(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Error: Unknown command '%s'\n\n", cmd)
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `gbbsmsgtool %s - GBBS Pro Message Database Tool

Usage:
  gbbsmsgtool analyze <msgdb_file> [--users <users_file>]
  gbbsmsgtool extract <msgdb_file> [--active] [--deleted] [--orphaned] [--all]
                      [--output-dir <path>] [--users <users_file>] [--force]

Commands:
  analyze    Show database statistics and block map
  extract    Extract messages from database

Extract options:
  --active       Extract active messages
  --deleted      Extract deleted messages
  --orphaned     Extract orphaned blocks
  --all          Extract all types
  --output-dir   Write to directory instead of stdout
  --users        Path to USERS file (for email recipient names)
  --force        Overwrite existing files (default: abort if files exist)

Global options:
  --config FILE  Tool configuration (default: %s if present)
  --log FILE     Also write log output to a rotated file
  --debug        Enable debug logging (or DEBUG=1)
`, version, config.DefaultFile)
}

// common holds the flags shared by every command.
type common struct {
	users      *string
	configPath *string
	logPath    *string
	debug      *bool
}

func addCommonFlags(fs *flag.FlagSet) common {
	return common{
		users:      fs.String("users", "", "Path to USERS file"),
		configPath: fs.String("config", config.DefaultFile, "Configuration file"),
		logPath:    fs.String("log", "", "Rotated log file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
	}
}

// session is the state prepared before a command runs.
type session struct {
	cfg     config.ToolConfig
	file    string
	img     *gbbs.Image
	users   user.Directory
	closers []io.Closer
}

func (s *session) close() {
	for _, c := range s.closers {
		c.Close()
	}
}

// open parses flags, applies configuration and loads the database. The
// database file may appear before or after the flags.
func open(fs *flag.FlagSet, c common, args []string, stderr io.Writer) (*session, error) {
	fs.SetOutput(stderr)
	if err := fs.Parse(hoistFlags(fs, args)); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, fmt.Errorf("%s requires filename", fs.Name())
	}

	logging.DebugEnabled = *c.debug || os.Getenv("DEBUG") == "1"

	s := &session{file: fs.Arg(0)}
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	if *c.logPath != "" {
		s.closers = append(s.closers, logging.ToFile(*c.logPath, cfg.Log))
	}

	data, err := os.ReadFile(s.file)
	if err != nil {
		s.close()
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file '%s' not found", s.file)
		}
		return nil, fmt.Errorf("reading '%s': %w", s.file, err)
	}

	s.img, err = gbbs.Load(data)
	if s.img == nil {
		s.close()
		return nil, err
	}
	if err != nil {
		log.Printf("WARN: %v; continuing with partial analysis", err)
	}

	if *c.users != "" {
		s.users, err = user.Load(*c.users)
		if err != nil || len(s.users) == 0 {
			fmt.Fprintf(stderr, "Warning: Could not read USERS file '%s' or file is empty\n", *c.users)
		}
	}
	return s, nil
}

// hoistFlags moves positional arguments behind the flags so that
// "extract FILE --all" parses like "extract --all FILE".
func hoistFlags(fs *flag.FlagSet, args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(a, "-") || a == "-" {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if f := fs.Lookup(name); f != nil && !isBoolFlag(f) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

func isBoolFlag(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}

// cmdAnalyze displays database statistics and the block map.
func cmdAnalyze(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	c := addCommonFlags(fs)
	s, err := open(fs, c, args, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer s.close()

	scanner := gbbs.NewScanner(s.img, s.cfg.ScanOptions())
	a := scanner.Analyze()
	ex := scanner.Extract(gbbs.All)

	color, perRow := terminalSettings(stdout, s.cfg)
	rp := report.New(stdout, color, perRow)
	rp.Analysis(s.img, a, report.Summary{
		Name:     s.file,
		Active:   len(ex.Active),
		Deleted:  len(ex.Deleted),
		Orphaned: len(ex.Orphaned),
	})
	return 0
}

// cmdExtract writes recovered messages to stdout or a directory.
func cmdExtract(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	c := addCommonFlags(fs)
	active := fs.Bool("active", false, "Extract active messages")
	deleted := fs.Bool("deleted", false, "Extract deleted messages")
	orphaned := fs.Bool("orphaned", false, "Extract orphaned blocks")
	all := fs.Bool("all", false, "Extract all types")
	outDir := fs.String("output-dir", "", "Write to directory instead of stdout")
	force := fs.Bool("force", false, "Overwrite existing files")

	s, err := open(fs, c, args, stderr)
	if err != nil {
		return fail(stderr, err)
	}
	defer s.close()

	sel := gbbs.Selection{Active: *active, Deleted: *deleted, Orphaned: *orphaned}
	if *all {
		sel = gbbs.All
	}
	if sel == (gbbs.Selection{}) {
		fmt.Fprintf(stderr, "Error: You must specify what to extract\n\n")
		printUsage(stderr)
		return 1
	}

	scanner := gbbs.NewScanner(s.img, s.cfg.ScanOptions())
	ex := scanner.Extract(sel)

	if sel.Active && len(ex.Active) > 0 && !anyDated(ex.Active) {
		color, _ := terminalSettings(stdout, s.cfg)
		rp := report.New(stdout, color, s.cfg.BlockMapWidth)
		rp.Warn("Warning: No standard date headers found in '%s'", s.file)
		rp.Warn("This file may use a non-standard format. Add its date layout to the configuration.\n")
	}

	w := &output.Writer{
		Dir:    *outDir,
		Force:  *force,
		Out:    stdout,
		Format: s.img.Format(),
		Users:  s.users,
	}
	m, err := w.Write(ex, sel)
	if err != nil {
		return fail(stderr, err)
	}
	if m != nil {
		m.Source = s.file
		if err := m.Save(*outDir); err != nil {
			return fail(stderr, err)
		}
	}
	return 0
}

func anyDated(msgs []gbbs.Message) bool {
	for i := range msgs {
		if msgs[i].HasDate() {
			return true
		}
	}
	return false
}

// terminalSettings decides on color and block map width for w.
func terminalSettings(w io.Writer, cfg config.ToolConfig) (bool, int) {
	perRow := cfg.BlockMapWidth
	f, ok := w.(*os.File)
	isTerm := ok && term.IsTerminal(int(f.Fd()))
	if isTerm {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			perRow = report.RowFit(width, perRow)
		}
	}
	switch cfg.Color {
	case config.ColorAlways:
		return true, perRow
	case config.ColorNever:
		return false, perRow
	}
	return isTerm, perRow
}

func fail(stderr io.Writer, err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
