package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/effectus/calcmetric-go/catalog"
	"github.com/effectus/calcmetric-go/internal/config"
	"github.com/effectus/calcmetric-go/internal/logging"
)

// Command represents a sub-command of calcmetricc
type Command struct {
	Name        string
	Description string
	FlagSet     *flag.FlagSet
	Run         func() error
}

// app carries what every command needs once global flags are parsed.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	catalog     *catalog.Catalog
	catalogPath string
	out         io.Writer
}

var (
	// Global flags
	configPath  = flag.String("config", "", "Path to a YAML or JSON config file")
	catalogPath = flag.String("catalog", "", "Path to a catalog file (defaults to the built-in catalog)")
	verbose     = flag.Bool("verbose", false, "Show detailed output")
)

func main() {
	flag.Parse()
	args := flag.Args()

	a, err := newApp(*configPath, *catalogPath, *verbose, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.logger.Sync() //nolint:errcheck

	commands := defineCommands(a)

	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: calcmetricc [global options] <command> [options]")
		printCommands(commands)
		flag.PrintDefaults()
		os.Exit(1)
	}

	cmdName := args[0]
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmdName)
		printCommands(commands)
		os.Exit(1)
	}

	cmd.FlagSet.Parse(args[1:]) //nolint:errcheck

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp loads configuration, the logger and the catalog. A -catalog flag
// wins over the configured catalog path.
func newApp(cfgPath, catPath string, verbose bool, out io.Writer) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, verbose)
	if err != nil {
		return nil, err
	}

	if catPath == "" {
		catPath = cfg.Catalog
	}
	cat := catalog.Default()
	if catPath != "" {
		cat, err = catalog.LoadFile(catPath)
		if err != nil {
			return nil, err
		}
		logger.Debug("catalog loaded", zap.String("path", catPath))
	}

	return &app{cfg: cfg, logger: logger, catalog: cat, catalogPath: catPath, out: out}, nil
}

func printCommands(commands map[string]*Command) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s\t%s\n", name, commands[name].Description)
	}
}

// readSource returns the formula named by args: the contents of a file when
// a single existing path is given, otherwise the arguments joined by spaces.
func readSource(args []string) (name, source string, err error) {
	if len(args) == 0 {
		return "", "", fmt.Errorf("no formula specified")
	}
	if len(args) == 1 {
		if info, statErr := os.Stat(args[0]); statErr == nil && !info.IsDir() {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return "", "", fmt.Errorf("reading %s: %w", args[0], err)
			}
			return args[0], string(data), nil
		}
	}
	return "<args>", strings.Join(args, " "), nil
}
