package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/effectus/calcmetric-go/compiler"
	"github.com/effectus/calcmetric-go/formula"
	"github.com/effectus/calcmetric-go/lint"
)

func defineCommands(a *app) map[string]*Command {
	commands := make(map[string]*Command)

	renderCmd := &Command{
		Name:        "render",
		Description: "Render a formula as its display label",
		FlagSet:     flag.NewFlagSet("render", flag.ExitOnError),
	}
	rTokens := renderCmd.FlagSet.Bool("tokens", false, "Print the token stream instead of the label")
	renderCmd.Run = func() error {
		return a.render(renderCmd.FlagSet.Args(), *rTokens)
	}
	commands[renderCmd.Name] = renderCmd

	lintCmd := &Command{
		Name:        "lint",
		Description: "Check a formula for structural problems",
		FlagSet:     flag.NewFlagSet("lint", flag.ExitOnError),
	}
	lReadiness := lintCmd.FlagSet.String("readiness", "", "Readiness check: ignore, warn or error (defaults to config)")
	lintCmd.Run = func() error {
		return a.lint(lintCmd.FlagSet.Args(), *lReadiness)
	}
	commands[lintCmd.Name] = lintCmd

	exportCmd := &Command{
		Name:        "export",
		Description: "Rewrite a formula as an expr-lang expression",
		FlagSet:     flag.NewFlagSet("export", flag.ExitOnError),
	}
	eRefs := exportCmd.FlagSet.Bool("refs", false, "Also list the referenced variables")
	exportCmd.Run = func() error {
		return a.export(exportCmd.FlagSet.Args(), *eRefs)
	}
	commands[exportCmd.Name] = exportCmd

	catalogCmd := &Command{
		Name:        "catalog",
		Description: "List catalog entries that can be added to a formula",
		FlagSet:     flag.NewFlagSet("catalog", flag.ExitOnError),
	}
	cKind := catalogCmd.FlagSet.String("kind", "", "Only list one kind (metric, constant, conversion, utm, import, kpi)")
	cQuery := catalogCmd.FlagSet.String("q", "", "Case-insensitive name filter")
	catalogCmd.Run = func() error {
		return a.listCatalog(*cKind, *cQuery)
	}
	commands[catalogCmd.Name] = catalogCmd

	runCmd := &Command{
		Name:        "run",
		Description: "Replay an editing script against a session",
		FlagSet:     flag.NewFlagSet("run", flag.ExitOnError),
	}
	runCmd.Run = func() error {
		args := runCmd.FlagSet.Args()
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one script file")
		}
		script, err := loadScript(args[0])
		if err != nil {
			return err
		}
		return a.runScript(script)
	}
	commands[runCmd.Name] = runCmd

	watchCmd := &Command{
		Name:        "watch",
		Description: "Re-render a formula whenever the catalog file changes",
		FlagSet:     flag.NewFlagSet("watch", flag.ExitOnError),
	}
	watchCmd.Run = func() error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return a.watch(ctx, watchCmd.FlagSet.Args())
	}
	commands[watchCmd.Name] = watchCmd

	return commands
}

func (a *app) compiler() *compiler.Compiler {
	return compiler.NewCompiler(a.catalog, compiler.WithLogger(a.logger))
}

func (a *app) compileArgs(args []string) (*formula.Store, error) {
	name, source, err := readSource(args)
	if err != nil {
		return nil, err
	}
	return a.compiler().Compile(name, source)
}

func (a *app) render(args []string, tokens bool) error {
	store, err := a.compileArgs(args)
	if err != nil {
		return err
	}
	if !tokens {
		fmt.Fprintln(a.out, store.Render())
		return nil
	}
	for _, tok := range formula.Tokens(store.Operands()) {
		if tok.OperandID != "" {
			fmt.Fprintf(a.out, "%-11s %-20q %s\n", tok.Kind, tok.Text, tok.OperandID)
			continue
		}
		fmt.Fprintf(a.out, "%-11s %q\n", tok.Kind, tok.Text)
	}
	return nil
}

func (a *app) lint(args []string, readiness string) error {
	store, err := a.compileArgs(args)
	if err != nil {
		return err
	}

	if readiness == "" {
		readiness = a.cfg.Readiness
	}
	mode, err := lint.ParseReadinessMode(readiness)
	if err != nil {
		return err
	}
	options := lint.DefaultOptions()
	options.Readiness = mode

	issues := lint.LintFormulaWithOptions(store.Operands(), options)
	for _, issue := range issues {
		fmt.Fprintln(a.out, issue.String())
	}
	if lint.HasErrors(issues) {
		return fmt.Errorf("lint found %d issue(s)", len(issues))
	}
	if len(issues) == 0 {
		fmt.Fprintln(a.out, "ok")
	}
	return nil
}

func (a *app) export(args []string, refs bool) error {
	store, err := a.compileArgs(args)
	if err != nil {
		return err
	}
	exported, err := compiler.Export(store.Operands())
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, exported.String())
	if refs {
		for _, ref := range exported.References {
			fmt.Fprintf(a.out, "  %s\n", ref)
		}
	}
	return nil
}

func (a *app) listCatalog(kind, query string) error {
	kinds := formula.ReferenceKinds
	if strings.TrimSpace(kind) != "" {
		k, err := formula.ParseKind(kind)
		if err != nil {
			return err
		}
		if !k.IsReference() {
			return fmt.Errorf("%s entries are not listed in the catalog", k)
		}
		kinds = []formula.Kind{k}
	}

	for _, k := range kinds {
		items := a.catalog.Search(k, query)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(a.out, "%s:\n", k)
		for _, item := range items {
			if item.Group != "" {
				fmt.Fprintf(a.out, "  %-28s %s (%s)\n", item.ID, item.Name, item.Group)
				continue
			}
			fmt.Fprintf(a.out, "  %-28s %s\n", item.ID, item.Name)
		}
	}
	return nil
}
