package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/effectus/calcmetric-go/catalog"
)

// watch renders the formula once and again after every catalog change until
// ctx is cancelled. A formula that stops compiling against a new catalog is
// reported and the watch continues.
func (a *app) watch(ctx context.Context, args []string) error {
	if a.catalogPath == "" {
		return fmt.Errorf("watch needs a catalog file (-catalog or config)")
	}
	name, source, err := readSource(args)
	if err != nil {
		return err
	}
	debounce, err := a.cfg.Debounce()
	if err != nil {
		return err
	}
	w, err := catalog.NewWatcher(a.catalogPath,
		catalog.WithWatcherLogger(a.logger),
		catalog.WithDebounce(debounce))
	if err != nil {
		return err
	}
	defer w.Close()

	if err := a.renderSource(name, source); err != nil {
		return err
	}
	a.logger.Info("watching catalog", zap.String("path", a.catalogPath))
	for {
		select {
		case <-ctx.Done():
			return nil
		case cat := <-w.Updates():
			a.catalog = cat
			if err := a.renderSource(name, source); err != nil {
				fmt.Fprintf(a.out, "error: %v\n", err)
			}
		case err := <-w.Errors():
			a.logger.Warn("catalog reload failed", zap.Error(err))
		}
	}
}

func (a *app) renderSource(name, source string) error {
	store, err := a.compiler().Compile(name, source)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, store.Render())
	return nil
}
