// Command deeplinkd runs the deep-link intake as a daemon and offers a few
// operator commands around it.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-deeplink/adapters/tomlconfig"
	"github.com/goliatone/go-deeplink/core"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "deeplinkd",
		Short: "Deep-link intake for credential offers and app-link redirects",
		Long: `deeplinkd receives URLs handed over by the platform or a browser landing page,
queues credential offers for the wallet and resolves pending redirect waits by
their state token.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "f", "",
		"path to a TOML configuration file")

	cmd.AddCommand(
		newServeCommand(opts),
		newClassifyCommand(opts),
		newJournalCommand(opts),
		newConfigCommand(opts),
	)
	return cmd
}

// loadConfig resolves defaults and the optional config file into the
// effective configuration.
func loadConfig(ctx context.Context, opts *rootOptions) (core.Config, error) {
	path := strings.TrimSpace(opts.configFile)
	loader := &tomlconfig.Loader{Path: path}
	cfg, err := core.NewCfgxConfigProvider(loader).Load(ctx, core.DefaultConfig())
	if err != nil {
		return core.Config{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}
