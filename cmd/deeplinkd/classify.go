package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/goliatone/go-deeplink/core"
	"github.com/spf13/cobra"
)

func newClassifyCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "classify URL...",
		Short: "Print how each URL would be routed",
		Example: `  deeplinkd classify 'haip://?credential_offer_uri=https%3A%2F%2Fissuer.example%2F1'
  deeplinkd classify 'wholesale-test-app://landing/?state=abc'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), root)
			if err != nil {
				return err
			}
			classifier := core.NewClassifier(cfg.Classifier)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tTOKEN\tURL")
			for _, raw := range args {
				event := classifier.Classify(raw)
				token := "-"
				if event.IsRedirect() {
					token = fmt.Sprintf("%q", event.Token)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", event.Kind, token, core.RedactURL(event.URL))
			}
			return w.Flush()
		},
	}
}
