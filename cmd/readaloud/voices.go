package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/example/readaloud/internal/synth"
	"github.com/example/readaloud/internal/voice"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

func newVoicesCmd() *cobra.Command {
	var lang string
	var all bool

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List voices offered by the current policy",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			policy, catalog, err := loadVoicesFile(cfg.Paths.VoicesFile)
			if err != nil {
				return err
			}
			if all {
				policy.Locales = nil
				policy.Names = nil
			}

			var synthOpts []synth.Option
			if len(catalog) > 0 {
				synthOpts = append(synthOpts, synth.WithCatalog(catalog))
			}
			speech := synth.NewLocal(synthOpts...)
			selector := voice.NewSelector(speech, policy)
			if cfg.Speech.Voice != "" {
				selector.Select(cfg.Speech.Voice)
			}
			if lang != "" {
				if v, ok := selector.AutoSelect(lang); ok {
					fmt.Fprintf(os.Stdout, "auto-selected for %s: %s (%s)\n\n", lang, v.Name, v.ID)
				} else {
					fmt.Fprintf(os.Stdout, "no voice matches %s\n\n", lang)
				}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VOICE\tLANG\tLANGUAGE\tID\tSELECTED")
			for _, e := range selector.Menu() {
				mark := ""
				if e.Checked {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					e.Voice.Name, e.Voice.Lang, languageName(e.Voice.Lang), e.Voice.ID, mark)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&lang, "lang", "", "Preview automatic selection for a language tag")
	cmd.Flags().BoolVar(&all, "all", false, "Ignore the policy allow-lists and list every voice")

	return cmd
}

// languageName renders a BCP 47 tag as an English display name, falling
// back to the raw tag.
func languageName(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return display.English.Tags().Name(t)
}
