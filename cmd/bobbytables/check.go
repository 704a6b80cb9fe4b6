package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"

	"github.com/bobbytablesbot/bobbytables/internal/catalog"
	"github.com/bobbytablesbot/bobbytables/internal/compose"
	"github.com/bobbytablesbot/bobbytables/internal/config"
	"github.com/bobbytablesbot/bobbytables/internal/dispatch"
	"github.com/bobbytablesbot/bobbytables/internal/matcher"
	"github.com/bobbytablesbot/bobbytables/internal/resolver"
)

var (
	checkLoose bool
	checkHTML  bool
)

var checkCmd = &cobra.Command{
	Use:   "check <text>",
	Short: "Show what the bot would reply to text, without posting",
	Long: `Runs the matcher, resolver and composer over text and prints the tokens,
the comics found and the reply. Nothing is posted or recorded.

Examples:
  bobbytables check '!327 and !1...3'
  bobbytables check --loose 'see 327'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		ctx := context.Background()
		s, err := openStore(ctx, log, cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		client, err := catalog.NewClient(log, cfg.Catalog.BaseURL, config.Duration(cfg.Catalog.Timeout, config.DefaultTimeout))
		if err != nil {
			return err
		}
		closer := ""
		if profile, err := cfg.Profile(); err == nil {
			closer = profile.Closer()
		}
		d := dispatch.NewDispatcher(log, "",
			resolver.NewResolver(log, client),
			client,
			compose.NewComposer(log, links(cfg), closer, s),
			s,
			nil,
		)
		text := strings.Join(args, " ")
		plan, err := d.PlanText(ctx, text, !checkLoose)
		if err != nil {
			return err
		}
		printPlan(cmd.OutOrStdout(), text, plan)
		if checkHTML && plan.Reply != "" {
			return renderHTML(cmd.OutOrStdout(), plan.Reply)
		}
		return nil
	},
}

func printPlan(w io.Writer, text string, plan dispatch.Plan) {
	fmt.Fprintf(w, "strict: %t\n", plan.Strict)
	for _, tok := range matcher.Scan(text, plan.Strict) {
		fmt.Fprintf(w, "token: %-7s %q at %d\n", tok.Kind, tok.Text, tok.Offset)
	}
	if plan.Skipped != dispatch.SkipNone {
		fmt.Fprintf(w, "no reply: %s\n", plan.Skipped)
		return
	}
	fmt.Fprintf(w, "comics: %s\n", strings.Join(plan.Identifiers, ", "))
	if len(plan.Reply) >= dispatch.MaxReplyLength {
		fmt.Fprintf(w, "reply of %d characters would not be posted\n", len(plan.Reply))
	}
	fmt.Fprintf(w, "---- reply ----\n%s\n", plan.Reply)
}

// renderHTML previews reply as HTML. Reddit's spoiler and superscript
// extensions are left as literal text.
func renderHTML(w io.Writer, reply string) error {
	fmt.Fprintln(w, "---- html ----")
	if err := goldmark.Convert([]byte(reply), w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func init() {
	checkCmd.Flags().BoolVar(&checkHTML, "html", false, "also print the reply rendered as HTML")
	checkCmd.Flags().BoolVar(&checkLoose, "loose", false, "accept bare numbers, as for mentions and direct messages")
	rootCmd.AddCommand(checkCmd)
}
