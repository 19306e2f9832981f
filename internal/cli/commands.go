package cmd

import (
	"fmt"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rohmanhakim/botlist-cache/internal/botlist"
	"github.com/rohmanhakim/botlist-cache/internal/mdconvert"
	"github.com/rohmanhakim/botlist-cache/internal/reqcache"
	"github.com/rohmanhakim/botlist-cache/internal/storage"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

var (
	selector  string
	headers   []string
	markdown  bool
	params    []string
	fields    []string
	rateLimit bool
)

func newBotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "botlist",
		Short: "Scrape the known bot accounts and the saved banned-account page into list files.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := InitConfigWithError(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a := newApp(cfg, cmd.ErrOrStderr())

			listSink := storage.NewLocalSink(a.metadataSink)
			job := botlist.NewJob(botlist.NewScraper(a.cache, a.metadataSink), &listSink)
			result, runErr := job.Run(cmd.Context(), botlist.JobParam{
				BotListRequest:   a.markupRequest(cfg.BotListURL()),
				BotListOutput:    cfg.BotListOutput(),
				BannedListSource: cfg.BannedListSource(),
				BannedListOutput: cfg.BannedListOutput(),
				OutputDir:        cfg.OutputDir(),
				HashAlgo:         cfg.HashAlgo(),
			})
			if runErr != nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d names (%s)\n", result.Bots.Path(), result.Bots.Lines(), result.Bots.ContentHash())
			fmt.Fprintf(out, "%s: %d names (%s)\n", result.Banned.Path(), result.Banned.Lines(), result.Banned.ContentHash())
			return nil
		},
	}
}

func newFetchCommand() *cobra.Command {
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a single request through the cache.",
	}

	markupCmd := &cobra.Command{
		Use:   "markup <url>",
		Short: "Fetch an HTML page, optionally keeping only the nodes matching a CSS selector.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			headerMap, err := parseKeyValues("header", headers)
			if err != nil {
				return err
			}
			cfg, err := InitConfigWithError(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a := newApp(cfg, cmd.ErrOrStderr())

			req := a.markupRequest(args[0]).WithHeaders(headerMap)
			if selector != "" {
				req = req.WithSelector(selector)
			}
			doc, fetchErr := a.cache.FetchMarkup(cmd.Context(), req)
			if fetchErr != nil {
				return fetchErr
			}

			if markdown {
				conv := mdconvert.NewMarkdownConverter(a.metadataSink)
				result, convErr := conv.Convert(doc)
				if convErr != nil {
					return convErr
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(result.MarkdownContent()))
				if base, parseErr := url.Parse(args[0]); parseErr == nil {
					if refs := mdconvert.References(result.LinkRefs(), *base); len(refs) > 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "\n%s", refs)
					}
				}
				return nil
			}

			body := doc.Find("body")
			rendered, renderErr := body.Html()
			if renderErr != nil {
				return renderErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(rendered))
			return nil
		},
	}
	markupCmd.Flags().StringVar(&selector, "selector", "", "CSS selector; only matching nodes are stored")
	markupCmd.Flags().StringArrayVar(&headers, "header", []string{}, "request header as name=value (can be repeated)")
	markupCmd.Flags().BoolVar(&markdown, "markdown", false, "print the result as Markdown")

	apiCmd := &cobra.Command{
		Use:   "api <url>",
		Short: "Fetch a JSON API response, optionally keeping only some top-level fields.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paramMap, err := parseKeyValues("param", params)
			if err != nil {
				return err
			}
			cfg, err := InitConfigWithError(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a := newApp(cfg, cmd.ErrOrStderr())

			req := a.structuredRequest(args[0], paramMap).WithRateLimit(rateLimit)
			if len(fields) > 0 {
				req = req.WithFields(fields...)
			}
			result, fetchErr := a.cache.FetchStructured(cmd.Context(), req)
			if fetchErr != nil {
				return fetchErr
			}
			cmd.OutOrStdout().Write(pretty.Pretty(result.Raw()))
			return nil
		},
	}
	apiCmd.Flags().StringArrayVar(&params, "param", []string{}, "query parameter as name=value (can be repeated)")
	apiCmd.Flags().StringArrayVar(&fields, "field", []string{}, "top-level field to keep (can be repeated)")
	apiCmd.Flags().BoolVar(&rateLimit, "rate-limit", false, "pause before the request when it misses the cache")

	fetchCmd.AddCommand(markupCmd, apiCmd)
	return fetchCmd
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "List the stored identities with their kind and age.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := InitConfigWithError(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			recorder := newRecorder(cfg, cmd.ErrOrStderr())

			store, loadErr := reqcache.LoadStore(cfg.CacheFile(), recorder)
			if loadErr != nil {
				return loadErr
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tAGE\tIDENTITY")
			for _, identity := range store.Identities() {
				entry, _ := store.Get(identity)
				age := now.Sub(entry.FetchedAt()).Truncate(time.Second)
				fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Kind(), age, identity)
			}
			return w.Flush()
		},
	}
}

// parseKeyValues turns repeated name=value flags into a map. Later values win.
func parseKeyValues(flagName string, pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("--%s %q must look like name=value", flagName, pair)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}
