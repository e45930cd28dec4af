package command

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"animehub/internal/catalog"
)

func newTrendingCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "trending",
		Short: "Show the trending anime page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := c.app.Catalog.FetchTrending(cmd.Context())
			printAnimeList(cmd.OutOrStdout(), "Trending", items)
			return nil
		},
	}
}

func newSearchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog (blank query shows trending)",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			items := c.app.Catalog.Search(cmd.Context(), q)
			heading := fmt.Sprintf("Results for %q", q)
			if strings.TrimSpace(q) == "" {
				heading = "Trending"
			}
			printAnimeList(cmd.OutOrStdout(), heading, items)
			return nil
		},
	}
}

// browse reads one query per line and shows results as typing settles,
// the way the search box does.
func newBrowseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Search interactively, one query per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			results := make(chan catalog.Result)
			done := make(chan struct{})
			searcher := c.app.NewSearcher(func(r catalog.Result) {
				select {
				case results <- r:
				case <-done:
				}
			})
			defer searcher.Close()
			defer close(done)

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					select {
					case lines <- scanner.Text():
					case <-done:
						return
					}
				}
			}()

			dimColor.Fprintln(out, "Type to search, blank line for trending, Ctrl-D to quit.")
			// last is the newest generation queried, shown the newest printed
			var last, shown uint64
			for {
				select {
				case line, ok := <-lines:
					if !ok {
						if last == 0 || shown == last {
							return nil
						}
						// wait for the final query's result
						lines = nil
						continue
					}
					last = searcher.Query(line)

				case r := <-results:
					heading := fmt.Sprintf("Results for %q", r.Query)
					if strings.TrimSpace(r.Query) == "" {
						heading = "Trending"
					}
					printAnimeList(out, heading, r.Items)
					shown = r.Generation
					if lines == nil && shown == last {
						return nil
					}

				case <-ctx.Done():
					return ctx.Err()
				}
			}
		},
	}
}
