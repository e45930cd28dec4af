package command

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"animehub/internal/state"
	"animehub/pkg/models"
)

// list.go manages the favorites, watching and completed lists.

func newListCmd(c *cli) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Manage your anime lists",
		Long:  `Show, add to and remove from your favorites, watching and completed lists.`,
	}

	showCmd := &cobra.Command{
		Use:       "show [list]",
		Short:     "Show one list, or all of them",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: listNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			lists := state.Lists
			if len(args) == 1 {
				list, err := state.ParseListName(args[0])
				if err != nil {
					return err
				}
				lists = []state.ListName{list}
			}
			for _, list := range lists {
				printAnimeList(cmd.OutOrStdout(), string(list), c.app.Store.List(list))
			}
			return nil
		},
	}

	addCmd := &cobra.Command{
		Use:   "add [list] [anime_id]",
		Short: "Add an anime to a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			list, err := state.ParseListName(args[0])
			if err != nil {
				return err
			}
			anime, err := c.resolve(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if !c.app.Store.AddToList(list, anime) {
				warnColor.Fprintf(cmd.OutOrStdout(), "%s is already in %s\n", anime.Title, list)
				return nil
			}
			okColor.Fprintf(cmd.OutOrStdout(), "✓ Added %s to %s\n", anime.Title, list)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [list] [anime_id]",
		Short: "Remove an anime from a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			list, err := state.ParseListName(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if !c.app.Store.RemoveFromList(list, id) {
				warnColor.Fprintf(cmd.OutOrStdout(), "ID %d is not in %s\n", id, list)
				return nil
			}
			okColor.Fprintf(cmd.OutOrStdout(), "✓ Removed ID %d from %s\n", id, list)
			return nil
		},
	}

	listCmd.AddCommand(showCmd, addCmd, removeCmd)
	return listCmd
}

// newMoveCmd builds "watch" and "complete".
func newMoveCmd(c *cli, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [anime_id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			anime, err := c.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			target := state.Watching
			if use == "complete" {
				target = state.Completed
				c.app.Store.MoveToCompleted(anime)
			} else {
				c.app.Store.MoveToWatching(anime)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "✓ %s is now in %s\n", anime.Title, target)
			return nil
		},
	}
}

func newFavCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fav [anime_id]",
		Short: "Toggle an anime in your favorites",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			anime, err := c.resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.app.Store.ToggleFavorite(anime) {
				okColor.Fprintf(cmd.OutOrStdout(), "♥ %s added to favorites\n", anime.Title)
			} else {
				warnColor.Fprintf(cmd.OutOrStdout(), "♡ %s removed from favorites\n", anime.Title)
			}
			return nil
		},
	}
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count the entries in each list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireAuth(); err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), c.app.Store.Stats())
			return nil
		},
	}
}

// resolve finds the record for an id, preferring a copy already in one of
// the lists so it works offline.
func (c *cli) resolve(ctx context.Context, arg string) (models.Anime, error) {
	id, err := parseID(arg)
	if err != nil {
		return models.Anime{}, err
	}
	snap := c.app.Store.Snapshot()
	for _, list := range state.Lists {
		for _, a := range snap.List(list) {
			if a.ID == id {
				return a, nil
			}
		}
	}
	anime, ok := c.app.Catalog.Lookup(ctx, id)
	if !ok {
		return models.Anime{}, fmt.Errorf("anime %d not found in the catalog", id)
	}
	return anime, nil
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid anime ID %q", arg)
	}
	return id, nil
}

func listNames() []string {
	names := make([]string, len(state.Lists))
	for i, l := range state.Lists {
		names[i] = string(l)
	}
	return names
}
