package command

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"animehub/internal/api"
	"animehub/internal/state"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the presentation API for a UI shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			unsubscribe := a.Store.Subscribe(func(s state.Snapshot) {
				a.Logger.Debug("state_changed",
					zap.String("route", string(s.Route())),
					zap.Int("favorites", len(s.Favorites)),
					zap.Int("watching", len(s.Watching)),
					zap.Int("completed", len(s.Completed)),
				)
			})
			defer unsubscribe()

			handler := api.NewHandler(a.Store, a.Catalog, a.Auth, a.Logger)
			srv := api.NewServer(a.Config.HTTPAddr, api.NewRouter(handler, a.Logger), a.Logger)
			return srv.Run(cmd.Context(), a.Config.ShutdownTimeout)
		},
	}
}
