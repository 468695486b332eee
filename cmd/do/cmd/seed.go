package cmd

import (
	"fmt"

	"github.com/smartstudy/smartstudy/internal/app"
	"github.com/smartstudy/smartstudy/internal/config"
	"github.com/smartstudy/smartstudy/internal/logger"
	"github.com/smartstudy/smartstudy/internal/seed"
	"github.com/spf13/cobra"
)

func SeedCmd() *cobra.Command {
	var counts seed.Counts

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the configured database with fake data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production database")
			}
			logger.Init(logger.Options{Development: true})

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close(ctx) }()

			s := seed.New(a.AuthService, a.UserService, a.ResourceService, a.DiscussionService)
			res, err := s.Run(ctx, counts)
			if err != nil {
				return err
			}

			fmt.Printf("seeded %d users, %d resources, %d discussions (password %q)\n",
				len(res.UserIDs), len(res.ResourceIDs), len(res.DiscussionIDs), seed.Password)
			return nil
		},
	}

	cmd.Flags().IntVar(&counts.Users, "users", 5, "number of users")
	cmd.Flags().IntVar(&counts.Resources, "resources", 10, "number of resources")
	cmd.Flags().IntVar(&counts.Discussions, "discussions", 8, "number of discussions")
	return cmd
}
