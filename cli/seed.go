package cli

import (
	"fmt"

	"campus-eats-api/app"

	"github.com/spf13/cobra"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, vendors and meals into an empty database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rootOpts.load()
			if err != nil {
				return err
			}
			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Seed(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintln(out, "database already has users, nothing seeded")
				return nil
			}
			fmt.Fprintf(out, "seeded %d users, %d vendors, %d meals (password %q)\n",
				res.Users, res.Vendors, res.Meals, app.DemoPassword)
			return nil
		},
	}
}
