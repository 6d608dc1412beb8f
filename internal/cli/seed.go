package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jask/dashtabs/internal/database/repository"
	"github.com/jask/dashtabs/internal/service"
)

func newSeedCommand(s *session) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the demo explore, or regenerate it with --force",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context(), s)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if force {
				n, err := (&service.MaintenanceService{DB: rt.db}).Reseed(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintf(out, "reseeded %d order items\n", n); err != nil {
					return err
				}
			}
			latest, err := repository.NewOrderItemRepo(rt.db).Latest(cmd.Context())
			if err != nil {
				return fmt.Errorf("read latest order item: %w", err)
			}
			_, err = fmt.Fprintf(out, "explore ready at %s, data through %s\n",
				s.cfg.Database.Path, latest.Format(time.DateOnly))
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "wipe and regenerate the demo rows")
	return cmd
}
