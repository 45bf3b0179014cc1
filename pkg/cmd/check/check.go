package check

import (
	"github.com/spf13/cobra"
)

func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "commands to verify data integrity",
	}
	cmd.AddCommand(NewCheckDatasetCmd())
	return cmd
}
