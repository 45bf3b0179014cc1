package server

import (
	"github.com/spf13/cobra"

	"github.com/pitwall-labs/f1-strategy-manager-go/pkg/cmd/server/http"
)

func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "commands regarding the race emulation server",
	}
	cmd.AddCommand(http.NewServerCmd())
	return cmd
}
