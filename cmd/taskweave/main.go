// Command taskweave is an interactive multi-agent assistant. An orchestrator
// role answers directly or delegates to specialist roles (research, database
// analysis, knowledge base search) through the delegate_task tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "taskweave",
		Short:         "Multi-agent assistant with tool use and delegation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.taskweave/taskweave.json)")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newRolesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
