package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetForce bool

var behaviorCmd = &cobra.Command{
	Use:   "behavior",
	Short: "Manage tracked behavior data",
}

var behaviorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all tracked behavior",
	Long:  "Clear every behavior collection. Recipes and favorites are kept. Requires --force or interactive confirmation.",
	Args:  cobra.NoArgs,
	RunE:  runBehaviorReset,
}

func init() {
	behaviorResetCmd.Flags().BoolVar(&resetForce, "force", false,
		"Skip confirmation prompt")

	behaviorCmd.AddCommand(behaviorResetCmd)
}

func runBehaviorReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Interactive confirmation unless --force
	if !resetForce {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintln(errOut, "WARNING: This will erase all tracked cooking behavior.")
		fmt.Fprint(errOut, "Type 'reset' to confirm: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.TrimSpace(input) != "reset" {
			fmt.Fprintln(errOut, "Aborted.")
			return nil
		}
	}

	a, err := openLocalApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	a.svc.ResetBehaviorData(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), "Behavior data reset.")
	return nil
}
