package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/gonda/pkg/commands"
	"github.com/arthur-debert/gonda/pkg/link"
	"github.com/arthur-debert/gonda/pkg/lockfile"
	"github.com/arthur-debert/gonda/pkg/plan"
)

func newSolveCmd(flags *globalFlags) *cobra.Command {
	var lockPath string

	cmd := &cobra.Command{
		Use:   "solve SPEC...",
		Short: "Resolve package specs without touching any prefix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv, err := buildEnv(flags, false)
			if err != nil {
				return err
			}
			defer closeEnv()

			solution, err := commands.Solve(cmd.Context(), env, args)
			if err != nil {
				return err
			}

			for _, rec := range solution.Records() {
				fmt.Printf("%-24s %-12s %s\n", rec.Name, rec.Version.String(), rec.Build)
			}

			if lockPath != "" {
				if err := lockfile.Write(env.FS, lockPath, solution); err != nil {
					return err
				}
				fmt.Printf("\nwrote %s (%d packages)\n", lockPath, solution.Len())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lockPath, "lock", "", "Write the solution to this lock file")
	return cmd
}

func newPlanCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan SPEC...",
		Short: "Show the transaction that would bring the prefix to the specs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv, err := buildEnv(flags, true)
			if err != nil {
				return err
			}
			defer closeEnv()

			txn, err := commands.PlanTransaction(cmd.Context(), env, args)
			if err != nil {
				return err
			}
			fmt.Println(plan.Summary(txn))
			return nil
		},
	}
}

func newInstallCmd(flags *globalFlags) *cobra.Command {
	var fromLock string

	cmd := &cobra.Command{
		Use:   "install [SPEC...]",
		Short: "Solve and apply specs (or a lock file) to the prefix",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv, err := buildEnv(flags, true)
			if err != nil {
				return err
			}
			defer closeEnv()

			if *flags.dryRun {
				if fromLock != "" {
					return fmt.Errorf("--dry-run with --from-lock is not supported; use plan")
				}
				txn, err := commands.PlanTransaction(cmd.Context(), env, args)
				if err != nil {
					return err
				}
				fmt.Println(plan.Summary(txn))
				return nil
			}

			var result *link.Result
			if fromLock != "" {
				result, err = commands.InstallLocked(cmd.Context(), env, fromLock)
			} else {
				result, err = commands.Install(cmd.Context(), env, args)
			}
			if err != nil {
				return err
			}

			fmt.Printf("transaction %s: %d installed, %d changed, %d removed\n",
				result.TransactionID, len(result.Installed), len(result.Changed), len(result.Removed))
			for _, conflict := range result.Conflicts {
				fmt.Printf("  clobbered: %s (kept %s)\n", conflict.Path, conflict.Winner)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fromLock, "from-lock", "", "Install from a lock file instead of solving")
	return cmd
}

func newRemoveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME...",
		Short: "Remove installed packages from the prefix",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv, err := buildEnv(flags, true)
			if err != nil {
				return err
			}
			defer closeEnv()

			if *flags.dryRun {
				for _, name := range args {
					fmt.Printf("would remove %s\n", name)
				}
				return nil
			}

			result, err := commands.Remove(cmd.Context(), env, args)
			if err != nil {
				return err
			}
			fmt.Printf("transaction %s: %d removed\n", result.TransactionID, len(result.Removed))
			return nil
		},
	}
}

func newListCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List packages installed in the prefix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, closeEnv, err := buildEnv(flags, true)
			if err != nil {
				return err
			}
			defer closeEnv()

			installed, err := commands.List(env)
			if err != nil {
				return err
			}
			for _, rec := range installed {
				size := ""
				if rec.Size > 0 {
					size = humanize.Bytes(uint64(rec.Size))
				}
				fmt.Printf("%-24s %-12s %-16s %s\n", rec.Name, rec.Version.String(), rec.Build, size)
			}
			return nil
		},
	}
}
