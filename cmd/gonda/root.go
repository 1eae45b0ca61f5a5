package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/gonda/internal/version"
	"github.com/arthur-debert/gonda/pkg/commands"
	"github.com/arthur-debert/gonda/pkg/config"
	"github.com/arthur-debert/gonda/pkg/filesystem"
	"github.com/arthur-debert/gonda/pkg/logging"
	"github.com/arthur-debert/gonda/pkg/repocache"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	var (
		verbosity int
		dryRun    bool
		prefixDir string
		repodata  []string
	)

	rootCmd := &cobra.Command{
		Use:   "gonda",
		Short: "A conda-compatible package management engine",
		Long: `gonda resolves package specs against cached channel repodata and
materializes the solution into a filesystem prefix: hardlinks where the
filesystem allows it, copies where it does not, with safe clobber handling.`,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Preview changes without executing them")
	rootCmd.PersistentFlags().StringVarP(&prefixDir, "prefix", "p", "", "Target environment prefix (required for prefix commands)")
	rootCmd.PersistentFlags().StringSliceVar(&repodata, "repodata", nil, "Repodata JSON snapshot(s) to ingest into the record cache")

	flags := &globalFlags{
		dryRun:   &dryRun,
		prefix:   &prefixDir,
		repodata: &repodata,
	}

	rootCmd.AddCommand(newSolveCmd(flags))
	rootCmd.AddCommand(newPlanCmd(flags))
	rootCmd.AddCommand(newInstallCmd(flags))
	rootCmd.AddCommand(newRemoveCmd(flags))
	rootCmd.AddCommand(newListCmd(flags))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

type globalFlags struct {
	dryRun   *bool
	prefix   *string
	repodata *[]string
}

// buildEnv assembles the command environment: config, real filesystem, and
// the sqlite record cache with any requested repodata snapshots ingested.
// The returned closer releases the cache DB.
func buildEnv(flags *globalFlags, needPrefix bool) (*commands.Env, func(), error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, nil, err
	}

	if needPrefix && *flags.prefix == "" {
		return nil, nil, fmt.Errorf("--prefix is required for this command")
	}

	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	cache, err := repocache.Open(cfg.Cache.RecordDBPath())
	if err != nil {
		return nil, nil, err
	}

	channel := "defaults"
	if len(cfg.Channels) > 0 {
		channel = cfg.Channels[0]
	}
	for _, path := range *flags.repodata {
		data, err := os.ReadFile(path)
		if err != nil {
			_ = cache.Close()
			return nil, nil, err
		}
		if err := cache.LoadRepodata(channel, data); err != nil {
			_ = cache.Close()
			return nil, nil, err
		}
	}

	env := &commands.Env{
		Config: cfg,
		FS:     filesystem.NewOS(),
		Source: cache,
		Prefix: *flags.prefix,
	}
	return env, func() { _ = cache.Close() }, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gonda version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}
