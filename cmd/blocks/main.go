// Package main is the entry point for the blocks status line.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/LISSConsulting/LISSTech.Blocks/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// settings are the process options, from flags or BLOCKS_* variables.
type settings struct {
	Config    string
	Output    string
	Verbose   int
	Color     bool
	DumpDelay time.Duration
}

func loadSettings(v *viper.Viper) settings {
	return settings{
		Config:    v.GetString("config"),
		Output:    v.GetString("output"),
		Verbose:   v.GetInt("verbose"),
		Color:     v.GetBool("color"),
		DumpDelay: v.GetDuration("dump-delay"),
	}
}

func rootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "blocks",
		Short:         "Status line for i3bar and compatible bars",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return runBar(ctx, loadSettings(v), os.Stdin, os.Stdout, os.Stderr, os.Exit)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "configuration file (default: search the standard locations)")
	root.Flags().StringP("output", "o", "i3bar", "output format: i3bar or term")
	root.Flags().CountP("verbose", "v", "log more; repeat for more detail")
	root.Flags().Bool("color", false, "colour term output with the block colors")
	root.Flags().Duration("dump-delay", 0, "coalesce redraws within this delay")

	_ = v.BindPFlags(root.PersistentFlags())
	_ = v.BindPFlags(root.Flags())
	v.SetEnvPrefix("BLOCKS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(checkCmd(v), initCmd())
	return root
}

func checkCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and validate the configuration, then list its blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v.GetString("config"))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatBlockList(cfg))
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			return nil
		},
	}
}

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				var err error
				if dir, err = config.DefaultDir(); err != nil {
					return err
				}
			}
			created, err := config.Scaffold(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(created) == 0 {
				fmt.Fprintf(out, "Nothing to do, %s is already set up\n", dir)
				return nil
			}
			for _, p := range created {
				fmt.Fprintf(out, "Created %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().String("dir", "", "directory to create (default: ~/.config/blocks)")
	return cmd
}

// formatBlockList renders the blocks of cfg for `blocks check`.
func formatBlockList(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", cfg.Path)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("─", len([]rune(cfg.Path))))
	if len(cfg.Blocks) == 0 {
		b.WriteString("  no blocks\n")
		return b.String()
	}
	for i, set := range cfg.Blocks {
		name, _ := set.Get("name")
		if instance, ok := set.Get("instance"); ok {
			name += ":" + instance
		}
		if name == "" {
			name = "(anonymous)"
		}
		interval, _ := set.Get("interval")
		if interval == "" {
			interval = "-"
		}
		kind := "static"
		if _, ok := set.Get("command"); ok {
			kind = "command"
		}
		fmt.Fprintf(&b, "  %2d  %-24s  %-8s  interval %s", i+1, name, kind, interval)
		if sig, ok := set.Get("signal"); ok {
			fmt.Fprintf(&b, "  signal %s", sig)
		}
		b.WriteString("\n")
	}
	return b.String()
}
