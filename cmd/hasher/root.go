package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hasher/internal/config"
	"hasher/internal/hash"
	"hasher/internal/progress"
	"hasher/internal/report"
)

// runID tags every log line of one invocation.
var runID = uuid.NewString()

// rootCommand owns the log file opened for one execution.
type rootCommand struct {
	*cobra.Command
	logFile *os.File
}

// Execute runs the command tree, logs a failure and closes the log file
// whether or not the command succeeded.
func (r *rootCommand) Execute() error {
	defer r.closeLog()
	err := r.Command.Execute()
	if err != nil && !errors.Is(err, errDifferences) {
		log.WithField("run", runID).Error(err)
	}
	return err
}

func (r *rootCommand) closeLog() {
	if r.logFile == nil {
		return
	}
	log.SetOutput(os.Stderr)
	r.logFile.Close()
}

func newRootCmd() *rootCommand {
	v := viper.New()
	var cfgFile string
	r := &rootCommand{}

	rootCmd := &cobra.Command{
		Use:   "hasher [PATH]",
		Short: "Compute and verify checksums of a directory tree",
		Long: `hasher walks a directory tree and prints a checksum for every file, in the
GNU coreutils format, as JSON or XML, as a directory listing or as a size
tree.
With --verify it compares the tree against a previously saved manifest.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			var err error
			r.logFile, err = initLogging(v, cmd.ErrOrStderr())
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := optionsFrom(v, args)
			a := &app{
				fs:          afero.NewOsFs(),
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
				interactive: cmd.ErrOrStderr() == os.Stderr && progress.IsTerminal(os.Stderr),
				log:         log.WithField("run", runID),
			}
			return a.run(opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hasher.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (panic, fatal, error, warn, info, debug, trace)")

	flags := rootCmd.Flags()
	flags.StringP("algorithm", "a", "md5", "digest algorithm, see 'hasher algorithms'")
	flags.StringP("format", "f", "gnu", "report format, see 'hasher formats'")
	flags.BoolP("link", "l", false, "follow symbolic links")
	flags.StringP("output", "o", "", "write the report to a file instead of stdout")
	flags.StringP("verify", "c", "", "compare the tree against a saved manifest")
	flags.String("manifest-format", "auto", "manifest format for --verify (auto, gnu, json, xml)")
	flags.StringSliceP("exclude", "x", nil, "glob patterns of entries to skip")
	flags.Bool("progress", false, "show a progress line on stderr")
	flags.Bool("root-digest", false, "print a Merkle root over all checksums")

	cobra.CheckErr(bindFlags(v, rootCmd.PersistentFlags()))
	cobra.CheckErr(bindFlags(v, flags))

	rootCmd.AddCommand(newAlgorithmsCmd(), newFormatsCmd())
	r.Command = rootCmd
	return r
}

// bindFlags makes every flag of fs a viper key of the same name.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = v.BindPFlag(f.Name, f)
		}
	})
	return err
}

// initConfig layers the config file under environment variables and flags.
func initConfig(v *viper.Viper, fromFlag string) error {
	path := fromFlag
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}

	v.SetDefault("algorithm", cfg.Algorithm)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("link", cfg.FollowLinks)
	v.SetDefault("progress", cfg.Progress)
	v.SetDefault("exclude", cfg.Exclude)
	v.SetDefault("log-level", cfg.Log.Level)
	v.SetDefault("log-path", cfg.Log.Path)

	v.SetEnvPrefix("hasher")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return nil
}

// initLogging sets up logrus from the resolved settings. It returns the log
// file when one is configured.
func initLogging(v *viper.Viper, stderr io.Writer) (*os.File, error) {
	formatter := new(log.TextFormatter)
	formatter.DisableTimestamp = true
	log.SetFormatter(formatter)

	level, err := log.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	logPath := v.GetString("log-path")
	if logPath == "" {
		log.SetOutput(stderr)
		return nil, nil
	}

	logFile, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(logFile)
	log.WithField("run", runID).Debug("Starting hasher...")
	return logFile, nil
}

func optionsFrom(v *viper.Viper, args []string) options {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	return options{
		root:           root,
		algorithm:      v.GetString("algorithm"),
		format:         v.GetString("format"),
		followLinks:    v.GetBool("link"),
		output:         v.GetString("output"),
		verify:         v.GetString("verify"),
		manifestFormat: v.GetString("manifest-format"),
		exclude:        v.GetStringSlice("exclude"),
		progress:       v.GetBool("progress"),
		rootDigest:     v.GetBool("root-digest"),
	}
}

func newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the supported digest algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printNames(cmd.OutOrStdout(), hash.DefaultCatalog().Names())
		},
	}
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported report formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printNames(cmd.OutOrStdout(), report.DefaultFormats().Names())
		},
	}
}

func printNames(w io.Writer, names []string) error {
	_, err := fmt.Fprintln(w, strings.Join(names, "\n"))
	return err
}
