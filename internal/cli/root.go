package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/lu-zhengda/mailboard/internal/app"
	"github.com/lu-zhengda/mailboard/internal/config"
	"github.com/lu-zhengda/mailboard/internal/provider"
	"github.com/lu-zhengda/mailboard/internal/tui"
)

var (
	// version is set via ldflags at build time.
	version = "dev"
	cfgFile string

	// jsonFlag enables JSON output for all commands.
	jsonFlag bool

	// traceFlag dumps every API request and response to stderr.
	traceFlag bool

	// verboseFlag sends the component log to stderr.
	verboseFlag bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mailboard",
		Short:         "Terminal email dashboard",
		Long:          "A terminal email dashboard backed by the email list API, with offline sample data when the API is down.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() {
				// The dashboard owns the terminal; log to a file instead.
				return setupFileLogging()
			}
			setupLogging(os.Stderr)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if shell, _ := cmd.Flags().GetString("generate-completion"); shell != "" {
				switch shell {
				case "bash":
					return cmd.Root().GenBashCompletion(os.Stdout)
				case "zsh":
					return cmd.Root().GenZshCompletion(os.Stdout)
				case "fish":
					return cmd.Root().GenFishCompletion(os.Stdout, true)
				default:
					return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", shell)
				}
			}

			ctx := cmd.Context()
			e, err := newEnv(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			opts := tui.Options{
				Debounce: e.cfg.Search.DebounceDuration(),
				PageSize: e.cfg.List.PageSize,
			}
			for {
				if e.session.State() != app.StateAuthenticated {
					if _, err := interactiveLogin(ctx, e, "", ""); err != nil {
						return err
					}
				}

				err := tui.Run(e.emails, e.session, opts)
				if !errors.Is(err, provider.ErrAuthExpired) {
					return err
				}
				e.emails.Refresh()
				printWarning("session expired; please sign in again")
			}
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("mailboard %s\n", version))
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().String("generate-completion", "", "Generate shell completion (bash, zsh, fish)")
	root.Flags().MarkHidden("generate-completion")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&jsonFlag, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&traceFlag, "trace", false, "dump API requests and responses to stderr")
	root.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log to stderr")
	root.AddCommand(newLoginCmd())
	root.AddCommand(newLogoutCmd())
	root.AddCommand(newWhoamiCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newCountsCmd())
	root.AddCommand(newMarkReadCmd())
	root.AddCommand(newStarCmd())
	root.AddCommand(newImportantCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if errors.Is(err, provider.ErrAuthExpired) {
			printError("session expired; please sign in again (mailboard login)")
		} else {
			printError(err.Error())
		}
		os.Exit(1)
	}
}

// setupLogging points the standard logger at w when --verbose is set and
// silences it otherwise.
func setupLogging(w io.Writer) {
	log.SetFlags(log.LstdFlags)
	if verboseFlag {
		log.SetOutput(w)
		return
	}
	log.SetOutput(io.Discard)
}

// setupFileLogging appends the log to mailboard.log in the data directory.
func setupFileLogging() error {
	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "mailboard.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetFlags(log.LstdFlags)
	log.SetOutput(f)
	return nil
}
