package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/killallgit/oracle/pkg/config"
	"github.com/killallgit/oracle/pkg/controllers"
	"github.com/killallgit/oracle/pkg/headless"
	"github.com/killallgit/oracle/pkg/logger"
	"github.com/killallgit/oracle/pkg/tui"
	"github.com/killallgit/oracle/pkg/tui/chat"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile              string
	developerMessageFile string
)

var rootCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Oracle of Satoshi",
	Long:  `Terminal chat client for the Bitcoin question-answering endpoint.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		return logger.Init(settings.Logging)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		conversation, err := controllers.InitializeConversationController(&controllers.InitConfig{
			Config:               config.Get(),
			DeveloperMessagePath: developerMessageFile,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize conversation: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		prompt := viper.GetString("prompt")
		switch {
		case prompt != "":
			if err := headless.RunOnce(ctx, conversation, prompt, cmd.OutOrStdout()); err != nil {
				return reportedError{err}
			}
			return nil
		case viper.GetBool("plain") || !interactive():
			err := headless.Run(ctx, conversation, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				// interrupted; failed requests were already reported per line
				return nil
			}
			return err
		default:
			settings := config.Get()
			return tui.StartApp(ctx, conversation, chat.Options{
				Title:    settings.Chat.Title,
				Markdown: settings.Chat.Markdown && !viper.GetBool("no-markdown"),
				Model:    conversation.Model(),
			})
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// reportedError wraps a failure line mode has already printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// reportError prints err unless it was already shown to the user.
func reportError(w io.Writer, err error) {
	var reported reportedError
	if errors.As(err, &reported) {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// interactive reports whether both stdin and stdout are terminals.
func interactive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func init() {
	config.SetDefaults()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .oracle/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().Bool("logging.persist", false, "persist system logs across sessions")
	viper.BindPFlag("logging.persist", rootCmd.PersistentFlags().Lookup("logging.persist"))

	rootCmd.Flags().StringP("prompt", "p", "", "send a single prompt and print the reply without entering the TUI")
	viper.BindPFlag("prompt", rootCmd.Flags().Lookup("prompt"))

	rootCmd.Flags().Bool("plain", false, "read prompts line by line from stdin instead of starting the TUI")
	viper.BindPFlag("plain", rootCmd.Flags().Lookup("plain"))

	rootCmd.Flags().String("endpoint", "", "chat endpoint URL (default is /api/chat on endpoint.base_url)")
	viper.BindPFlag("endpoint.url", rootCmd.Flags().Lookup("endpoint"))

	rootCmd.Flags().StringP("model", "m", "", "model name sent with each request")
	viper.BindPFlag("chat.model", rootCmd.Flags().Lookup("model"))

	rootCmd.Flags().BoolP("no-markdown", "M", false, "show assistant replies as plain text")
	viper.BindPFlag("no-markdown", rootCmd.Flags().Lookup("no-markdown"))

	rootCmd.Flags().StringVar(&developerMessageFile, "developer-message-file", "", "read the developer message from a file")

	rootCmd.AddCommand(serveCmd)
}
