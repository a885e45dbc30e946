package cmd

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/killallgit/oracle/pkg/config"
	"github.com/killallgit/oracle/pkg/relay"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local chat endpoint for development",
	Long: `Serves POST /api/chat with the same request shape the client sends.
Replies come from the echo generator, the OpenAI API or a LangChain backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := relay.NewServerFromConfig(config.Get().Relay)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cmd.Printf("Serving chat endpoint on %s\n", config.Get().Relay.Addr)
		return server.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "listen address")
	viper.BindPFlag("relay.addr", serveCmd.Flags().Lookup("addr"))

	serveCmd.Flags().StringP("generator", "g", "echo", "reply generator: echo, openai or langchain")
	viper.BindPFlag("relay.generator", serveCmd.Flags().Lookup("generator"))

	serveCmd.Flags().String("backend", "openai", "langchain backend: openai or ollama")
	viper.BindPFlag("relay.backend", serveCmd.Flags().Lookup("backend"))

	serveCmd.Flags().String("upstream-url", "", "base URL of the upstream model API")
	viper.BindPFlag("relay.upstream_url", serveCmd.Flags().Lookup("upstream-url"))

	serveCmd.Flags().Duration("echo-delay", 20*time.Millisecond, "pause between echo chunks")
	viper.BindPFlag("relay.echo_delay", serveCmd.Flags().Lookup("echo-delay"))
}
