package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sapreplay/internal/config"
	"sapreplay/internal/logging"
)

var logCloser io.Closer

func main() {
	loadDotEnv()

	root := &cobra.Command{
		Use:           "sapreplay",
		Short:         "Normalize and query auto-battler match replays",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadLog()
			if err != nil {
				return fmt.Errorf("loading log config: %w", err)
			}
			logCloser, err = logging.Init(cfg)
			return err
		},
	}
	root.Version = versionString(version, commit)
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(ingestCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(pidsCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())

	err := root.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadDotEnv loads the first .env file found; real environment variables
// take precedence.
func loadDotEnv() {
	for _, path := range []string{".env", "../.env"} {
		if err := godotenv.Load(path); err == nil {
			log.Debug().Str("path", path).Msg("loaded .env")
			return
		}
	}
}
