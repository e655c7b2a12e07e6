package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/blockwork-protocol/marketplace/src/utils/common"
	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	RootCmd = &cobra.Command{
		Use:   "marketplace",
		Short: "Freelance marketplace backend with escrow settlement",

		// All child commands will use this
		PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
			// Setup a context that gets cancelled upon SIGINT
			applicationCtx, applicationCtxCancel = context.WithCancel(context.Background())

			signalChannel = make(chan os.Signal, 1)
			signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
			go func() {
				select {
				case <-signalChannel:
					applicationCtxCancel()
				case <-applicationCtx.Done():
				}
			}()

			// Variables from the env file don't override the environment
			if envFile != "" {
				err = godotenv.Load(envFile)
				if err != nil {
					return
				}
			}

			// Load configuration
			conf, err = config.Load(cfgFile)
			if err != nil {
				return
			}
			applicationCtx = common.SetConfig(applicationCtx, conf)

			// Setup logging
			err = logger.Init(conf)
			if err != nil {
				return
			}
			return
		},

		// Run after all commands
		PersistentPostRunE: func(cmd *cobra.Command, args []string) (err error) {
			signal.Stop(signalChannel)
			applicationCtxCancel()
			logger.NewSublogger("root-cmd").Debug("Finished")
			return
		},
		SilenceErrors: true,
	}

	// Configuration
	conf    *config.Config
	cfgFile string
	envFile string

	// Context setup
	applicationCtx       context.Context
	applicationCtxCancel context.CancelFunc
	signalChannel        chan os.Signal
)

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "configuration file path")
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "file with MARKETPLACE_ environment variables")
}
