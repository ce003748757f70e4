package start

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/arcana-network/roastnode/config"
	"github.com/arcana-network/roastnode/node"
)

const (
	configFileFlag    = "config"
	listenAddressFlag = "listen-address"
	sessionTTLFlag    = "session-ttl"
	keepAliveFlag     = "keepalive"

	ConfMissingError = "required config value missing: %q"
)

var cfgFilePath string
var conf = config.GetDefaultConfig()

func GetCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "start",
		Short: "Command to start the node",
		RunE:  runCommand,
	}

	setFlags(cmd)

	return cmd
}

func setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&cfgFilePath,
		configFileFlag,
		"./config.json",
		"Used to specify JSON config file path",
	)

	d := config.GetDefaultConfig()
	cmd.Flags().StringVar(
		&conf.ListenAddress,
		listenAddressFlag,
		d.ListenAddress,
		"Used to specify the listen address of the node",
	)
	cmd.Flags().DurationVar(
		&conf.SessionTTL,
		sessionTTLFlag,
		d.SessionTTL,
		"Used to specify the baseline session expiry",
	)
	cmd.Flags().DurationVar(
		&conf.KeepAliveFreq,
		keepAliveFlag,
		time.Duration(0),
		"Used to enable keepalive events at the given interval",
	)
}

func runCommand(cmd *cobra.Command, _ []string) error {
	if doesFileExist(cfgFilePath) {
		c, err := config.ConfigFromFile(cfgFilePath)
		if err != nil {
			log.Infof("Config file parsing error")
			return err
		}
		applyFlagOverrides(cmd, c)
		conf = c
	}

	if err := conf.VerifyRequired(); err != nil {
		log.Infof("Config missing error")
		return fmt.Errorf(ConfMissingError, err.Error())
	}

	node.Start(conf)
	return nil
}

// applyFlagOverrides lets explicit flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed(listenAddressFlag) {
		c.ListenAddress = conf.ListenAddress
	}
	if cmd.Flags().Changed(sessionTTLFlag) {
		c.SessionTTL = conf.SessionTTL
	}
	if cmd.Flags().Changed(keepAliveFlag) {
		c.KeepAliveFreq = conf.KeepAliveFreq
	}
}

func doesFileExist(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
