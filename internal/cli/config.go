package cli

import (
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/matjam/wlcore/internal/config"
	"github.com/matjam/wlcore/internal/logging"
)

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wlcore")
		viper.SetConfigType("toml")
		viper.AddConfigPath("$HOME/.config/wlcore")
		viper.AddConfigPath("/etc/xdg/wlcore")
	}

	config.SetDefaults()

	viper.SetEnvPrefix("wlcore")
	viper.AutomaticEnv() // read environment variables that match

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case errors.As(err, &notFound):
		log.Debug("no config file found, using defaults")
	case err != nil:
		log.Fatalf("Error reading config: %v", err)
	}

	logging.Setup(viper.GetBool("debug"))
}
