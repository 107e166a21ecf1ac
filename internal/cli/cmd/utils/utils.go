package utils

import (
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/tidwall/pretty"

	"github.com/matjam/wlcore/internal/config"
	"github.com/matjam/wlcore/internal/ipc"
)

func PrintJSONColored(data interface{}) {
	j, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		log.Errorf("Error marshalling JSON: %v", err)
		return
	}

	jPretty := pretty.Color(j, nil)
	log.Info(string(jPretty))
}

// LoadConfig resolves the configuration or exits.
func LoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

// Client connects to the instance named by the configuration.
func Client() *ipc.Client {
	return ipc.NewClient(LoadConfig().SocketPath())
}
