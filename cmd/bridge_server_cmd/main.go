package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/LUCAS95222/HashedV2/cmd"
	"github.com/LUCAS95222/HashedV2/logconfig"
)

const (
	ENV_CONFIG_FILE_PATH = "BRIDGE_CONFIG"
)

func main() {
	// Tool to read environment variables
	viper.AutomaticEnv()

	// Set overall log level
	switch viper.GetString("LOG_LEVEL") {
	case "debug":
		logconfig.ConfigDebugLogger()
	case "info":
		logconfig.ConfigInfoLogger()
	default:
		logconfig.ConfigProductionLogger()
	}

	// Accessing an environment variable of configuration file location.
	_config_file := viper.GetString(ENV_CONFIG_FILE_PATH)
	fmt.Printf("Bridge server configuration file = %s\n", _config_file)

	// See if file exists
	if !cmd.FileExists(_config_file) {
		fmt.Printf("Bridge server configuration file not found: %s\n", _config_file)
		return
	}

	// Read from config file.
	success := initializeViper(_config_file)
	if !success {
		return
	}

	// Make the configuration
	bsc := PrepareBridgeServerConfig()
	if bsc == nil {
		fmt.Printf("Error loading bridge server configuration\n")
		return
	}

	fmt.Println("Starting bridge server... press Ctrl+C to kill the server")
	// Start server and block.
	cmd.StartBridgeServerAndWait(bsc)
}

func initializeViper(filePath string) bool {
	viper.SetConfigFile(filePath)
	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading configuration file, %s", err)
		return false
	}
	return true
}

// PrepareBridgeServerConfig reads configuration variables and returns a BridgeServerConfig.
func PrepareBridgeServerConfig() *cmd.BridgeServerConfig {
	return &cmd.BridgeServerConfig{
		// burner side
		BurnerDbFilePath: viper.GetString("BURNER_DB_FILE_PATH"),
		BurnContract:     viper.GetString("BURN_CONTRACT_ADDR"),
		// minter side
		MinterDbFilePath: viper.GetString("MINTER_DB_FILE_PATH"),
		// relayer side
		OperatorAddr:  viper.GetString("OPERATOR_ADDR"),
		RelayInterval: viper.GetString("RELAY_INTERVAL_SECS"),
		RelayBatch:    viper.GetString("RELAY_BATCH"),
		// nft metadata source
		NftInfoUrl: viper.GetString("NFT_INFO_URL"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
	}
}
