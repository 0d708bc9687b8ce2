package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vrischmann/envconfig"
	yaml "gopkg.in/yaml.v3"

	"github.com/darwinzer0/datahub-learn/celo"
	"github.com/darwinzer0/datahub-learn/keys"
	"github.com/darwinzer0/datahub-learn/service"
	"github.com/darwinzer0/datahub-learn/token"
)

const envPrefix = "CELO_TX"

var (
	configFilePath string
	configFilePtr  = flag.String("config", "config.yml", "path to config file")
)

// RUN WITH PLAINTEXT CONFIG [RECOMMENDED FOR TESTING ONLY]
// $ go run main.go --config ./config.yml
// $ go run main.go --config {path_to_config_file}
//
// OR RUN WITH ENVIRONMENT VARIABLES
//
// $ go build
// $ export CELO_TX_URLS=<node_url>
// $ export CELO_TX_PRIVATEKEY=<hex_private_key>
// $ ./celo-tx
//
//

func init() {
	// Parse flag containing path to config file
	flag.Parse()
	if configFilePtr != nil {
		configFilePath = *configFilePtr
	}
}

// parseYAMLConfig parse configuration file or environment variables, receiver must be a pointer
func parseYAMLConfig(configFile string, receiver any, prefix string) error {
	b, err := os.ReadFile(filepath.Clean(configFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if b != nil {
		if err := yaml.Unmarshal(b, receiver); err != nil {
			return err
		}
	}
	// environment variables supersede config yaml files
	if err := envconfig.InitWithOptions(receiver, envconfig.Options{Prefix: prefix, AllOptional: true}); err != nil {
		return err
	}
	return nil
}

func main() {

	var cfg service.Config

	if err := parseYAMLConfig(configFilePath, &cfg, envPrefix); err != nil {
		panic(fmt.Sprintf("error parsing config: %v", err))
	}

	cfg.Sanitize()

	l, err := service.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}

	multiClient, err := celo.NewMultiNodeClient(cfg.URLs, celo.Dial)
	if err != nil {
		panic(err)
	}

	// The signing identity is optional, without it the service serves
	// read-only endpoints and rejects deploy/transfer requests.
	var identity *keys.Identity
	if cfg.PrivateKey != "" {
		identity, err = keys.FromHex(cfg.PrivateKey)
		if err != nil {
			panic(fmt.Sprintf("error loading signing identity: %v", err))
		}
		l.Infof("loaded signing identity %v", identity.Address.Hex())
	} else {
		l.Warn("no private key configured, transaction submission is disabled")
	}

	submitter := celo.NewSubmitter(multiClient, identity, l,
		celo.WithPollInterval(time.Duration(cfg.TxPollSeconds)*time.Second),
		celo.WithWaitTimeout(time.Duration(cfg.TxWaitSeconds)*time.Second),
	)

	var tok *token.Token
	if cfg.TokenAddress != "" {
		if !common.IsHexAddress(cfg.TokenAddress) {
			panic(fmt.Sprintf("invalid token address: %v", cfg.TokenAddress))
		}
		tok, err = token.Bind(common.HexToAddress(cfg.TokenAddress), submitter)
		if err != nil {
			panic(err)
		}
		l.Infof("bound GoldToken at %v", tok.Address().Hex())
	}

	srv := service.New(cfg.Port, l, multiClient, submitter, tok)

	srv.Start()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	sig := <-sigChan
	srv.Stop(sig)
}
