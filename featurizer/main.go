package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"

	"github.com/patricioibar/yoochoose-featurizer/featurizer/common"
	mw "github.com/patricioibar/yoochoose-featurizer/middleware"
)

var log = logging.MustGetLogger("log")

// InitLogger Receives the log level to be set in go-logging as a string. This method
// parses the string and set the level to the logger. If the level string is not
// valid an error is returned
func InitLogger(logLevel string) error {
	baseBackend := logging.NewLogBackend(os.Stdout, "", 0)
	format := logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05} %{level:.5s}     %{message}`,
	)
	backendFormatter := logging.NewBackendFormatter(baseBackend, format)

	backendLeveled := logging.AddModuleLevel(backendFormatter)
	logLevelCode, err := logging.LogLevel(logLevel)
	if err != nil {
		return err
	}
	backendLeveled.SetLevel(logLevelCode, "")

	logging.SetBackend(backendLeveled)
	return nil
}

func main() {
	configPath := flag.String("config", common.DefaultConfigFilePath, "path to the JSON config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load .env: %s", err)
	}

	config, err := common.InitConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %s", err)
	}

	if err := InitLogger(config.LogLevel); err != nil {
		log.Fatalf("%s", err)
	}

	log.Debugf("Config: %+v", config)

	if err := run(config); err != nil {
		log.Criticalf("Featurizer failed: %v", err)
		os.Exit(1)
	}
}

func run(config *common.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	settings, err := config.Settings()
	if err != nil {
		return err
	}
	pipeline := common.NewPipeline(settings)
	log.Infof("Starting run %s: %s %s", pipeline.RunID(), settings.Format, settings.Mode)

	inputs, closeInputs, err := common.OpenInputs(ctx, config)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeInputs(); err != nil {
			log.Warningf("Failed to close inputs: %v", err)
		}
	}()

	out, err := common.OpenSink(config, pipeline.RunID())
	if err != nil {
		return err
	}
	defer mw.CloseAll()

	if err := pipeline.Run(ctx, inputs, out); err != nil {
		return err
	}
	log.Infof("Run %s finished", pipeline.RunID())
	return nil
}
