package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lightscontroller/internal/clientmqtt"
	"lightscontroller/internal/config"
	"lightscontroller/internal/controller"
	"lightscontroller/internal/logger"
	"lightscontroller/internal/output"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "configs/conf.toml", "Path to configuration file")
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v\n", err)
		os.Exit(1)
	}

	mode, err := output.ParseMode(cfg.Output.Mode)
	if err != nil {
		log.Module("config").Fatal(err)
	}
	onQuit, err := output.ParseOnQuit(cfg.Output.OnQuit)
	if err != nil {
		log.Module("config").Fatal(err)
	}
	universes, err := cfg.Output.UniverseIDs()
	if err != nil {
		log.Module("config").Fatal(err)
	}

	ctl := controller.New(log, controller.NewFactory(log, ConvertConfigFactory(cfg)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	period := time.Duration(cfg.Output.PeriodMs) * time.Millisecond
	if err := ctl.Run(mode, universes, period); err != nil {
		log.Module("controller").Errorf("failed to start %s output: %v", mode, err)
		os.Exit(1)
	}

	var client *clientmqtt.ClientMQTT
	if cfg.MQTT.Enabled {
		client = clientmqtt.NewClient(log, ConvertConfigClientMQTT(cfg.MQTT), ctl)
		if err := client.Start(ctx); err != nil {
			log.Module("mqtt").Error("failed to start MQTT service: ", err.Error())
			cancel()
		}
	}

	<-ctx.Done()

	if client != nil {
		if err := client.Stop(); err != nil {
			log.Module("mqtt").Error("failed to stop MQTT service: ", err.Error())
		}
	}

	if err := ctl.Quit(onQuit); err != nil {
		log.Module("controller").Error("failed to stop output: ", err.Error())
	}

	log.Info("shutdown complete")
}

// ConvertConfigClientMQTT преобразует структуры.
func ConvertConfigClientMQTT(cfg config.MQTTConf) clientmqtt.MQTTConf {
	return clientmqtt.MQTTConf{
		ClientID: cfg.ClientID,
		Schema:   "tcp",
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Prefix:   cfg.Prefix,
		Qos:      cfg.Qos,
	}
}

// ConvertConfigFactory преобразует структуры.
func ConvertConfigFactory(cfg *config.Config) controller.FactoryConf {
	return controller.FactoryConf{
		SerialDevice:    cfg.Serial.Device,
		ReadyTimeout:    time.Duration(cfg.Serial.ReadyTimeoutMs) * time.Millisecond,
		ArtNetTransport: cfg.ArtNet.Transport,
		ArtNetNetwork:   cfg.ArtNet.Network,
		ArtNetTarget:    cfg.ArtNet.Target,
		ArtNetPort:      cfg.ArtNet.Port,
		ArtNetMaxFPS:    cfg.ArtNet.MaxFPS,
		OLAAddress:      cfg.OLA.Address,
	}
}
