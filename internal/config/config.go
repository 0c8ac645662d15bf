package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config структура конфигурации.
type Config struct {
	Logger LogConf    // Logger - конфигурация регистратора.
	Output OutputConf // Output - режим вывода и список вселенных.
	Serial SerialConf // Serial - адаптер DMX-USB-Pro.
	ArtNet ArtNetConf // ArtNet - сетевой вывод.
	OLA    OLAConf    // OLA - вывод через демон OLA.
	MQTT   MQTTConf   // MQTT - конфигурация MQTT клиента.
}

// LogConf структура конфигурации.
type LogConf struct {
	Level string `toml:"log-level"` // Level - уровень логирования.
}

// OutputConf selects how channel data leaves the process.
type OutputConf struct {
	Mode      string `toml:"mode"`      // Mode - dmx, artnet или ola.
	Universes []int  `toml:"universes"` // Universes - вселенные для передачи.
	PeriodMs  int    `toml:"period-ms"` // PeriodMs - период обновления, мс.
	OnQuit    string `toml:"on-quit"`   // OnQuit - freeze или turnoff.
}

// UniverseIDs returns the configured universes as 8-bit ids.
func (o OutputConf) UniverseIDs() ([]uint8, error) {
	ids := make([]uint8, 0, len(o.Universes))
	for _, u := range o.Universes {
		if u < 0 || u > 255 {
			return nil, fmt.Errorf("universe %d out of range [0,255]", u)
		}
		ids = append(ids, uint8(u))
	}
	return ids, nil
}

// SerialConf структура конфигурации.
type SerialConf struct {
	Device         string `toml:"device"`           // Device - путь к порту, пусто - последний найденный.
	ReadyTimeoutMs int    `toml:"ready-timeout-ms"` // ReadyTimeoutMs - ожидание инициализации адаптера.
}

// ArtNetConf структура конфигурации.
type ArtNetConf struct {
	Transport string `toml:"transport"` // Transport - broadcast или nodes.
	Network   string `toml:"network"`   // Network - CIDR сети art-net, пусто - по имени хоста.
	Target    string `toml:"target"`    // Target - адрес назначения для broadcast.
	Port      int    `toml:"port"`      // Port - UDP порт art-net.
	MaxFPS    int    `toml:"max-fps"`   // MaxFPS - ограничение контроллера в режиме nodes.
}

// OLAConf структура конфигурации.
type OLAConf struct {
	Address string `toml:"address"` // Address - адрес RPC демона OLA.
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	Enabled  bool   `toml:"enabled"`  // Enabled - включить приём команд по MQTT.
	ClientID string `toml:"clientID"` // ClientID - имя клиента.
	Host     string `toml:"server"`   // Host - адрес MQTT сервера.
	Port     string `toml:"port"`     // Port - порт MQTT сервера.
	User     string `toml:"user"`     // User - логин для подключения к MQTT серверу.
	Password string `toml:"password"` // Password - пароль для подключения к MQTT серверу.
	Prefix   string `toml:"prefix"`   // Prefix - префикс топиков вселенных.
	Qos      byte   `toml:"qos"`      // Qos - качество обслуживания.
}

// NewConfig конструктор.
func NewConfig(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

// Decode reads configuration from a TOML document on top of the defaults.
func Decode(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

// Default returns the default values.
func Default() Config {
	return Config{
		Logger: LogConf{Level: "info"},
		Output: OutputConf{
			Mode:     "artnet",
			PeriodMs: 200,
			OnQuit:   "turnoff",
		},
		Serial: SerialConf{ReadyTimeoutMs: 1000},
		ArtNet: ArtNetConf{
			Transport: "broadcast",
			Target:    "255.255.255.255",
			Port:      6454,
			MaxFPS:    40,
		},
		OLA: OLAConf{Address: "localhost:9010"},
		MQTT: MQTTConf{
			ClientID: "lightscontroller",
			Port:     "1883",
			Prefix:   "dmx",
		},
	}
}
