package clientmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"lightscontroller/internal/logger"
	"lightscontroller/internal/state"
)

// ChannelSetter receives decoded channel commands.
type ChannelSetter interface {
	SetChannelValues(values []state.ChannelValue) error
}

// ClientMQTT структура клиента MQTT.
type ClientMQTT struct {
	ctx       context.Context
	log       logger.Logger
	cfgClient MQTTConf
	client    mqtt.Client
	opts      *mqtt.ClientOptions
	setter    ChannelSetter
}

// NewClient конструктор.
func NewClient(log logger.Logger, cfgClient MQTTConf, setter ChannelSetter) *ClientMQTT {
	if cfgClient.Schema == "" {
		cfgClient.Schema = "tcp"
	}
	return &ClientMQTT{
		log:       log,
		cfgClient: cfgClient,
		setter:    setter,
	}
}

func (c *ClientMQTT) Start(ctx context.Context) error {
	if c.log.GetLevel() == "debug" {
		mqtt.ERROR = log.New(os.Stdout, "[ERROR] ", 0)
		mqtt.CRITICAL = log.New(os.Stdout, "[CRIT] ", 0)
		mqtt.WARN = log.New(os.Stdout, "[WARN]  ", 0)
	}

	c.ctx = ctx

	c.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", c.cfgClient.Schema, c.cfgClient.Host, c.cfgClient.Port)).
		SetUsername(c.cfgClient.User).
		SetPassword(c.cfgClient.Password).
		SetDefaultPublishHandler(c.messageHandler).
		SetOnConnectHandler(c.connectHandler).
		SetConnectionLostHandler(c.connectLostHandler).
		SetClientID(c.cfgClient.ClientID).
		SetOrderMatters(true).
		SetCleanSession(false).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	c.client = mqtt.NewClient(c.opts)

	token := c.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return token.Error()
		}
	case <-c.ctx.Done():
		return errors.New("context canceled")
	}

	c.log.Module("mqtt").Infof("Status: %v", c.client.IsConnected())
	return nil
}

func (c *ClientMQTT) Stop() error {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(500)
	}
	return nil
}

// connectHandler (re)subscribes on every connect, the session may be new.
func (c *ClientMQTT) connectHandler(client mqtt.Client) {
	c.log.Module("mqtt").Info("client connected to server")
	c.sub(client, c.topicFilter())
}

func (c *ClientMQTT) connectLostHandler(_ mqtt.Client, err error) {
	c.log.Module("mqtt").Errorf("server connect lost: %v", err)
}

func (c *ClientMQTT) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.log.Module("mqtt").Debugf("received message: %s from topic: %s", msg.Payload(), msg.Topic())
	if err := c.apply(msg.Topic(), msg.Payload()); err != nil {
		c.log.Module("mqtt").Errorf("message on %s dropped: %v", msg.Topic(), err)
	}
}

func (c *ClientMQTT) topicFilter() string {
	return strings.TrimSuffix(c.cfgClient.Prefix, "/") + "/+"
}

// apply decodes one message and hands it to the setter.
func (c *ClientMQTT) apply(topic string, payload []byte) error {
	universe, err := parseTopic(c.cfgClient.Prefix, topic)
	if err != nil {
		return err
	}
	values, err := decodePayload(universe, payload)
	if err != nil {
		return err
	}
	return c.setter.SetChannelValues(values)
}

func parseTopic(prefix, topic string) (uint8, error) {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	if !strings.HasPrefix(topic, prefix) {
		return 0, fmt.Errorf("topic %q outside %q", topic, prefix)
	}
	u, err := strconv.ParseUint(strings.TrimPrefix(topic, prefix), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("topic %q: bad universe: %w", topic, err)
	}
	return uint8(u), nil
}

func decodePayload(universe uint8, payload []byte) ([]state.ChannelValue, error) {
	var data Payload
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("message could not be parsed (%s): %w", payload, err)
	}
	values := make([]state.ChannelValue, len(data))
	for i, cmd := range data {
		values[i] = state.ChannelValue{Universe: universe, Channel: int(cmd.Channel), Value: cmd.Value}
	}
	return values, nil
}

func (c *ClientMQTT) sub(client mqtt.Client, topic string) {
	token := client.Subscribe(topic, c.cfgClient.Qos, nil)
	go func() {
		select {
		case <-c.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				c.log.Module("mqtt").Errorf("topic %s subscription error. %v", topic, token.Error())
				return
			}
		}
		c.log.Module("mqtt").Debugf("topic %s subscribed", topic)
	}()
}
