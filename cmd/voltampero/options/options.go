package options

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"voltampero/cmd/voltampero/config"
	"voltampero/pkg/device"
	"voltampero/pkg/gateway"
	"voltampero/pkg/generic"
	baseoptions "voltampero/pkg/generic/options"
	"voltampero/pkg/storage"
)

type Options struct {
	Port      string        `json:"port"`
	Wait      time.Duration `json:"graceful-timeout"`
	BrokerUrl string        `json:"broker-url"`
	Simulate  bool          `json:"simulate"`
	baseoptions.BaseOptions
}

const (
	_defaultPort = "32200"
	_defaultWait = 15 * time.Second
)

func NewDefaultOptions() *Options {
	return &Options{
		Port:        _defaultPort,
		Wait:        _defaultWait,
		BaseOptions: baseoptions.NewDefaultBaseOptions(),
	}
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	// refer to node port assignment https://rancher.com/docs/rancher/v2.x/en/installation/requirements/ports/#commonly-used-ports
	fs.StringVarP(&o.Port, "port", "P", o.Port, "Port exposed")
	fs.DurationVar(&o.Wait, "graceful-timeout", o.Wait, "The duration for which the server gracefully wait for existing connections to finish - e.g. 15s or 1m")
	fs.StringVar(&o.BrokerUrl, "broker-url", o.BrokerUrl, "MQTT broker to publish telemetry to - e.g. tcp://127.0.0.1:1883. Empty disables publishing")
	fs.BoolVar(&o.Simulate, "simulate", o.Simulate, "Attach instruments to an in-process simulation instead of serial lines")
}

func (o *Options) Config(stopCh <-chan struct{}) (*config.Config, error) {
	c := &config.Config{}

	gatewayMgr := gateway.NewGatewayManager(stopCh)
	gatewayMgr.Init()
	c.GatewayMgr = gatewayMgr
	gatewayMeta, _ := gatewayMgr.GetGatewayMeta()

	store, _ := generic.NewStore(storage.StoreGroupToString[storage.StoreGroupInstrument], storage.Instruments, generic.InstrumentTypeObjectMap)

	var mqttClient mqtt.Client
	if len(o.BrokerUrl) > 0 {
		opts := mqtt.NewClientOptions().
			AddBroker(o.BrokerUrl).
			SetClientID("voltampero-" + gatewayMeta.ID).
			SetAutoReconnect(true)
		mqttClient = mqtt.NewClient(opts)
		if token := mqttClient.Connect(); !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			klog.V(1).InfoS("Failed to connect MQTT broker", "brokerUrl", o.BrokerUrl, "err", token.Error())
		}
	}

	var deviceOpts []device.Option
	if o.Simulate {
		deviceOpts = append(deviceOpts, device.WithSimulatedTransports())
	}
	deviceMgr := device.NewManager(store, mqttClient, gatewayMeta, stopCh, deviceOpts...)

	deviceMgr.Init()
	c.DeviceMgr = deviceMgr

	return c, nil
}
