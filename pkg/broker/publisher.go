// Package broker publishes telemetry captured by the logging pipeline
// and ramp progress events to an MQTT broker.
package broker

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"k8s.io/klog/v2"

	"voltampero/pkg/datalog"
	"voltampero/pkg/ramp"
	"voltampero/pkg/runtime"
)

const (
	mqttTimeout     = 1 * time.Second
	publishQos byte = 1
)

// Publisher fans log entries and ramp progress out to MQTT. A nil
// client turns every publish into a no-op so the gateway runs fine
// without a broker configured.
type Publisher struct {
	mqttClient mqtt.Client
	gatewayId  string
}

func NewPublisher(mqttClient mqtt.Client, gatewayId string) *Publisher {
	return &Publisher{
		mqttClient: mqttClient,
		gatewayId:  gatewayId,
	}
}

// Consume implements datalog.Sink. It never blocks the capture loop;
// the MQTT token wait happens on a fresh goroutine.
func (p *Publisher) Consume(entry *datalog.LogEntry) {
	if p.mqttClient == nil {
		return
	}
	publishData := runtime.PublishData{Payload: runtime.Payload{Data: []runtime.TimeSeriesData{{
		Timestamp: entry.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		Values: []runtime.PointData{
			{DataPointId: "psuVoltage", Value: entry.PsuVoltage},
			{DataPointId: "psuCurrent", Value: entry.PsuCurrent},
			{DataPointId: "psuSetpointVoltage", Value: entry.PsuSetpointV},
			{DataPointId: "psuSetpointCurrent", Value: entry.PsuSetpointA},
			{DataPointId: "dmmValue", Value: entry.DmmValue},
			{DataPointId: "dmmUnit", Value: entry.DmmUnit},
			{DataPointId: "dmmMode", Value: entry.DmmMode},
		},
	}}}}

	topic := fmt.Sprintf("data/%s/v1/logging", p.gatewayId)
	go p.publish(topic, publishData)
}

// PublishProgress reports a single ramp step over MQTT.
func (p *Publisher) PublishProgress(progress ramp.Progress) {
	if p.mqttClient == nil {
		return
	}
	publishData := runtime.PublishData{Payload: runtime.Payload{Data: []runtime.TimeSeriesData{{
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Values: []runtime.PointData{
			{DataPointId: "rampCycle", Value: strconv.FormatUint(uint64(progress.Cycle), 10)},
			{DataPointId: "rampVoltage", Value: progress.Voltage},
			{DataPointId: "rampPercent", Value: progress.Percent},
		},
	}}}}

	topic := fmt.Sprintf("data/%s/v1/ramp", p.gatewayId)
	go p.publish(topic, publishData)
}

func (p *Publisher) publish(topic string, publishData runtime.PublishData) {
	marshal, _ := json.Marshal(publishData)
	token := p.mqttClient.Publish(topic, publishQos, false, marshal)
	if token.WaitTimeout(mqttTimeout) && token.Error() == nil {
		klog.V(5).InfoS("Succeed to publish MQTT", "topic", topic, "data", publishData)
	} else {
		klog.V(1).InfoS("Failed to publish MQTT", "topic", topic, "err", token.Error())
	}
}

func (p *Publisher) Close(quiesce uint) {
	if p.mqttClient == nil {
		return
	}
	p.mqttClient.Disconnect(quiesce)
}
