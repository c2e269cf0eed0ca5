package runtime

import (
	"fmt"
	"time"
)

var (
	ErrNotObject = fmt.Errorf("object does not implement the Object interfaces")
)

type ObjectMetaAccessor interface {
	GetObjectMeta() Object
}

type Object interface {
	GetName() string
	SetName(string)
	GetID() string
	SetID(string)
	GetVersion() string
	SetVersion(string)
	GetModTime() time.Time
	SetModTime(time.Time)
}

// Instrument is a configured bench instrument known to the gateway.
type Instrument interface {
	Object
	GetInstrumentType() string
	SetInstrumentType(string)
	GetConnectStatus() string
	SetConnectStatus(string)
	GetTopic() string
	SetTopic(string)
	DeepCopyInstrument() Instrument
}

type ObjectMeta struct {
	Name    string    `json:"name"`
	ID      string    `json:"id"`
	Version string    `json:"eTag"`
	ModTime time.Time `json:"modTime"`
}

type PublishMeta struct {
	Topic string `json:"topic,omitempty"`
}

type InstrumentMeta struct {
	ObjectMeta
	PublishMeta
	InstrumentType string `json:"instrumentType"`
	ConnectStatus  string `json:"connectStatus"`
}

func (meta *ObjectMeta) GetName() string              { return meta.Name }
func (meta *ObjectMeta) SetName(name string)          { meta.Name = name }
func (meta *ObjectMeta) GetID() string                { return meta.ID }
func (meta *ObjectMeta) SetID(id string)              { meta.ID = id }
func (meta *ObjectMeta) GetVersion() string           { return meta.Version }
func (meta *ObjectMeta) SetVersion(version string)    { meta.Version = version }
func (meta *ObjectMeta) GetModTime() time.Time        { return meta.ModTime }
func (meta *ObjectMeta) SetModTime(modTime time.Time) { meta.ModTime = modTime }

func (m *InstrumentMeta) GetInstrumentType() string {
	return m.InstrumentType
}

func (m *InstrumentMeta) SetInstrumentType(s string) {
	m.InstrumentType = s
}

func (m *PublishMeta) GetTopic() string {
	return m.Topic
}

func (m *PublishMeta) SetTopic(topic string) {
	m.Topic = topic
}

func (m *InstrumentMeta) GetConnectStatus() string {
	return m.ConnectStatus
}

func (m *InstrumentMeta) SetConnectStatus(status string) {
	m.ConnectStatus = status
}

func (m *InstrumentMeta) DeepCopyInstrument() Instrument {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}

func Accessor(obj interface{}) (Object, error) {
	switch t := obj.(type) {
	case Object:
		return t, nil
	case ObjectMetaAccessor:
		if m := t.GetObjectMeta(); m != nil {
			return m, nil
		}
		return nil, ErrNotObject
	default:
		return nil, ErrNotObject
	}
}

func AccessorInstrument(obj interface{}) (Instrument, error) {
	switch t := obj.(type) {
	case Instrument:
		return t, nil
	default:
		return nil, ErrNotObject
	}
}
