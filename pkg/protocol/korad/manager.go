package korad

import (
	"strconv"
	"time"

	"k8s.io/klog/v2"

	"voltampero/pkg/runtime"
	"voltampero/pkg/runtime/constant"
	"voltampero/pkg/utils/randutil"
	"voltampero/pkg/utils/uuidutil"
	v1 "voltampero/pkg/v1"
)

type PsuInstrumentManager struct {
}

func (m *PsuInstrumentManager) CreateInstrument(instrumentType v1.InstrumentType) (runtime.Instrument, error) {
	psuInstrument, ok := instrumentType.(*v1.PsuInstrument)
	if !ok {
		klog.V(2).InfoS("Unsupported instrument, type not Korad PSU")
		return nil, constant.ErrInstrumentType
	}

	in := &Instrument{
		InstrumentMeta: runtime.InstrumentMeta{
			ObjectMeta: runtime.ObjectMeta{
				Name:    psuInstrument.Name,
				ID:      uuidutil.UUID(),
				Version: strconv.FormatUint(randutil.Uint64n(), 10),
				ModTime: time.Now(),
			},
			PublishMeta:    runtime.PublishMeta{Topic: psuInstrument.Topic},
			InstrumentType: psuInstrument.InstrumentType,
			ConnectStatus:  runtime.ConnectStatusToString[runtime.Disconnected],
		},
		Address: &Address{
			Location: psuInstrument.Address.Location,
		},
	}
	if psuInstrument.Address.Option != nil {
		in.Address.Option = &AddressOption{
			BaudRate: psuInstrument.Address.Option.BaudRate,
			DataBits: psuInstrument.Address.Option.DataBits,
			Parity:   psuInstrument.Address.Option.Parity,
			StopBits: psuInstrument.Address.Option.StopBits,
		}
	}
	return in, nil
}

func (m *PsuInstrumentManager) DeleteInstrument(instrument runtime.Instrument) (runtime.Instrument, error) {
	return &Instrument{InstrumentMeta: runtime.InstrumentMeta{
		ObjectMeta:     runtime.ObjectMeta{ID: instrument.GetID(), Version: instrument.GetVersion()},
		InstrumentType: instrument.GetInstrumentType(),
	}}, nil
}

func (m *PsuInstrumentManager) UpdateValidation(instrumentType v1.InstrumentType, instrument runtime.Instrument) error {
	return nil
}

func (m *PsuInstrumentManager) UpdateInstrument(id string, instrumentType v1.InstrumentType, instrument runtime.Instrument) (runtime.Instrument, error) {
	psuInstrument, ok := instrumentType.(*v1.PsuInstrument)
	if !ok {
		klog.V(2).InfoS("Unsupported instrument, type not Korad PSU")
		return nil, constant.ErrInstrumentType
	}

	copied, _ := instrument.(*Instrument)
	copied.InstrumentMeta.ObjectMeta.Name = psuInstrument.Name
	copied.InstrumentMeta.PublishMeta.Topic = psuInstrument.Topic
	copied.InstrumentMeta.InstrumentType = psuInstrument.InstrumentType
	copied.Address.Location = psuInstrument.Address.Location
	if psuInstrument.Address.Option != nil {
		copied.Address.Option = &AddressOption{
			BaudRate: psuInstrument.Address.Option.BaudRate,
			DataBits: psuInstrument.Address.Option.DataBits,
			Parity:   psuInstrument.Address.Option.Parity,
			StopBits: psuInstrument.Address.Option.StopBits,
		}
	}
	return copied, nil
}
