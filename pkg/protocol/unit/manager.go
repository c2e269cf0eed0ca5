package unit

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

type DmmInstrumentManager struct {
}

func (m *DmmInstrumentManager) CreateInstrument(instrumentType v1.InstrumentType) (runtime.Instrument, error) {
	dmmInstrument, ok := instrumentType.(*v1.DmmInstrument)
	if !ok {
		klog.V(2).InfoS("Unsupported instrument, type not UNI-T DMM")
		return nil, constant.ErrInstrumentType
	}

	in := &Instrument{
		InstrumentMeta: runtime.InstrumentMeta{
			ObjectMeta: runtime.ObjectMeta{
				Name:    dmmInstrument.Name,
				ID:      uuidutil.UUID(),
				Version: strconv.FormatUint(randutil.Uint64n(), 10),
				ModTime: time.Now(),
			},
			PublishMeta:    runtime.PublishMeta{Topic: dmmInstrument.Topic},
			InstrumentType: dmmInstrument.InstrumentType,
			ConnectStatus:  runtime.ConnectStatusToString[runtime.Disconnected],
		},
		Address: &Address{
			Location: dmmInstrument.Address.Location,
		},
	}
	if dmmInstrument.Address.Option != nil {
		in.Address.Option = &AddressOption{
			BaudRate: dmmInstrument.Address.Option.BaudRate,
			DataBits: dmmInstrument.Address.Option.DataBits,
			Parity:   dmmInstrument.Address.Option.Parity,
			StopBits: dmmInstrument.Address.Option.StopBits,
		}
	}
	return in, nil
}

func (m *DmmInstrumentManager) DeleteInstrument(instrument runtime.Instrument) (runtime.Instrument, error) {
	return &Instrument{InstrumentMeta: runtime.InstrumentMeta{
		ObjectMeta:     runtime.ObjectMeta{ID: instrument.GetID(), Version: instrument.GetVersion()},
		InstrumentType: instrument.GetInstrumentType(),
	}}, nil
}

func (m *DmmInstrumentManager) UpdateValidation(instrumentType v1.InstrumentType, instrument runtime.Instrument) error {
	return nil
}

func (m *DmmInstrumentManager) UpdateInstrument(id string, instrumentType v1.InstrumentType, instrument runtime.Instrument) (runtime.Instrument, error) {
	dmmInstrument, ok := instrumentType.(*v1.DmmInstrument)
	if !ok {
		klog.V(2).InfoS("Unsupported instrument, type not UNI-T DMM")
		return nil, constant.ErrInstrumentType
	}

	copied, _ := instrument.(*Instrument)
	copied.InstrumentMeta.ObjectMeta.Name = dmmInstrument.Name
	copied.InstrumentMeta.PublishMeta.Topic = dmmInstrument.Topic
	copied.InstrumentMeta.InstrumentType = dmmInstrument.InstrumentType
	copied.Address.Location = dmmInstrument.Address.Location
	if dmmInstrument.Address.Option != nil {
		copied.Address.Option = &AddressOption{
			BaudRate: dmmInstrument.Address.Option.BaudRate,
			DataBits: dmmInstrument.Address.Option.DataBits,
			Parity:   dmmInstrument.Address.Option.Parity,
			StopBits: dmmInstrument.Address.Option.StopBits,
		}
	}
	return copied, nil
}
