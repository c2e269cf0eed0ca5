package generic

import (
	"voltampero/pkg/protocol/korad"
	"voltampero/pkg/protocol/unit"
	"voltampero/pkg/runtime"
	v1 "voltampero/pkg/v1"
)

const (
	InstrumentTypeKoradPsu = "koradPsu"
	InstrumentTypeUnitDmm  = "unitDmm"
)

var InstrumentTypeMap = map[string]func() v1.InstrumentType{
	InstrumentTypeKoradPsu: func() v1.InstrumentType { return &v1.PsuInstrument{} },
	InstrumentTypeUnitDmm:  func() v1.InstrumentType { return &v1.DmmInstrument{} },
}

var InstrumentTypeObjectMap = map[string]runtime.Instrument{
	InstrumentTypeKoradPsu: &korad.Instrument{},
	InstrumentTypeUnitDmm:  &unit.Instrument{},
}
