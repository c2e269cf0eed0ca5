package device

import (
	"time"

	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/sets"

	"voltampero/pkg/generic"
	"voltampero/pkg/protocol/korad"
	"voltampero/pkg/protocol/unit"
)

var InstrumentManagers = map[string]InstrumentManager{
	generic.InstrumentTypeKoradPsu: &korad.PsuInstrumentManager{},
	generic.InstrumentTypeUnitDmm:  &unit.DmmInstrumentManager{},
}

var patchTypes = sets.NewString(string(types.JSONPatchType), string(types.MergePatchType))

const (
	maxJSONPatchOperations = 1000
	heartBeatTimeInterval  = 15 * time.Second
	defaultLoggingInterval = 300 * time.Millisecond
	defaultStepInterval    = 100 * time.Millisecond
)
