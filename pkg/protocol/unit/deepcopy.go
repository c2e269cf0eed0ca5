package unit

import "voltampero/pkg/runtime"

func (in *Instrument) DeepCopyInstrument() runtime.Instrument {
	if in == nil {
		return nil
	}
	out := *in

	out.Address = in.Address.DeepCopy()

	return &out
}

func (in *Address) DeepCopy() *Address {
	if in == nil {
		return nil
	}

	out := *in
	out.Option = in.Option.DeepCopy()

	return &out
}

func (in *AddressOption) DeepCopy() *AddressOption {
	if in == nil {
		return nil
	}

	out := *in

	return &out
}
