package runtime

import (
	"github.com/mitchellh/mapstructure"
	"k8s.io/klog/v2"
	"sort"
	"strings"
)

type lessTypeFunc func(i1, i2 Instrument) bool

type typeSorter struct {
	instruments []Instrument
	lessFuncs   []lessTypeFunc
}

func ByInstrument(less ...lessTypeFunc) *typeSorter {
	return &typeSorter{
		lessFuncs: less,
	}
}

func (ts *typeSorter) Sort(instruments []Instrument) {
	ts.instruments = instruments
	sort.Sort(ts)
}

func (ts *typeSorter) Len() int {
	return len(ts.instruments)
}

func (ts *typeSorter) Swap(i, j int) {
	ts.instruments[i], ts.instruments[j] = ts.instruments[j], ts.instruments[i]
}

func (ts *typeSorter) Less(i, j int) bool {
	return ts.less(ts.instruments[i], ts.instruments[j])
}

func (ts *typeSorter) less(p, q Instrument) bool {
	// Try all but the last comparison.
	var k int
	for k = 0; k < len(ts.lessFuncs)-1; k++ {
		less := ts.lessFuncs[k]
		switch {
		case less(p, q):
			return true
		case less(q, p):
			return false
		}
	}
	return ts.lessFuncs[k](p, q)
}

func (ts *typeSorter) Insert(instruments []Instrument, in Instrument) []Instrument {
	i := sort.Search(len(instruments), func(i int) bool { return ts.less(instruments[i], in) })
	instruments = append(instruments, in)
	copy(instruments[i+1:], instruments[i:])
	instruments[i] = in
	return instruments
}

type NameFilterFunc struct {
	Eq         string
	In         []string
	Contains   string
	StartsWith string
	EndsWith   string
}

type InstrumentFilter struct {
	Name           interface{}
	Id             string
	InstrumentType string
}

type predicateType func(in Instrument) bool

func ParseTypeFilter(filter *InstrumentFilter) []predicateType {
	predicates := make([]predicateType, 0)

	// id
	if len(filter.Id) > 0 {
		p := func(in Instrument) bool {
			return filter.Id == in.GetID()
		}
		predicates = append(predicates, p)
	}

	// instrumentType
	if len(filter.InstrumentType) > 0 {
		p := func(in Instrument) bool {
			return filter.InstrumentType == in.GetInstrumentType()
		}
		predicates = append(predicates, p)
	}

	// name
	if filter.Name != nil {
		if name, ok := filter.Name.(string); ok {
			p := func(in Instrument) bool {
				return name == in.GetName()
			}
			predicates = append(predicates, p)
		} else {
			var ff NameFilterFunc
			if err := mapstructure.Decode(filter.Name, &ff); err != nil {
				klog.V(3).InfoS("Failed to parse filter.name", "err", err)
			}
			// eq
			if len(ff.Eq) > 0 {
				p := func(in Instrument) bool {
					return ff.Eq == in.GetName()
				}
				predicates = append(predicates, p)
			}
			// in
			if len(ff.In) > 0 {
				p := func(in Instrument) bool {
					for _, name := range ff.In {
						if name == in.GetName() {
							return true
						}
					}
					return false
				}
				predicates = append(predicates, p)
			}
			// contains
			if len(ff.Contains) > 0 {
				p := func(in Instrument) bool {
					return strings.Contains(in.GetName(), ff.Contains)
				}
				predicates = append(predicates, p)
			}
			// startsWith
			if len(ff.StartsWith) > 0 {
				p := func(in Instrument) bool {
					return strings.HasPrefix(in.GetName(), ff.StartsWith)
				}
				predicates = append(predicates, p)
			}
			// endsWith
			if len(ff.EndsWith) > 0 {
				p := func(in Instrument) bool {
					return strings.HasSuffix(in.GetName(), ff.EndsWith)
				}
				predicates = append(predicates, p)
			}
		}
	}

	return predicates
}
