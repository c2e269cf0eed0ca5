package generic

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"k8s.io/klog/v2"

	"voltampero/pkg/runtime"
	"voltampero/pkg/storage"
)

// Store persists instruments as one JSON file per object, keyed
// "<instrumentType>.<id>" so the concrete type can be recovered on
// load.
type Store struct {
	Group        string
	Resource     string
	ResourceType map[string]reflect.Type
	client       storage.Storage
}

func NewStore(group string, resource string, resourceType map[string]runtime.Instrument) (*Store, error) {
	s := &Store{
		Group:        group,
		Resource:     resource,
		ResourceType: make(map[string]reflect.Type),
	}
	for it, object := range resourceType {
		s.ResourceType[it] = getTypeOfResource(object)
	}

	client := &storage.FsClient{}
	client.Init(storage.StoreGroupFromString[group])
	s.client = client

	return s, nil
}

func (s *Store) Create(obj runtime.Instrument) (save runtime.Instrument, returnErr error) {
	accessor, _ := runtime.Accessor(obj)
	key := filepath.Join(s.Resource, fmt.Sprintf("%s.%s", obj.GetInstrumentType(), accessor.GetID()))
	if saved, err := s.client.Create(key, obj); err == nil {
		save = saved.(runtime.Instrument)
	} else {
		returnErr = err
	}
	return
}

func (s *Store) Update(obj runtime.Instrument) (update runtime.Instrument, returnErr error) {
	accessor, _ := runtime.Accessor(obj)
	key := filepath.Join(s.Resource, fmt.Sprintf("%s.%s", obj.GetInstrumentType(), accessor.GetID()))
	if updated, err := s.client.Update(key, accessor.GetVersion(), obj); err == nil {
		update = updated.(runtime.Instrument)
	} else {
		returnErr = err
	}
	return
}

func (s *Store) Delete(obj runtime.Instrument) (delete runtime.Instrument, returnErr error) {
	accessor, _ := runtime.Accessor(obj)
	key := filepath.Join(s.Resource, fmt.Sprintf("%s.%s", obj.GetInstrumentType(), accessor.GetID()))
	if _, err := s.client.Delete(key, accessor.GetVersion()); err == nil {
		delete = obj
	} else {
		returnErr = err
	}
	return
}

func (s *Store) LoadResource() ([]runtime.Instrument, error) {
	objs, err := s.client.List(s.Resource)
	if err != nil {
		return nil, err
	}

	var ret []runtime.Instrument
	if files, ok := objs.([]*storage.FileInfo); ok {
		for _, file := range files {
			func() {
				fileName := filepath.Base(file.Path)
				it := fileName[0:strings.LastIndex(fileName, ".")]
				resourceType, ok := s.ResourceType[it]
				if !ok {
					klog.V(2).InfoS("Skipped unknown resource", "file", file.Path, "resource", s.Resource)
					return
				}
				obj := reflect.New(resourceType).Interface().(runtime.Instrument)
				f, err := os.Open(file.Path)
				defer f.Close()
				if err != nil {
					klog.V(2).InfoS("Failed to open", "file", file.Path, "resource", s.Resource, "err", err)
					return
				}
				if err = json.NewDecoder(f).Decode(obj); err != nil {
					klog.V(3).InfoS("Failed to unmarshal", "file", file.Path, "resource", s.Resource, "err", err)
					return
				}
				ret = append(ret, obj)
			}()
		}
	}
	return ret, nil
}

func getTypeOfResource(obj runtime.Instrument) reflect.Type {
	t := reflect.TypeOf(obj)
	if t.Kind() != reflect.Ptr {
		panic("All types must be pointers to structs.")
	}
	t = t.Elem()
	if t.Kind() != reflect.Struct {
		panic("All types must be pointers to structs.")
	}
	return t
}
