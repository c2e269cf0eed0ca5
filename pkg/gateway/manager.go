package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"k8s.io/klog/v2"

	"voltampero/pkg/runtime"
	"voltampero/pkg/storage"
	"voltampero/pkg/utils/randutil"
	"voltampero/pkg/utils/uuidutil"
)

type Option func(*Manager)

type Manager struct {
	gatewayMeta *GatewayMeta
	stopCh      <-chan struct{}
}

func NewGatewayManager(stop <-chan struct{}, opts ...Option) *Manager {
	m := &Manager{
		gatewayMeta: &GatewayMeta{},
		stopCh:      stop,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Init() {
	client := &storage.FsClient{}
	client.Init(storage.StoreGroupGateway)

	gd, err := client.Get(gateway)
	if err != nil && os.IsNotExist(err) {
		m.gatewayMeta = &GatewayMeta{
			Secret: "",
			ObjectMeta: runtime.ObjectMeta{
				Name:    "voltampero",
				ID:      uuidutil.UUID(),
				Version: strconv.FormatUint(randutil.Uint64n(), 10),
				ModTime: time.Now(),
			},
		}
		klog.V(3).InfoS("Gateway information not exist,been created automatically", "gatewayId", m.gatewayMeta.ID)
		if _, err := client.Create(gateway, m.gatewayMeta); err != nil {
			klog.V(2).InfoS("Failed to create gateway information", "err", err)
		}
	} else if err = json.NewDecoder(bytes.NewReader(gd.([]byte))).Decode(m.gatewayMeta); err != nil {
		klog.V(2).InfoS("Failed to unmarshal gateway information", "err", err)
		return
	}
}

func (m *Manager) GetGatewayMeta() (*GatewayMeta, error) {
	return m.gatewayMeta, nil
}

func (m *Manager) getGatewayCpu() ([]float64, error) {
	percents, err := cpu.Percent(time.Second, true)
	if err != nil {
		klog.V(2).InfoS("Failed to read cpu usage", "err", err)
		return nil, err
	}
	return percents, nil
}

func (m *Manager) getGatewayMem() (*MemUsageInfo, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		klog.V(2).InfoS("Failed to read memory usage", "err", err)
		return nil, err
	}
	return &MemUsageInfo{
		Total:       byteCount(vm.Total),
		Used:        byteCount(vm.Used),
		UsedPercent: fmt.Sprintf("%.1f%%", vm.UsedPercent),
	}, nil
}

func (m *Manager) getGatewayDisk() ([]DiskUsageInfo, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		klog.V(2).InfoS("Failed to list disk partitions", "err", err)
		return nil, err
	}
	infos := make([]DiskUsageInfo, 0, len(partitions))
	for _, partition := range partitions {
		usage, err := disk.Usage(partition.Mountpoint)
		if err != nil {
			klog.V(3).InfoS("Failed to read disk usage", "mountpoint", partition.Mountpoint, "err", err)
			continue
		}
		infos = append(infos, DiskUsageInfo{
			Path:        partition.Mountpoint,
			Total:       byteCount(usage.Total),
			Used:        byteCount(usage.Used),
			UsedPercent: fmt.Sprintf("%.1f%%", usage.UsedPercent),
		})
	}
	return infos, nil
}

func byteCount(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(b)/float64(div), "KMGTPE"[exp])
}
