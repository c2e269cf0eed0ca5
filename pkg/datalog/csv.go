package datalog

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const timestampLayout = "2006-01-02 15:04:05.000"

var csvHeader = []string{
	"Timestamp", "Elapsed_s", "PSU_Voltage_V", "PSU_Current_A",
	"PSU_Setpoint_V", "PSU_Setpoint_A", "DMM_Value", "DMM_Unit", "DMM_Mode",
}

// Export writes the current buffer snapshot to path as CSV. Safe to
// call while logging is active; the file then holds a prefix of the
// session.
func (p *Pipeline) Export(path string) error {
	entries := p.Entries()

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create export file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return errors.Wrap(err, "failed to write export header")
	}
	for _, entry := range entries {
		record := []string{
			entry.Timestamp.Format(timestampLayout),
			fmt.Sprintf("%.3f", entry.Elapsed),
			fmt.Sprintf("%.4f", entry.PsuVoltage),
			fmt.Sprintf("%.4f", entry.PsuCurrent),
			fmt.Sprintf("%.2f", entry.PsuSetpointV),
			fmt.Sprintf("%.3f", entry.PsuSetpointA),
			fmt.Sprintf("%.6f", entry.DmmValue),
			entry.DmmUnit,
			entry.DmmMode,
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, "failed to write export row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "failed to flush export file")
	}

	klog.V(1).InfoS("Exported log entries", "path", path, "rows", len(entries))
	return nil
}
