package pdf

import (
	"sync"

	"github.com/xuri/excelize/v2"
)

var (
	probeOnce sync.Once
	probeDoc  []byte
)

// probeDocument returns a minimal single-cell workbook used by Probe.
// Built once; the bytes are immutable afterwards.
func probeDocument() []byte {
	probeOnce.Do(func() {
		f := excelize.NewFile()
		_ = f.SetCellValue("Sheet1", "A1", "probe")
		if buf, err := f.WriteToBuffer(); err == nil {
			probeDoc = buf.Bytes()
		}
		_ = f.Close()
	})
	return probeDoc
}
