package wrapper

import (
	"log"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfcpulog "github.com/pdfcpu/pdfcpu/pkg/log"
)

var configDirOnce sync.Once

// ConfigureLogging routes library diagnostics. ledongthuc/pdf prints its debug
// output to stdout, so it stays off. pdfcpu loggers are disabled unless a
// logger is given, in which case debug, info and read messages go there.
// The pdfcpu configuration directory is never created.
func ConfigureLogging(logger *log.Logger) {
	configDirOnce.Do(api.DisableConfigDir)

	pdf.DebugOn = false

	pdfcpulog.DisableLoggers()
	if logger == nil {
		return
	}
	pdfcpulog.SetDebugLogger(logger)
	pdfcpulog.SetInfoLogger(logger)
	pdfcpulog.SetReadLogger(logger)
}
