// Package hostlog wires the engine's debug/warn logging to commonlog,
// the same logging façade the teacher project's LSP server registers
// in server/lsp.go.
package hostlog

import (
	"sync"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const loggerName = "aml"

var (
	once   sync.Once
	logger commonlog.Logger
)

func get() commonlog.Logger {
	once.Do(func() {
		logger = commonlog.GetLogger(loggerName)
	})
	return logger
}

// Debugf logs at debug level, used for unhandled-opcode delegation
// (spec §7: "unhandled opcodes are logged at debug level before being
// delegated").
func Debugf(format string, args ...any) {
	get().Debugf(format, args...)
}

// Warnf logs at warning level, used for the _OSI("Linux") buggy-BIOS
// notice and other host-visible but non-fatal conditions.
func Warnf(format string, args ...any) {
	get().Warningf(format, args...)
}

// Errorf logs at error level. The engine does not call it: a recovered
// *vm.FatalError is logged through Warnf.
func Errorf(format string, args ...any) {
	get().Errorf(format, args...)
}

// SetVerbose raises the registered simple backend to debug level; used
// by cmd/amlrun's -v flag.
func SetVerbose(verbose bool) {
	if verbose {
		commonlog.SetMaxLevel(commonlog.Debug)
	} else {
		commonlog.SetMaxLevel(commonlog.Info)
	}
}
