package vm

import "github.com/amlvm/engine/internal/hostlog"

func hostlogWarnf(format string, args ...any)  { hostlog.Warnf(format, args...) }
func hostlogDebugf(format string, args ...any) { hostlog.Debugf(format, args...) }
