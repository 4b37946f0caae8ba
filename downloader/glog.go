package downloader

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
)

// GlogLogger is a Logger writing through glog. Debug messages are logged at
// verbosity 2.
type GlogLogger struct{}

// Debug implements Logger.
func (GlogLogger) Debug(msg string, keysAndValues ...interface{}) {
	if glog.V(2) {
		glog.InfoDepth(1, format(msg, keysAndValues))
	}
}

// Info implements Logger.
func (GlogLogger) Info(msg string, keysAndValues ...interface{}) {
	glog.InfoDepth(1, format(msg, keysAndValues))
}

// Error implements Logger.
func (GlogLogger) Error(msg string, keysAndValues ...interface{}) {
	glog.ErrorDepth(1, format(msg, keysAndValues))
}

// format renders msg followed by key=value pairs. An odd trailing key is
// printed with a missing value.
func format(msg string, keysAndValues []interface{}) string {
	if len(keysAndValues) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		var v interface{} = "(MISSING)"
		if i+1 < len(keysAndValues) {
			v = keysAndValues[i+1]
		}
		fmt.Fprintf(&b, " %v=%v", keysAndValues[i], v)
	}
	return b.String()
}
