// A simple telemetry package.
// As yet we have no place to put counters except log messages.
package telemetry

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type TelemetryData struct {
	logger Logger

	counterLock sync.Mutex
	counters    map[string]int

	trace bool
}

type Logger interface {
	Println(v ...any)
}

var data = TelemetryData{
	counters: make(map[string]int),
}

// init is called at program startup time to initialize the logger
func init() {
	l := log.New(os.Stdout, "", 0)
	l.SetOutput(formattedWriter{})
	data.logger = l
}

type formattedWriter struct{}

func (w formattedWriter) Write(bytes []byte) (int, error) {
	return fmt.Print(time.Now().UTC().Format("2006-01-02 15:04:05") + " " + string(bytes))
}

// SetTrace turns verbose trace logging on or off.
// Wire traffic is noisy, so it defaults to off.
func SetTrace(on bool) {
	data.trace = on
}

func Log(format string, args ...any) {
	data.logger.Println(fmt.Sprintf(format, args...))
}

func Trace(format string, args ...any) {
	if data.trace {
		Log(format, args...)
	}
}

func Error(err error, format string, args ...any) {
	data.logger.Println("ERROR", fmt.Sprintf(format, args...), fmt.Sprintf("[%s]", err))
	Increment("errors", 1)
}

// Increment increases a count, thread-safe
func Increment(name string, n int) {
	data.counterLock.Lock()
	defer data.counterLock.Unlock()
	data.counters[name] += n
}

func GetCounter(name string) int {
	data.counterLock.Lock()
	defer data.counterLock.Unlock()
	return data.counters[name]
}

func LogCounters() {
	s := make([]string, 0)
	data.counterLock.Lock()
	for k, v := range data.counters {
		s = append(s, fmt.Sprintf("%s=%d", k, v))
	}
	data.counterLock.Unlock()
	if len(s) == 0 {
		s = append(s, "no counters were recorded")
	}
	Log(strings.Join(s, ", "))
}
