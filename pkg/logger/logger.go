package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// The TUI owns the terminal, so diagnostics go to a timestamped file
// instead of stdout/stderr. The directory defaults to tmp/ and can be
// pointed elsewhere with SetDirectory before the first write.
var (
	mu      sync.Mutex
	logger  *log.Logger
	logFile *os.File
	logDir  = "tmp"
)

// SetDirectory changes where the log file is created. It has no effect
// once the first message has been written.
func SetDirectory(dir string) {
	mu.Lock()
	defer mu.Unlock()
	if dir != "" && logger == nil {
		logDir = dir
	}
}

func active() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = open()
	}
	return logger
}

func open() *log.Logger {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return log.New(os.Stderr, "[console] ", log.LstdFlags|log.Lshortfile)
	}

	name := filepath.Join(logDir, fmt.Sprintf("console-%s.log", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return log.New(os.Stderr, "[console] ", log.LstdFlags|log.Lshortfile)
	}

	logFile = f
	return log.New(f, "[console] ", log.LstdFlags|log.Lshortfile)
}

// Log writes a log message.
func Log(format string, v ...interface{}) {
	active().Printf(format, v...)
}

// LogError writes an error log message.
func LogError(err error, format string, v ...interface{}) {
	active().Printf("ERROR: %s: %v", fmt.Sprintf(format, v...), err)
}

// CloseLog closes the log file.
func CloseLog() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = nil
}
