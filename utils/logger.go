/*
 * Copyright 2025 quarry-db.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package utils provides named logrus loggers with a log4j-style console
// formatter and small environment helpers.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the logger type handed out by NewLogger.
type Logger = logrus.Logger

var (
	defaultLevel     = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "debug"))
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
)

// ParseLogLevel converts a level name to a logrus level. Unknown or empty
// strings map to InfoLevel.
func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info", "":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// RegisterLogger adds a named logger to the registry so its level can be
// changed later via SetLoggerLevel.
func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

// SetLoggerLevel changes the level of a registered logger. It reports whether
// a logger with that name was found.
func SetLoggerLevel(name string, lvlStr string) bool {
	lvl := ParseLogLevel(lvlStr)
	loggerRegistryMu.RLock()
	lg, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	lg.SetLevel(lvl)
	return true
}

// SetAllLoggersLevel changes the level of every registered logger and of the
// logrus standard logger.
func SetAllLoggersLevel(lvl logrus.Level) {
	loggerRegistryMu.RLock()
	for _, lg := range loggerRegistry {
		lg.SetLevel(lvl)
	}
	loggerRegistryMu.RUnlock()
	logrus.SetLevel(lvl)
	defaultLevel = lvl
}

// NewLogger creates and registers a named console logger.
func NewLogger(name string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(defaultLevel)
	l.SetReportCaller(true)
	l.SetFormatter(&ConsoleFormatter{
		LoggerName:      name,
		TimestampFormat: "2006-01-02 15:04:05.000",
		NameWidth:       10,
	})
	RegisterLogger(name, l)
	return l
}

// ConsoleFormatter renders entries as
//
//	2025-01-02 15:04:05.000   DEBUG 1234 - [main] DATABASE database/conn.go:52 : message
//
// in the manner of log4j console output.
type ConsoleFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
}

func (f *ConsoleFormatter) tsFormat() string {
	if f.TimestampFormat != "" {
		return f.TimestampFormat
	}
	return "2006-01-02 15:04:05.000"
}

func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	ts := time.Now().Format(f.tsFormat())
	lvl := colorLevel(padLeft(strings.ToUpper(entry.Level.String()), 7), entry.Level)
	pid := fmt.Sprintf("%-6d", os.Getpid())
	name := padLeft(limitRunes(f.LoggerName, f.NameWidth), f.NameWidth)

	caller := ""
	if entry.Caller != nil {
		caller = fmt.Sprintf(" %s:%d", shortRelative(entry.Caller.File), entry.Caller.Line)
	}

	msg := entry.Message
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
		msg += b.String()
	}

	line := fmt.Sprintf("%s %s %s - [main] %s%s : %s\n", ts, lvl, pid, name, caller, msg)
	return []byte(line), nil
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiFaint  = "\x1b[2m"
)

func colorLevel(s string, lvl logrus.Level) string {
	switch lvl {
	case logrus.TraceLevel, logrus.DebugLevel:
		return ansiFaint + s + ansiReset
	case logrus.InfoLevel:
		return ansiGreen + s + ansiReset
	case logrus.WarnLevel:
		return ansiYellow + s + ansiReset
	default:
		return ansiRed + s + ansiReset
	}
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func limitRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[len(r)-max:])
}

// shortRelative keeps the last two path elements of a source file path.
func shortRelative(path string) string {
	dir, file := filepath.Split(filepath.ToSlash(path))
	dir = strings.TrimSuffix(dir, "/")
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[i+1:]
	}
	if dir == "" {
		return file
	}
	return dir + "/" + file
}

// EnvDefaultString returns the environment value for key, or def when unset
// or empty.
func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvDefaultBool returns the boolean environment value for key, or def when
// unset.
func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
