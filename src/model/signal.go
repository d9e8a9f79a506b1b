package model

import "fmt"

// Level is a PHP error level. Values are the runtime's E_* bit flags so a
// reporting mask can be compared against a union of levels.
type Level int

const (
	LevelError            Level = 1
	LevelWarning          Level = 2
	LevelParse            Level = 4
	LevelNotice           Level = 8
	LevelCoreError        Level = 16
	LevelCoreWarning      Level = 32
	LevelCompileError     Level = 64
	LevelCompileWarning   Level = 128
	LevelUserError        Level = 256
	LevelUserWarning      Level = 512
	LevelUserNotice       Level = 1024
	LevelStrict           Level = 2048
	LevelRecoverableError Level = 4096
	LevelDeprecated       Level = 8192
	LevelUserDeprecated   Level = 16384
)

var levelNames = map[Level]string{
	LevelError:            "E_ERROR",
	LevelWarning:          "E_WARNING",
	LevelParse:            "E_PARSE",
	LevelNotice:           "E_NOTICE",
	LevelCoreError:        "E_CORE_ERROR",
	LevelCoreWarning:      "E_CORE_WARNING",
	LevelCompileError:     "E_COMPILE_ERROR",
	LevelCompileWarning:   "E_COMPILE_WARNING",
	LevelUserError:        "E_USER_ERROR",
	LevelUserWarning:      "E_USER_WARNING",
	LevelUserNotice:       "E_USER_NOTICE",
	LevelStrict:           "E_STRICT",
	LevelRecoverableError: "E_RECOVERABLE_ERROR",
	LevelDeprecated:       "E_DEPRECATED",
	LevelUserDeprecated:   "E_USER_DEPRECATED",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("E_UNKNOWN(%d)", int(l))
}

// Origin tells which host hook observed a signal.
type Origin string

const (
	OriginRuntimeError      Origin = "runtime_error"
	OriginUncaughtException Origin = "uncaught_exception"
	OriginShutdownFatal     Origin = "shutdown_fatal"
)

// Kind is the reporting category a level is classified into.
type Kind string

const (
	KindFatal       Kind = "fatal"
	KindNonFatal    Kind = "non_fatal"
	KindDeprecation Kind = "deprecation"
)

// Location is the source position a signal was raised at.
type Location struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
}

// Signal is one raw error observation. Treat it as a value: pipeline stages
// never mutate it.
type Signal struct {
	Level    Level          `json:"level"`
	Message  string         `json:"message"`
	Location *Location      `json:"location,omitempty"`
	Origin   Origin         `json:"origin"`
	Class    string         `json:"class,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

// Fingerprint identifies the same underlying error across hooks, so a fatal
// seen by the error handler is not reported again at shutdown.
func (s Signal) Fingerprint() string {
	file, line := "", 0
	if s.Location != nil {
		file, line = s.Location.File, s.Location.Line
	}
	return fmt.Sprintf("%d|%s|%s|%d", s.Level, s.Message, file, line)
}

// ClassName returns the exception class, or the level name for runtime errors.
func (s Signal) ClassName() string {
	if s.Class != "" {
		return s.Class
	}
	return s.Level.String()
}
