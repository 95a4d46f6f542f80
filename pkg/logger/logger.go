package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	OutputStdout = "stdout"
	OutputFile   = "file"
)

// Loggers groups the named application logs.
type Loggers struct {
	Error    *zap.Logger
	Audit    *zap.Logger
	Request  *zap.Logger
	Security *zap.Logger
	System   *zap.Logger
}

func encoder() zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(encoderCfg)
}

func newLogger(ws zapcore.WriteSyncer, name string, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(encoder(), ws, level)
	return zap.New(core).With(zap.String("log", name))
}

func fileSink(dir, name string) (zapcore.WriteSyncer, error) {
	file, err := os.OpenFile(filepath.Join(dir, name+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(file), nil
}

// New builds every logger. With OutputFile each one writes to dir/<name>.log,
// otherwise all of them share stdout.
func New(output, dir string) (*Loggers, error) {
	if output == OutputFile {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	build := func(name string, level zapcore.Level) (*zap.Logger, error) {
		if output != OutputFile {
			return newLogger(zapcore.Lock(os.Stdout), name, level), nil
		}
		ws, err := fileSink(dir, name)
		if err != nil {
			return nil, fmt.Errorf("cannot create %s logger: %w", name, err)
		}
		return newLogger(ws, name, level), nil
	}

	var (
		l   Loggers
		err error
	)
	if l.Error, err = build("errors", zapcore.ErrorLevel); err != nil {
		return nil, err
	}
	if l.Audit, err = build("audit", zapcore.InfoLevel); err != nil {
		return nil, err
	}
	if l.Request, err = build("request", zapcore.InfoLevel); err != nil {
		return nil, err
	}
	if l.Security, err = build("security", zapcore.WarnLevel); err != nil {
		return nil, err
	}
	if l.System, err = build("system", zapcore.InfoLevel); err != nil {
		return nil, err
	}
	return &l, nil
}

// NewNop returns loggers that discard everything.
func NewNop() *Loggers {
	nop := zap.NewNop()
	return &Loggers{Error: nop, Audit: nop, Request: nop, Security: nop, System: nop}
}

// Sync flushes every logger.
func (l *Loggers) Sync() {
	for _, lg := range []*zap.Logger{l.Error, l.Audit, l.Request, l.Security, l.System} {
		_ = lg.Sync()
	}
}
