package actorlog

import (
	"io"
	"os"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// stumpyLogger adapts a *logiface.Logger[*stumpy.Event] to the [Logger]
// trait.
type stumpyLogger struct {
	l *logiface.Logger[*stumpy.Event]
}

// NewStumpy builds the default concrete [Logger] for this module: a
// zero-allocation JSON logger (stumpy) plumbed through logiface, writing to
// w (stderr if nil).
func NewStumpy(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	l := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
	)
	return stumpyLogger{l: l}
}

func apply(b *logiface.Builder[*stumpy.Event], fields []Field) *logiface.Builder[*stumpy.Event] {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			b = b.Str(f.Key, v)
		case error:
			b = b.Err(v)
		case int:
			b = b.Int(f.Key, v)
		case int64:
			b = b.Int64(f.Key, v)
		case bool:
			b = b.Bool(f.Key, v)
		default:
			b = b.Interface(f.Key, v)
		}
	}
	return b
}

func (s stumpyLogger) Debug(msg string, fields ...Field) {
	apply(s.l.Debug(), fields).Log(msg)
}

func (s stumpyLogger) Info(msg string, fields ...Field) {
	apply(s.l.Info(), fields).Log(msg)
}

func (s stumpyLogger) Warn(msg string, fields ...Field) {
	apply(s.l.Warning(), fields).Log(msg)
}

func (s stumpyLogger) Error(msg string, err error, fields ...Field) {
	b := s.l.Err()
	if err != nil {
		b = b.Err(err)
	}
	apply(b, fields).Log(msg)
}
