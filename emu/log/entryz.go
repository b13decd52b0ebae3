package log

import (
	"fmt"
	"sync"
	"time"

	"gopkg.in/Sirupsen/logrus.v0"
)

type fieldKind uint8

const (
	kindBool fieldKind = iota
	kindString
	kindInt
	kindHex8
	kindHex16
	kindError
	kindDuration
)

// zfield holds an unformatted field value; formatting happens in End, so
// only for entries that are actually emitted.
type zfield struct {
	key  string
	kind fieldKind
	num  int64
	str  string
	err  error
}

func (f *zfield) value() any {
	switch f.kind {
	case kindBool:
		return f.num != 0
	case kindString:
		return f.str
	case kindInt:
		return f.num
	case kindHex8:
		return fmt.Sprintf("%02x", uint8(f.num))
	case kindHex16:
		return fmt.Sprintf("%04x", uint16(f.num))
	case kindError:
		if f.err == nil {
			return "<nil>"
		}
		return f.err.Error()
	case kindDuration:
		return time.Duration(f.num).String()
	}
	return nil
}

// EntryZ is a structured log entry. A nil *EntryZ is valid and discards
// everything, so a disabled log statement costs a single comparison.
type EntryZ struct {
	lvl Level
	mod Module
	msg string

	fields [16]zfield
	nfield int
}

var entryPool = sync.Pool{
	New: func() any { return new(EntryZ) },
}

func (z *EntryZ) add(f zfield) *EntryZ {
	if z == nil {
		return nil
	}
	if z.nfield < len(z.fields) {
		z.fields[z.nfield] = f
		z.nfield++
	}
	return z
}

func (z *EntryZ) Bool(key string, b bool) *EntryZ {
	var n int64
	if b {
		n = 1
	}
	return z.add(zfield{key: key, kind: kindBool, num: n})
}

func (z *EntryZ) String(key, s string) *EntryZ {
	return z.add(zfield{key: key, kind: kindString, str: s})
}

func (z *EntryZ) Int(key string, v int) *EntryZ {
	return z.add(zfield{key: key, kind: kindInt, num: int64(v)})
}

func (z *EntryZ) Int64(key string, v int64) *EntryZ {
	return z.add(zfield{key: key, kind: kindInt, num: v})
}

func (z *EntryZ) Hex8(key string, v uint8) *EntryZ {
	return z.add(zfield{key: key, kind: kindHex8, num: int64(v)})
}

func (z *EntryZ) Hex16(key string, v uint16) *EntryZ {
	return z.add(zfield{key: key, kind: kindHex16, num: int64(v)})
}

func (z *EntryZ) Error(key string, err error) *EntryZ {
	return z.add(zfield{key: key, kind: kindError, err: err})
}

func (z *EntryZ) Duration(key string, d time.Duration) *EntryZ {
	return z.add(zfield{key: key, kind: kindDuration, num: int64(d)})
}

// End emits the entry and recycles it.
func (z *EntryZ) End() {
	if z == nil {
		return
	}

	fields := make(logrus.Fields, z.nfield+1)
	fields["_mod"] = z.mod.String()
	for i := range z.fields[:z.nfield] {
		fields[z.fields[i].key] = z.fields[i].value()
	}

	entry := logrus.StandardLogger().WithFields(fields)
	switch z.lvl {
	case DebugLevel:
		entry.Debug(z.msg)
	case InfoLevel:
		entry.Info(z.msg)
	case WarnLevel:
		entry.Warn(z.msg)
	case ErrorLevel:
		entry.Error(z.msg)
	case FatalLevel:
		entry.Fatal(z.msg)
	}

	clear(z.fields[:z.nfield])
	z.nfield = 0
	entryPool.Put(z)
}
