// SPDX-License-Identifier: GPL-3.0-or-later

package framer

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
)

type sinkKind int

const (
	sinkBuffer sinkKind = iota
	sinkDirect
	sinkFile
)

// Sink is the destination of the bytes decoded by one [*Engine.Read].
//
// A Sink is one of three variants, built with [BufferSink], [DirectSink]
// or [FileSink]. The zero value is the buffer variant.
type Sink struct {
	kind sinkKind
	w    io.Writer
	path string
}

// BufferSink accumulates decoded bytes and returns them in [Result.Data].
func BufferSink() Sink {
	return Sink{kind: sinkBuffer}
}

// DirectSink writes each decoded chunk to w as soon as it is available,
// flushing w after every chunk when w has a Flush method (such as
// [http.ResponseWriter] or [*bufio.Writer]).
//
// Use it to proxy large bodies without buffering them.
func DirectSink(w io.Writer) Sink {
	return Sink{kind: sinkDirect, w: w}
}

// FileSink writes decoded bytes to a new file at path.
//
// Files are never overwritten. If path exists when the read starts, the
// read fails with [ErrFileAlreadyExists] before consuming any byte from
// the connection. The file is created exclusively when the first chunk
// arrives; if path appeared in the meantime the read stops there with
// [ErrFileAlreadyExists] and that chunk is lost. If the read fails after
// the file was created, the partial file stays on disk.
func FileSink(path string) Sink {
	return Sink{kind: sinkFile, path: path}
}

// String implements [fmt.Stringer].
func (s Sink) String() string {
	switch s.kind {
	case sinkDirect:
		return "direct"
	case sinkFile:
		return "file"
	default:
		return "buffer"
	}
}

// checkTarget fails when a direct sink has no writer or when a file sink
// would overwrite an existing path.
func (s Sink) checkTarget() error {
	if s.kind == sinkDirect && s.w == nil {
		return newError("read", DefaultRID, ErrInvalidRequest, "direct sink without writer", nil)
	}
	if s.kind != sinkFile {
		return nil
	}
	if s.path == "" {
		return newError("read", DefaultRID, ErrInvalidRequest, "file sink without path", nil)
	}
	if _, err := os.Lstat(s.path); err == nil {
		return newError("read", DefaultRID, ErrFileAlreadyExists, s.path, nil)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return newError("read", DefaultRID, ErrFileWrite, s.path, err)
	}
	return nil
}

// flusher is implemented by writers with a fallible flush (e.g., [*bufio.Writer]).
type flusher interface {
	Flush() error
}

// plainFlusher is implemented by writers like [http.ResponseWriter].
type plainFlusher interface {
	Flush()
}

// emitter delivers decoded chunks to a [Sink] during one read.
type emitter struct {
	sink  Sink
	buf   bytes.Buffer
	file  *os.File
	count int64
}

func newEmitter(sink Sink) *emitter {
	return &emitter{sink: sink}
}

// emit delivers one chunk. Empty chunks are ignored.
func (e *emitter) emit(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	switch e.sink.kind {
	case sinkDirect:
		if _, err := e.sink.w.Write(chunk); err != nil {
			return newError("read", DefaultRID, ErrWriteDenied, "direct output", err)
		}
		switch f := e.sink.w.(type) {
		case flusher:
			if err := f.Flush(); err != nil {
				return newError("read", DefaultRID, ErrWriteDenied, "direct output", err)
			}
		case plainFlusher:
			f.Flush()
		}

	case sinkFile:
		if e.file == nil {
			file, err := os.OpenFile(e.sink.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if errors.Is(err, fs.ErrExist) {
				return newError("read", DefaultRID, ErrFileAlreadyExists, e.sink.path, nil)
			}
			if err != nil {
				return newError("read", DefaultRID, ErrFileWrite, e.sink.path, err)
			}
			e.file = file
		}
		if _, err := e.file.Write(chunk); err != nil {
			return newError("read", DefaultRID, ErrFileWrite, e.sink.path, err)
		}

	default:
		e.buf.Write(chunk)
	}
	e.count += int64(len(chunk))
	return nil
}

// close releases the file opened by a file sink, if any. It is safe to
// call more than once.
func (e *emitter) close() error {
	if e.file == nil {
		return nil
	}
	err := e.file.Close()
	e.file = nil
	if err != nil {
		return newError("read", DefaultRID, ErrFileWrite, e.sink.path, err)
	}
	return nil
}

// data returns the accumulated bytes of a buffer sink and nil otherwise.
func (e *emitter) data() []byte {
	if e.sink.kind != sinkBuffer {
		return nil
	}
	return e.buf.Bytes()
}
