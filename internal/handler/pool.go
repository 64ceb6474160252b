package handler

import (
	"bytes"
	"sync"
)

// bufferPool recycles encode buffers across responses. Spin results carry the
// full grid plus cascade steps, so start at 2KB to avoid most regrowth.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 2048))
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(buf *bytes.Buffer) {
	buf.Reset()
	bufferPool.Put(buf)
}
