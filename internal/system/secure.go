package system

import (
	"bytes"
	"runtime"
)

// Secret holds a wrap key. The buffer is owned by the Secret and is
// overwritten by Wipe, or by the finalizer if Wipe is never called.
type Secret struct {
	data []byte
}

// NewSecret takes ownership of data without copying it
func NewSecret(data []byte) *Secret {
	s := &Secret{data: data}
	runtime.SetFinalizer(s, func(s *Secret) {
		s.Wipe()
	})
	return s
}

// SecretFromLine takes ownership of data and drops its trailing line
// terminator. Key files and piped input usually end with one, and
// cryptsetup would otherwise treat it as part of the passphrase.
func SecretFromLine(data []byte) *Secret {
	line := bytes.TrimRight(data, "\r\n")
	wipe(data[len(line):])
	return NewSecret(line)
}

// Bytes returns the key. It is only valid until Wipe.
func (s *Secret) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.data
}

// Wipe zeroes the key. Safe on a nil Secret.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	wipe(s.data)
	s.data = nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
