// Package nvm persists the brake calibration record the way the ECU's
// non-volatile memory would: a fixed 8-byte block guarded by a
// signature word. On a host system the backing medium is a plain file.
package nvm

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Signature marks an initialized calibration record. A record whose
// signature does not match is treated as uninitialized, never as an
// error: cold flash and corrupt flash look the same to the loader.
const Signature uint32 = 0xCA1BCA1B

// Record layout, little-endian:
//
//	0..3 signature
//	4..5 pressure offset (kPa)
//	6..7 reserved
const recordSize = 8

// Store is a file-backed calibration store. One parameter, one record.
type Store struct {
	path string
}

// NewStore returns a store over the given file path. The file is not
// touched until Load or Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted pressure offset. A missing, short, or
// unsigned record is normalized to {Signature, 0} on disk and 0 is
// returned. Load never fails: a medium that cannot even be rewritten
// still yields the safe default.
func (s *Store) Load() uint16 {
	b, err := os.ReadFile(s.path)
	if err == nil && len(b) >= recordSize &&
		binary.LittleEndian.Uint32(b[0:4]) == Signature {
		return binary.LittleEndian.Uint16(b[4:6])
	}

	if err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).WithField("path", s.path).Warn("calibration record unreadable, using defaults")
	} else if err == nil {
		logrus.WithField("path", s.path).Warn("calibration record unsigned, reinitializing")
	}

	if err := s.write(0); err != nil {
		logrus.WithError(err).WithField("path", s.path).Warn("failed to reinitialize calibration record")
	}
	return 0
}

// Save stores the offset under a fresh signature and commits it to the
// backing medium. A failure here means calibration durability is gone;
// the caller escalates, it is never retried.
func (s *Store) Save(offset uint16) error {
	return s.write(offset)
}

// CurrentSignature reads the signature word as stored, without
// normalizing. Zero means no readable record.
func (s *Store) CurrentSignature() uint32 {
	b, err := os.ReadFile(s.path)
	if err != nil || len(b) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b[0:4])
}

func (s *Store) write(offset uint16) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	var rec [recordSize]byte
	binary.LittleEndian.PutUint32(rec[0:4], Signature)
	binary.LittleEndian.PutUint16(rec[4:6], offset)

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(rec[:]); err != nil {
		_ = f.Close()
		return err
	}
	// The commit: data must hit the medium before Save returns.
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
