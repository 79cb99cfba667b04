package pager

import (
	"bytes"
	"encoding/binary"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// File layout:
//   - Header (64 bytes): magic(8), version(4), reserved(4), root(8),
//     freedBytes(8), records(8), xxhash64 of the preceding 40 bytes(8)
//   - Records, appended back to back: size(4), xxhash64(8), payload(size)
//
// An address packs the record offset in the high 40 bits and the payload size
// in the low 24 bits, so a record can be read with a single ReadAt.
const (
	HeaderSize       = 64
	RecordHeaderSize = 12
	MaxRecordSize    = 1<<sizeBits - 1

	sizeBits      = 24
	formatVersion = 1
)

var fileMagic = []byte("STRATUM\x01")

// FileStoreOptions configures OpenFileStore.
type FileStoreOptions struct {
	ReadOnly bool
	// SyncOnCommit fsyncs the records before and the header after each Commit.
	SyncOnCommit bool
	Logger       *zerolog.Logger
}

// FileStore is an append-only record log. Deleted records are only accounted
// for; their bytes stay in the file so older checkpoints remain readable.
type FileStore struct {
	file     *os.File
	filePath string
	readOnly bool
	syncMode bool
	end      int64 // append position
	root     Addr
	freed    uint64
	records  uint64
	log      zerolog.Logger
	mu       sync.RWMutex
}

// FileStoreStats describes the state of a FileStore.
type FileStoreStats struct {
	Path       string
	Size       int64
	Records    uint64
	FreedBytes uint64
	Root       Addr
}

// OpenFileStore opens or creates the record log at path.
func OpenFileStore(path string, opts FileStoreOptions) (*FileStore, error) {
	flag := os.O_RDWR | os.O_CREATE
	if opts.ReadOnly {
		flag = os.O_RDONLY
	}
	file, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open store file %s", path)
	}
	if err := lockFile(file, !opts.ReadOnly); err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "failed to lock store file %s", path)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "failed to stat store file")
	}

	s := &FileStore{
		file:     file,
		filePath: path,
		readOnly: opts.ReadOnly,
		syncMode: opts.SyncOnCommit,
		end:      stat.Size(),
		log:      zerolog.Nop(),
	}
	if opts.Logger != nil {
		s.log = opts.Logger.With().Str("component", "filestore").Str("path", path).Logger()
	}

	if stat.Size() == 0 {
		if opts.ReadOnly {
			file.Close()
			return nil, errors.Newf("store file %s is empty", path)
		}
		s.end = HeaderSize
		if err := s.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
		s.log.Info().Msg("created store file")
		return s, nil
	}

	if err := s.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	s.log.Info().Stringer("root", s.root).Int64("size", s.end).Msg("opened store file")
	return s, nil
}

func (s *FileStore) writeHeader() error {
	header := make([]byte, HeaderSize)
	copy(header[0:8], fileMagic)
	binary.LittleEndian.PutUint32(header[8:12], formatVersion)
	binary.LittleEndian.PutUint64(header[16:24], uint64(s.root))
	binary.LittleEndian.PutUint64(header[24:32], s.freed)
	binary.LittleEndian.PutUint64(header[32:40], s.records)
	binary.LittleEndian.PutUint64(header[40:48], xxhash.Sum64(header[0:40]))
	if _, err := s.file.WriteAt(header, 0); err != nil {
		return errors.Wrap(err, "failed to write store header")
	}
	return nil
}

func (s *FileStore) readHeader() error {
	header := make([]byte, HeaderSize)
	if _, err := s.file.ReadAt(header, 0); err != nil {
		return errors.Wrap(err, "failed to read store header")
	}
	if !bytes.Equal(header[0:8], fileMagic) {
		return errors.Newf("%s is not a store file", s.filePath)
	}
	if v := binary.LittleEndian.Uint32(header[8:12]); v != formatVersion {
		return errors.Newf("unsupported store format version %d", v)
	}
	if binary.LittleEndian.Uint64(header[40:48]) != xxhash.Sum64(header[0:40]) {
		return errors.Wrap(ErrChecksum, "store header")
	}
	s.root = Addr(binary.LittleEndian.Uint64(header[16:24]))
	s.freed = binary.LittleEndian.Uint64(header[24:32])
	s.records = binary.LittleEndian.Uint64(header[32:40])
	return nil
}

func makeAddr(offset int64, size int) Addr {
	return Addr(uint64(offset)<<sizeBits | uint64(size))
}

func splitAddr(a Addr) (offset int64, size int) {
	return int64(uint64(a) >> sizeBits), int(uint64(a) & MaxRecordSize)
}

func (s *FileStore) Write(data []byte) (Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return NullAddr, ErrClosed
	}
	if s.readOnly {
		return NullAddr, ErrReadOnly
	}
	if len(data) > MaxRecordSize {
		return NullAddr, errors.Wrapf(ErrRecordTooLarge, "%d bytes (max: %d)", len(data), MaxRecordSize)
	}

	buf := make([]byte, RecordHeaderSize+len(data))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(data)))
	binary.LittleEndian.PutUint64(buf[4:12], xxhash.Sum64(data))
	copy(buf[RecordHeaderSize:], data)

	offset := s.end
	if offset >= 1<<(64-sizeBits) {
		return NullAddr, errors.Newf("store file %s is full", s.filePath)
	}
	if _, err := s.file.WriteAt(buf, offset); err != nil {
		return NullAddr, errors.Wrapf(err, "failed to write record at offset %d", offset)
	}
	s.end += int64(len(buf))
	s.records++
	return makeAddr(offset, len(data)), nil
}

func (s *FileStore) Read(addr Addr) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.file == nil {
		return nil, ErrClosed
	}
	offset, size := splitAddr(addr)
	if addr == NullAddr || offset < HeaderSize || offset+RecordHeaderSize+int64(size) > s.end {
		return nil, errors.Wrapf(ErrNotFound, "address %s", addr)
	}

	buf := make([]byte, RecordHeaderSize+size)
	if _, err := s.file.ReadAt(buf, offset); err != nil {
		return nil, errors.Wrapf(err, "failed to read record %s", addr)
	}
	if got := int(binary.LittleEndian.Uint32(buf[0:4])); got != size {
		return nil, errors.Wrapf(ErrNotFound, "address %s: record size %d", addr, got)
	}
	data := buf[RecordHeaderSize:]
	if binary.LittleEndian.Uint64(buf[4:12]) != xxhash.Sum64(data) {
		return nil, errors.Wrapf(ErrChecksum, "record %s", addr)
	}
	return data, nil
}

// Delete only accounts for the released bytes.
func (s *FileStore) Delete(addr Addr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	offset, size := splitAddr(addr)
	if addr == NullAddr || offset < HeaderSize || offset+RecordHeaderSize+int64(size) > s.end {
		return errors.Wrapf(ErrNotFound, "delete of address %s", addr)
	}
	s.freed += uint64(RecordHeaderSize + size)
	return nil
}

func (s *FileStore) Commit(root Addr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ErrClosed
	}
	if s.readOnly {
		return ErrReadOnly
	}
	if s.syncMode {
		if err := s.file.Sync(); err != nil {
			return errors.Wrap(err, "failed to sync records before commit")
		}
	}
	prev := s.root
	s.root = root
	if err := s.writeHeader(); err != nil {
		s.root = prev
		return err
	}
	if s.syncMode {
		if err := s.file.Sync(); err != nil {
			return errors.Wrap(err, "failed to sync header")
		}
	}
	s.log.Debug().Stringer("root", root).Msg("committed root block")
	return nil
}

func (s *FileStore) Root() Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

func (s *FileStore) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return ErrClosed
	}
	if s.readOnly {
		return nil
	}
	return s.file.Sync()
}

// Close syncs a writable store and releases the file lock.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil // Already closed
	}

	var syncErr error
	if !s.readOnly {
		syncErr = s.file.Sync()
	}
	_ = unlockFile(s.file)
	err := s.file.Close()
	s.file = nil
	if syncErr != nil {
		return errors.Wrap(syncErr, "failed to sync before close")
	}
	return err
}

func (s *FileStore) Stats() FileStoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return FileStoreStats{
		Path:       s.filePath,
		Size:       s.end,
		Records:    s.records,
		FreedBytes: s.freed,
		Root:       s.root,
	}
}
