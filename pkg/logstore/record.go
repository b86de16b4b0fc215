package logstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"
)

// opType represents the type of log operation
type opType byte

const (
	// opPut represents a version record write
	opPut opType = 1

	// opDelete represents a version record deletion
	opDelete opType = 2
)

const (
	// recordHeaderSize is the fixed size of the record header
	// Layout: Seq(8) + OpType(1) + Reserved(7) + KeyLen(4) + ValLen(4) + Timestamp(8)
	recordHeaderSize = 32

	// maxKeyLen bounds the key length accepted by decode
	maxKeyLen = 1 << 16

	// maxValueLen bounds the value length accepted by decode
	maxValueLen = 1 << 28
)

// record represents a single framed log record
type record struct {
	Seq       uint64    // Sequence number (monotonically increasing)
	Op        opType    // Operation type
	Key       []byte    // Record key (document ID and version ID)
	Value     []byte    // Encoded version record (for puts only)
	Timestamp time.Time // Record timestamp
}

// encode serializes the record to bytes with a CRC32 checksum
// Format: [Header(32)] [Key] [Value] [CRC32(4)]
func (r *record) encode() []byte {
	keyLen := len(r.Key)
	valLen := len(r.Value)
	totalSize := recordHeaderSize + keyLen + valLen + 4 // +4 for CRC32

	buf := make([]byte, totalSize)

	// Encode header
	binary.LittleEndian.PutUint64(buf[0:8], r.Seq)
	buf[8] = byte(r.Op)
	// bytes 9-15 are reserved (padding)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(keyLen))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(valLen))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(r.Timestamp.UnixNano()))

	// Encode key and value
	offset := recordHeaderSize
	copy(buf[offset:], r.Key)
	offset += keyLen
	copy(buf[offset:], r.Value)
	offset += valLen

	// Compute and append CRC32 checksum (excludes the CRC32 field itself)
	crc := crc32.ChecksumIEEE(buf[:offset])
	binary.LittleEndian.PutUint32(buf[offset:offset+4], crc)

	return buf
}

// decodeRecord deserializes a log record from bytes
func decodeRecord(data []byte) (*record, error) {
	if len(data) < recordHeaderSize+4 {
		return nil, ErrTruncated
	}

	// Verify CRC32 checksum
	dataLen := len(data)
	storedCRC := binary.LittleEndian.Uint32(data[dataLen-4:])
	computedCRC := crc32.ChecksumIEEE(data[:dataLen-4])
	if storedCRC != computedCRC {
		return nil, ErrCorrupted
	}

	rec := &record{
		Seq: binary.LittleEndian.Uint64(data[0:8]),
		Op:  opType(data[8]),
	}

	keyLen := binary.LittleEndian.Uint32(data[16:20])
	valLen := binary.LittleEndian.Uint32(data[20:24])
	timestamp := binary.LittleEndian.Uint64(data[24:32])
	rec.Timestamp = time.Unix(0, int64(timestamp))

	if keyLen > maxKeyLen || valLen > maxValueLen {
		return nil, ErrInvalidRecord
	}
	expectedSize := recordHeaderSize + int(keyLen) + int(valLen) + 4
	if len(data) < expectedSize {
		return nil, ErrTruncated
	}

	// Decode key and value
	offset := recordHeaderSize
	if keyLen > 0 {
		rec.Key = make([]byte, keyLen)
		copy(rec.Key, data[offset:offset+int(keyLen)])
		offset += int(keyLen)
	}

	if valLen > 0 {
		rec.Value = make([]byte, valLen)
		copy(rec.Value, data[offset:offset+int(valLen)])
	}

	return rec, nil
}

// size returns the encoded size of the record
func (r *record) size() int {
	return recordHeaderSize + len(r.Key) + len(r.Value) + 4
}

// String returns a human-readable representation of the record
func (r *record) String() string {
	opName := "UNKNOWN"
	switch r.Op {
	case opPut:
		opName = "PUT"
	case opDelete:
		opName = "DELETE"
	}
	return fmt.Sprintf("record[Seq=%d Op=%s KeyLen=%d ValLen=%d]",
		r.Seq, opName, len(r.Key), len(r.Value))
}

// recordKey builds the composite key for a version record. Document IDs
// never contain NUL, so a single separator byte keeps keys unambiguous.
func recordKey(documentID, versionID string) []byte {
	key := make([]byte, 0, len(documentID)+1+len(versionID))
	key = append(key, documentID...)
	key = append(key, 0)
	key = append(key, versionID...)
	return key
}

// splitKey is the inverse of recordKey
func splitKey(key []byte) (documentID, versionID string, err error) {
	sep := bytes.IndexByte(key, 0)
	if sep < 0 {
		return "", "", ErrInvalidRecord
	}
	return string(key[:sep]), string(key[sep+1:]), nil
}
