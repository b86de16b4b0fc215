package logstore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"
)

// segmentReader iterates records in a single segment file
type segmentReader struct {
	file *os.File
	buf  *bufio.Reader
}

func openSegmentReader(path string) (*segmentReader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &segmentReader{file: file, buf: bufio.NewReaderSize(file, 64<<10)}, nil
}

// next reads one record. It returns io.EOF at a clean end of file,
// ErrTruncated when the file ends inside a record, and ErrCorrupted on a
// checksum mismatch.
func (sr *segmentReader) next() (*record, error) {
	header := make([]byte, recordHeaderSize)
	if _, err := io.ReadFull(sr.buf, header); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, ErrTruncated
	}

	keyLen := binary.LittleEndian.Uint32(header[16:20])
	valLen := binary.LittleEndian.Uint32(header[20:24])
	if keyLen > maxKeyLen || valLen > maxValueLen {
		return nil, ErrInvalidRecord
	}

	data := make([]byte, recordHeaderSize+int(keyLen)+int(valLen)+4)
	copy(data, header)
	if _, err := io.ReadFull(sr.buf, data[recordHeaderSize:]); err != nil {
		return nil, ErrTruncated
	}

	return decodeRecord(data)
}

func (sr *segmentReader) close() error {
	return sr.file.Close()
}

// replayStats describes what a replay recovered
type replayStats struct {
	Records     int  // valid records applied
	DroppedTail bool // a torn or corrupted tail was discarded
	Segments    int  // segment files visited

	// LastSegmentValidBytes is the byte offset of the last valid record
	// boundary in the final segment, used to truncate a torn tail.
	LastSegmentValidBytes int64
}

// replaySegments streams every decodable record across the given segment
// files in order, invoking apply for each. A torn or corrupted tail in the
// last segment is dropped; the same damage in an earlier segment is an error
// because records after it would be silently lost.
func replaySegments(files []string, apply func(*record) error) (replayStats, error) {
	var stats replayStats

	for i, path := range files {
		sr, err := openSegmentReader(path)
		if err != nil {
			return stats, err
		}
		stats.Segments++
		last := i == len(files)-1
		if last {
			stats.LastSegmentValidBytes = 0
		}

		for {
			rec, err := sr.next()
			if err == io.EOF {
				break
			}
			if errors.Is(err, ErrTruncated) || errors.Is(err, ErrCorrupted) || errors.Is(err, ErrInvalidRecord) {
				sr.close()
				if last {
					stats.DroppedTail = true
					return stats, nil
				}
				return stats, err
			}
			if err != nil {
				sr.close()
				return stats, err
			}

			if err := apply(rec); err != nil {
				sr.close()
				return stats, err
			}
			stats.Records++
			if last {
				stats.LastSegmentValidBytes += int64(rec.size())
			}
		}

		if err := sr.close(); err != nil {
			return stats, err
		}
	}

	return stats, nil
}
