package metadata

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

type binaryReader struct {
	r *bufio.Reader
}

// newBinaryReader wraps the reader with buffered, big-endian helpers.
func newBinaryReader(reader io.Reader) *binaryReader {
	return &binaryReader{r: bufio.NewReader(reader)}
}

// ReadByte reads a single byte from the stream.
func (br *binaryReader) ReadByte() (byte, error) {
	b, err := br.r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("read byte: %w", err)
	}

	return b, nil
}

// ReadBool reads a single byte and treats non-zero as true.
func (br *binaryReader) ReadBool() (bool, error) {
	b, err := br.ReadByte()
	if err != nil {
		return false, err
	}

	return b != 0, nil
}

// ReadBytes reads an exact number of bytes from the stream.
func (br *binaryReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("read bytes: negative length %d", n)
	}

	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}

	if _, err := io.ReadFull(br.r, buf); err != nil {
		return nil, fmt.Errorf("read bytes: %w", err)
	}

	return buf, nil
}

// ReadUint16 reads a big-endian uint16 from the stream.
func (br *binaryReader) ReadUint16() (uint16, error) {
	buf, err := br.ReadBytes(2)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(buf), nil
}

// ReadInt32 reads a big-endian int32 from the stream.
func (br *binaryReader) ReadInt32() (int32, error) {
	buf, err := br.ReadBytes(4)
	if err != nil {
		return 0, err
	}

	return int32(binary.BigEndian.Uint32(buf)), nil
}

// ReadUint32 reads a big-endian uint32 from the stream.
func (br *binaryReader) ReadUint32() (uint32, error) {
	buf, err := br.ReadBytes(4)
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(buf), nil
}

// ReadInt64 reads a big-endian int64 from the stream.
func (br *binaryReader) ReadInt64() (int64, error) {
	buf, err := br.ReadBytes(8)
	if err != nil {
		return 0, err
	}

	return int64(binary.BigEndian.Uint64(buf)), nil
}

// ReadUTF reads a length-prefixed UTF-8 string (uint16 byte length).
func (br *binaryReader) ReadUTF() (string, error) {
	length, err := br.ReadUint16()
	if err != nil {
		return "", fmt.Errorf("read utf length: %w", err)
	}

	if length == 0 {
		return "", nil
	}

	buf, err := br.ReadBytes(int(length))
	if err != nil {
		return "", fmt.Errorf("read utf bytes: %w", err)
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("read utf: invalid encoding")
	}

	return string(buf), nil
}
