package serialization

import (
	"encoding/binary"
	"io"

	"github.com/VeriBlock/alt-integration-cpp-sub004/domain/pop/model/externalapi"
	"github.com/pkg/errors"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

// WriteElement writes the little endian representation of element to w.
func WriteElement(w io.Writer, element interface{}) error {
	var buf [8]byte
	switch e := element.(type) {
	case int32:
		binary.LittleEndian.PutUint32(buf[:4], uint32(e))
		return write(w, buf[:4])

	case uint16:
		binary.LittleEndian.PutUint16(buf[:2], e)
		return write(w, buf[:2])

	case uint32:
		binary.LittleEndian.PutUint32(buf[:4], e)
		return write(w, buf[:4])

	case int64:
		binary.LittleEndian.PutUint64(buf[:], uint64(e))
		return write(w, buf[:])

	case uint64:
		binary.LittleEndian.PutUint64(buf[:], e)
		return write(w, buf[:])

	case uint8:
		return write(w, []byte{e})

	case bool:
		if e {
			return write(w, []byte{0x01})
		}
		return write(w, []byte{0x00})

	case externalapi.DomainHash:
		return write(w, e[:])

	case *externalapi.DomainHash:
		return write(w, e[:])

	case []byte:
		binary.LittleEndian.PutUint64(buf[:], uint64(len(e)))
		err := write(w, buf[:])
		if err != nil {
			return err
		}
		return write(w, e)
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to WriteElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}

func write(w io.Writer, data []byte) error {
	_, err := w.Write(data)
	return errors.WithStack(err)
}
