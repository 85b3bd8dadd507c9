package codec

import (
	"fmt"
	"github.com/ValentinKolb/recfs/lib/common"
	"github.com/ValentinKolb/recfs/lib/record"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger(common.LoggerCodec)

// Names of the available codecs
const (
	NameCBOR = "cbor"
	NameJSON = "json"
)

// ByName creates the codec with the given name
func ByName(name string) (IRecordCodec, error) {
	switch name {
	case NameCBOR:
		return NewCBORCodec(), nil
	case NameJSON:
		return NewJSONCodec(), nil
	default:
		return nil, common.NewError(common.RetCConfigError, fmt.Sprintf("invalid codec %s (expected one of: cbor, json)", name))
	}
}

// DecodeFile decodes the content of the stored file at path.
// Zero-length data fails with common.RetCDecodeEmpty, data the codec cannot
// parse into a record fails with common.RetCDecodeCorrupt wrapping the parse error.
func DecodeFile(c IRecordCodec, path string, data []byte) (record.Record, error) {
	if len(data) == 0 {
		log.Warningf("stored file is empty: %s", path)
		return nil, common.WrapError(common.RetCDecodeEmpty, common.ErrDecodeEmpty.Msg, path, nil)
	}

	r, err := c.Decode(data)
	if err == nil && r == nil {
		err = fmt.Errorf("top-level value is not a map")
	}
	if err != nil {
		log.Warningf("stored file is corrupt: %s (%v)", path, err)
		return nil, common.WrapError(common.RetCDecodeCorrupt, common.ErrDecodeCorrupt.Msg, path, err)
	}
	return r, nil
}
