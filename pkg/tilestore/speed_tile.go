package tilestore

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/lintang-b-s/osmlr-overlay/pkg/datastructure"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the speed tile protobuf:
//
//	message SpeedTile { repeated Subtile subtiles = 1; }
//	message Subtile {
//	  uint32 level = 1; uint32 index = 2; uint32 unitSize = 3; uint32 entrySize = 4;
//	  string description = 5; uint32 totalSegments = 10; uint32 subtileSegments = 11;
//	  uint32 startSegmentIndex = 12; repeated uint32 speeds = 20 [packed = true];
//	}
const (
	speedTileSubtilesField = 1

	subtileUnitSizeField          = 3
	subtileEntrySizeField         = 4
	subtileTotalSegmentsField     = 10
	subtileSubtileSegmentsField   = 11
	subtileStartSegmentIndexField = 12
	subtileSpeedsField            = 20
)

// DecodeSpeedTile decodes a speed tile, gunzipping it first when it starts with the gzip magic.
func DecodeSpeedTile(buf []byte) ([]datastructure.Subtile, error) {
	if len(buf) >= 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		buf, err = io.ReadAll(zr)
		if err != nil {
			return nil, err
		}
	}

	subtiles := []datastructure.Subtile{}
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		buf = buf[n:]

		if num == speedTileSubtilesField && typ == protowire.BytesType {
			msg, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			subtile, err := decodeSubtile(msg)
			if err != nil {
				return nil, err
			}
			subtiles = append(subtiles, subtile)
			buf = buf[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, buf)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		buf = buf[n:]
	}
	return subtiles, nil
}

func decodeSubtile(buf []byte) (datastructure.Subtile, error) {
	var subtile datastructure.Subtile
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return subtile, protowire.ParseError(n)
		}
		buf = buf[n:]

		switch {
		case num == subtileSpeedsField && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return subtile, protowire.ParseError(n)
			}
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return subtile, protowire.ParseError(m)
				}
				subtile.Speeds = append(subtile.Speeds, float64(v))
				packed = packed[m:]
			}
			buf = buf[n:]
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return subtile, protowire.ParseError(n)
			}
			if v > uint64(^uint32(0)) {
				return subtile, fmt.Errorf("speed tile field %d: value %d overflows uint32", num, v)
			}
			setSubtileField(&subtile, num, uint32(v))
			buf = buf[n:]
		default:
			n = protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return subtile, protowire.ParseError(n)
			}
			buf = buf[n:]
		}
	}
	return subtile, nil
}

func setSubtileField(subtile *datastructure.Subtile, num protowire.Number, v uint32) {
	switch num {
	case subtileUnitSizeField:
		subtile.UnitSize = v
	case subtileEntrySizeField:
		subtile.EntrySize = v
	case subtileTotalSegmentsField:
		subtile.TotalSegments = v
	case subtileSubtileSegmentsField:
		subtile.SubtileSegments = v
	case subtileStartSegmentIndexField:
		subtile.StartSegmentIndex = v
	case subtileSpeedsField:
		subtile.Speeds = append(subtile.Speeds, float64(v))
	}
}
