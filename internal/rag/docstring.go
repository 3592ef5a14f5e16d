package rag

import (
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// DocString is a corpus metadata field. The corpus was loaded from mixed
// sources, so numbers such as editions or promulgation numbers are sometimes
// stored as BSON ints or doubles; they are rendered as text instead of failing
// the whole cursor decode. Null and missing values become "".
type DocString string

func (s DocString) String() string { return string(s) }

func (s *DocString) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*s = DocString(rv.StringValue())
	case bsontype.Int32:
		*s = DocString(strconv.FormatInt(int64(rv.Int32()), 10))
	case bsontype.Int64:
		*s = DocString(strconv.FormatInt(rv.Int64(), 10))
	case bsontype.Double:
		*s = DocString(strconv.FormatFloat(rv.Double(), 'f', -1, 64))
	case bsontype.Decimal128:
		*s = DocString(rv.Decimal128().String())
	case bsontype.Boolean:
		*s = DocString(strconv.FormatBool(rv.Boolean()))
	case bsontype.Null, bsontype.Undefined:
		*s = ""
	default:
		*s = DocString(rv.String())
	}
	return nil
}
