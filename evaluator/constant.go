package evaluator

import (
	"go/constant"
	"math"

	"github.com/podhmo/go-protected/expr"
	"github.com/podhmo/go-protected/metadata"
)

// numeric ranks follow the binary numeric promotion of the host language:
// every integral type narrower than int is promoted to int.
const (
	rankNone = iota
	rankInt
	rankUInt
	rankLong
	rankULong
	rankFloat
	rankDouble
)

var ranks = map[string]int{
	metadata.Char.Name:   rankInt,
	metadata.SByte.Name:  rankInt,
	metadata.Byte.Name:   rankInt,
	metadata.Short.Name:  rankInt,
	metadata.UShort.Name: rankInt,
	metadata.Int.Name:    rankInt,
	metadata.UInt.Name:   rankUInt,
	metadata.Long.Name:   rankLong,
	metadata.ULong.Name:  rankULong,
	metadata.Float.Name:  rankFloat,
	metadata.Double.Name: rankDouble,
}

var rankTypes = map[int]metadata.TypeRef{
	rankInt:    metadata.Int,
	rankUInt:   metadata.UInt,
	rankLong:   metadata.Long,
	rankULong:  metadata.ULong,
	rankFloat:  metadata.Float,
	rankDouble: metadata.Double,
}

func rankOf(t metadata.TypeRef) int { return ranks[t.Name] }

func isIntegral(t metadata.TypeRef) bool {
	r := rankOf(t)
	return r != rankNone && r < rankFloat
}

// promote returns the common type of a binary numeric operation.
func promote(a, b metadata.TypeRef) (metadata.TypeRef, bool) {
	ra, rb := rankOf(a), rankOf(b)
	if ra == rankNone || rb == rankNone {
		return metadata.TypeRef{}, false
	}
	if (ra == rankInt && rb == rankUInt) || (ra == rankUInt && rb == rankInt) {
		return metadata.Long, true
	}
	return rankTypes[max(ra, rb)], true
}

// toValue converts the Go value held by a constant leaf.
func toValue(c *expr.Constant) (constant.Value, bool) {
	switch v := c.Value.(type) {
	case bool:
		return constant.MakeBool(v), true
	case string:
		return constant.MakeString(v), true
	case int:
		return constant.MakeInt64(int64(v)), true
	case int8:
		return constant.MakeInt64(int64(v)), true
	case int16:
		return constant.MakeInt64(int64(v)), true
	case int32:
		return constant.MakeInt64(int64(v)), true
	case int64:
		return constant.MakeInt64(v), true
	case uint:
		return constant.MakeUint64(uint64(v)), true
	case uint8:
		return constant.MakeUint64(uint64(v)), true
	case uint16:
		return constant.MakeUint64(uint64(v)), true
	case uint32:
		return constant.MakeUint64(uint64(v)), true
	case uint64:
		return constant.MakeUint64(v), true
	case float32:
		return constant.MakeFloat64(float64(v)), true
	case float64:
		return constant.MakeFloat64(v), true
	default:
		return constant.MakeUnknown(), false
	}
}

// fromValue builds a constant leaf of type t. It fails when v is not
// representable in t.
func fromValue(v constant.Value, t metadata.TypeRef) (*expr.Constant, bool) {
	switch t.Name {
	case metadata.Bool.Name:
		if v.Kind() != constant.Bool {
			return nil, false
		}
		return &expr.Constant{Value: constant.BoolVal(v), Type: t}, true
	case metadata.String.Name:
		if v.Kind() != constant.String {
			return nil, false
		}
		return &expr.Constant{Value: constant.StringVal(v), Type: t}, true
	case metadata.Float.Name, metadata.Double.Name:
		f := constant.ToFloat(v)
		if f.Kind() != constant.Float {
			return nil, false
		}
		if t.Name == metadata.Float.Name {
			x, _ := constant.Float32Val(f)
			if math.IsInf(float64(x), 0) {
				return nil, false
			}
			return &expr.Constant{Value: x, Type: t}, true
		}
		x, _ := constant.Float64Val(f)
		if math.IsInf(x, 0) {
			return nil, false
		}
		return &expr.Constant{Value: x, Type: t}, true
	case metadata.ULong.Name:
		i := constant.ToInt(v)
		if i.Kind() != constant.Int {
			return nil, false
		}
		u, exact := constant.Uint64Val(i)
		if !exact {
			return nil, false
		}
		return &expr.Constant{Value: u, Type: t}, true
	}

	if !isIntegral(t) {
		return nil, false
	}
	i := constant.ToInt(v)
	if i.Kind() != constant.Int {
		return nil, false
	}
	n, exact := constant.Int64Val(i)
	if !exact {
		return nil, false
	}
	var value any
	switch t.Name {
	case metadata.Int.Name:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, false
		}
		value = int(n)
	case metadata.Long.Name:
		value = n
	case metadata.UInt.Name:
		if n < 0 || n > math.MaxUint32 {
			return nil, false
		}
		value = uint32(n)
	case metadata.Short.Name:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, false
		}
		value = int16(n)
	case metadata.UShort.Name:
		if n < 0 || n > math.MaxUint16 {
			return nil, false
		}
		value = uint16(n)
	case metadata.SByte.Name:
		if n < math.MinInt8 || n > math.MaxInt8 {
			return nil, false
		}
		value = int8(n)
	case metadata.Byte.Name:
		if n < 0 || n > math.MaxUint8 {
			return nil, false
		}
		value = uint8(n)
	case metadata.Char.Name:
		if n < 0 || n > math.MaxUint16 {
			return nil, false
		}
		value = rune(n)
	default:
		return nil, false
	}
	return &expr.Constant{Value: value, Type: t}, true
}
