package contentstream

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Serialize renders operations as content-stream syntax, one operation per line.
func Serialize(ops []Operation) []byte {
	if len(ops) == 0 {
		return nil
	}
	var buf bytes.Buffer
	for _, op := range ops {
		for i, operand := range op.Operands {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.Write(serializeOperand(operand))
		}
		if len(op.Operands) > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(op.Operator)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func serializeOperand(op Operand) []byte {
	switch v := op.(type) {
	case NumberOperand:
		return []byte(formatNumber(v.Value))
	case NameOperand:
		return escapeName(v.Value)
	case StringOperand:
		return escapeLiteralString(v.Value)
	case ArrayOperand:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, it := range v.Values {
			if i > 0 {
				buf.WriteByte(' ')
			}
			buf.Write(serializeOperand(it))
		}
		buf.WriteByte(']')
		return buf.Bytes()
	default:
		return []byte("null")
	}
}

// formatNumber avoids exponent notation, which content streams do not allow.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeName writes a name token, hex-escaping bytes that would end it or
// that fall outside the printable range.
func escapeName(name string) []byte {
	b := make([]byte, 0, len(name)+1)
	b = append(b, '/')
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch < '!' || ch > '~' || strings.IndexByte("#/%()<>[]{}", ch) >= 0 {
			b = append(b, '#', hexDigits[ch>>4], hexDigits[ch&0x0f])
			continue
		}
		b = append(b, ch)
	}
	return b
}

const hexDigits = "0123456789ABCDEF"

func escapeLiteralString(rawBytes []byte) []byte {
	var b bytes.Buffer
	b.WriteByte('(')
	for _, ch := range rawBytes {
		switch ch {
		case '\\', '(', ')':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		case '\b':
			b.WriteString("\\b")
		case '\f':
			b.WriteString("\\f")
		default:
			if ch < 0x20 || ch >= 0x80 {
				fmt.Fprintf(&b, "\\%03o", ch)
			} else {
				b.WriteByte(ch)
			}
		}
	}
	b.WriteByte(')')
	return b.Bytes()
}
