package lexer

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"
)

var errBadEscape = errors.New("invalid escape sequence")

// Unescape decodes the body of a string, char or template segment.
// extra lists additional characters that may be escaped literally (e.g. '{' in templates).
func Unescape(body, extra string) (string, error) {
	if !strings.Contains(body, `\`) {
		return body, nil
	}
	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", errBadEscape
		}
		switch e := body[i]; {
		case e == 'n':
			sb.WriteByte('\n')
		case e == 't':
			sb.WriteByte('\t')
		case e == 'r':
			sb.WriteByte('\r')
		case e == '0':
			sb.WriteByte(0)
		case e == '\\' || e == '"' || e == '\'':
			sb.WriteByte(e)
		case strings.IndexByte(extra, e) >= 0:
			sb.WriteByte(e)
		case e == 'x':
			if i+2 >= len(body) {
				return "", errBadEscape
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", errBadEscape
			}
			sb.WriteByte(byte(v))
			i += 2
		case e == 'u':
			if i+1 >= len(body) || body[i+1] != '{' {
				return "", errBadEscape
			}
			end := strings.IndexByte(body[i:], '}')
			if end < 0 {
				return "", errBadEscape
			}
			v, err := strconv.ParseUint(body[i+2:i+end], 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				return "", errBadEscape
			}
			sb.WriteRune(rune(v))
			i += end
		default:
			return "", errBadEscape
		}
	}
	return sb.String(), nil
}

// Quote renders s as a string literal that Unescape decodes back to s.
func Quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		case '\\', '"':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			if r < 0x20 || r == 0x7f {
				sb.WriteString(`\u{` + strconv.FormatInt(int64(r), 16) + `}`)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
