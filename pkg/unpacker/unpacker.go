// Package unpacker reconstructs scripts compressed with the common
// p,a,c,k,e,d dictionary packer. Packed payloads hide the player setup
// code that the extractors pattern-match against.
package unpacker

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	marker = "eval(function(p,a,c,k,e,"

	// Scan bounds. The argument list follows the function body closely;
	// anything further away is not a packer invocation.
	maxArgGap     = 5000
	maxPayloadLen = 500000

	// Decoded scripts shorter than this are noise.
	minDecodedLen = 30

	alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// packedArgs holds the four textual arguments of a packer invocation.
type packedArgs struct {
	payload string
	radix   int
	count   int
	words   []string
}

// FindAndUnpackAll scans text for packer invocations and returns the
// reconstructed source of each one. Malformed occurrences are skipped;
// the scan never fails.
func FindAndUnpackAll(text string) []string {
	var results []string

	idx := 0
	for {
		pos := strings.Index(text[idx:], marker)
		if pos < 0 {
			break
		}
		idx += pos

		if args, ok := parseArgs(text, idx); ok {
			decoded := Unpack(args.payload, args.radix, args.count, args.words)
			if len(decoded) >= minDecodedLen {
				results = append(results, decoded)
			}
		}
		idx++
	}

	return results
}

// parseArgs extracts the packer arguments starting at the invocation
// marker: }('payload',radix,count,'w1|w2|...'.split('|'),...).
func parseArgs(text string, markerIdx int) (packedArgs, bool) {
	argStart := strings.Index(text[markerIdx:], "}('")
	if argStart < 0 || argStart > maxArgGap {
		return packedArgs{}, false
	}
	pos := markerIdx + argStart + 3

	payload, pos, ok := scanQuoted(text, pos, markerIdx+argStart+maxPayloadLen, true)
	if !ok {
		return packedArgs{}, false
	}

	pos++ // closing quote
	if pos < len(text) && text[pos] == ',' {
		pos++
	}

	radixStr, pos := scanUntilComma(text, pos)
	countStr, pos := scanUntilComma(text, pos)

	for pos < len(text) && (text[pos] == ' ' || text[pos] == '\'') {
		pos++
	}
	dict, _, ok := scanQuoted(text, pos, len(text), false)
	if !ok {
		return packedArgs{}, false
	}

	radix, err1 := strconv.Atoi(strings.TrimSpace(radixStr))
	count, err2 := strconv.Atoi(strings.TrimSpace(countStr))
	if err1 != nil || err2 != nil || radix < 2 || radix > len(alphabet) || count < 0 {
		return packedArgs{}, false
	}

	words := strings.Split(dict, "|")
	if len(words) == 0 {
		return packedArgs{}, false
	}

	return packedArgs{
		payload: unescapePayload(payload),
		radix:   radix,
		count:   count,
		words:   words,
	}, true
}

// scanQuoted reads a single-quoted literal starting at pos (after the
// opening quote). When keepEscapes is true, backslash sequences are kept
// verbatim; otherwise the escaped character is emitted bare.
func scanQuoted(text string, pos, limit int, keepEscapes bool) (string, int, bool) {
	var b strings.Builder
	for pos < len(text) && pos < limit {
		switch text[pos] {
		case '\\':
			if pos+1 >= len(text) {
				return "", pos, false
			}
			if keepEscapes {
				b.WriteByte(text[pos])
			}
			b.WriteByte(text[pos+1])
			pos += 2
		case '\'':
			return b.String(), pos, true
		default:
			b.WriteByte(text[pos])
			pos++
		}
	}
	return "", pos, false
}

func scanUntilComma(text string, pos int) (string, int) {
	var b strings.Builder
	for pos < len(text) && text[pos] != ',' {
		b.WriteByte(text[pos])
		pos++
	}
	if pos < len(text) {
		pos++ // skip comma
	}
	return b.String(), pos
}

func unescapePayload(s string) string {
	r := strings.NewReplacer(`\'`, "'", `\\`, `\`, `\n`, "\n", `\r`, "\r")
	return r.Replace(s)
}

// Unpack substitutes dictionary words back into the payload. Indices are
// processed from highest to lowest so longer encoded tokens are replaced
// before shorter ones that prefix them.
func Unpack(payload string, radix, count int, words []string) string {
	if count > len(words) {
		count = len(words)
	}
	for c := count - 1; c >= 0; c-- {
		if words[c] == "" {
			continue
		}
		token := encodeBaseN(c, radix)
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(token) + `\b`)
		if err != nil {
			continue
		}
		payload = re.ReplaceAllLiteralString(payload, words[c])
	}
	return payload
}

// encodeBaseN renders num in the packer's base-N alphabet (digits,
// lowercase, then uppercase), matching JavaScript's token encoding.
func encodeBaseN(num, base int) string {
	if num == 0 {
		return string(alphabet[0])
	}
	var res []byte
	for n := num; n > 0; n /= base {
		res = append([]byte{alphabet[n%base]}, res...)
	}
	return string(res)
}
