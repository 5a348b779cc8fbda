package parser

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// DetectAndDecode detects the encoding of the input data and returns the
// decoded UTF-8 bytes along with the detected encoding name. Candidates are
// probed in the fixed order documented for C3: UTF-8, UTF-8-BOM, GB18030,
// GBK, GB2312, Latin-1 — the first decoding that does not raise wins.
// Latin-1 never fails (every byte maps to a code point), so it is the
// terminal fallback rather than an error case.
func DetectAndDecode(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return data, "utf-8", nil
	}

	if bytes.HasPrefix(data, bomUTF8) {
		return data[3:], "utf-8-bom", nil
	}

	if utf8.Valid(data) {
		return data, "utf-8", nil
	}

	if decoded, ok := tryDecode(simplifiedchinese.GB18030, data); ok {
		return decoded, "gb18030", nil
	}

	if decoded, ok := tryDecode(simplifiedchinese.GBK, data); ok {
		return decoded, "gbk", nil
	}

	if decoded, ok := tryDecode(simplifiedchinese.HZGB2312, data); ok {
		return decoded, "gb2312", nil
	}

	return decodeLatin1(data), "latin-1", nil
}

// tryDecode runs one x/text simplified-Chinese encoding's decoder over data
// and accepts the result only when the full input decoded cleanly to valid
// UTF-8 — a partial or lossy decode is treated as a probe failure so the
// cascade falls through to the next candidate.
func tryDecode(enc encoding.Encoding, data []byte) ([]byte, bool) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, false
	}
	if !utf8.Valid(out) {
		return nil, false
	}
	// x/text substitutes U+FFFD for undecodable bytes instead of erroring.
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, false
	}
	return out, true
}

// decodeLatin1 converts Latin-1 (ISO 8859-1) bytes to UTF-8. Every byte in
// Latin-1 maps directly to the same Unicode code point, so this never
// fails — it is the guaranteed-success end of the probe cascade.
func decodeLatin1(data []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(data) * 2)
	for _, b := range data {
		if b < 0x80 {
			buf.WriteByte(b)
		} else {
			buf.WriteRune(rune(b))
		}
	}
	return buf.Bytes()
}
