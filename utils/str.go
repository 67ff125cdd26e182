package utils

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

const (
	UTF8  = "UTF8"
	UTF_8 = "UTF-8"
)

// 代码页编号到IANA名称
var codePages = map[int]string{
	437:   "IBM437",
	850:   "IBM850",
	866:   "IBM866",
	874:   "windows-874",
	932:   "Shift_JIS",
	949:   "EUC-KR",
	950:   "Big5",
	65001: UTF_8,
}

// 根据cpg内容（如"UTF-8"、"GBK"、"1252"、"ANSI 1251"、"CP936"）获取文本编码
func LookupEncoding(cpg string) (enc encoding.Encoding, err error) {
	name := strings.TrimSpace(cpg)
	upper := strings.ToUpper(name)
	switch {
	case upper == "" || upper == UTF_8 || upper == UTF8:
		return unicode.UTF8, nil
	case upper == "GBK" || upper == "CP936" || upper == "936":
		return simplifiedchinese.GBK, nil
	case upper == "GB18030":
		return simplifiedchinese.GB18030, nil
	}
	upper = strings.TrimPrefix(strings.TrimPrefix(upper, "ANSI "), "CP")
	if n, e := strconv.Atoi(upper); e == nil {
		switch {
		case codePages[n] != "":
			name = codePages[n]
		case n >= 28591 && n <= 28605:
			name = fmt.Sprintf("ISO-8859-%d", n-28590)
		default:
			name = fmt.Sprintf("windows-%d", n)
		}
	}
	if enc, err = ianaindex.IANA.Encoding(name); err == nil && enc == nil {
		err = fmt.Errorf("unsupported encoding %s", cpg)
	}
	return
}

// 将按cpg编码的原始字节转为UTF-8
func DecodeText(raw string, enc encoding.Encoding) (string, error) {
	if enc == nil || enc == unicode.UTF8 {
		return PurifyForUtf8(raw), nil
	}
	if isASCII(raw) {
		return raw, nil
	}
	out, err := enc.NewDecoder().String(raw)
	if err != nil {
		return "", err
	}
	return PurifyForUtf8(out), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func PurifyForUtf8(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "")
}
