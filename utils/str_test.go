package utils

import (
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestLookupEncoding(t *testing.T) {
	for _, cpg := range []string{"", "UTF-8", "utf8", "65001", "GBK", "cp936", "GB18030", "1252", "ANSI 1251", "CP1250", "28591", "ISO-8859-1", "866"} {
		if enc, err := LookupEncoding(cpg); err != nil || enc == nil {
			t.Errorf("LookupEncoding(%q) = %v, %v", cpg, enc, err)
		}
	}
	if _, err := LookupEncoding("klingon"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDecodeText(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("黄河")
	if err != nil {
		t.Fatal(err)
	}
	enc, _ := LookupEncoding("GBK")
	if s, err := DecodeText(gbk, enc); err != nil || s != "黄河" {
		t.Fatalf("gbk = %q, %v", s, err)
	}
	cyr, err := charmap.Windows1251.NewEncoder().String("Москва")
	if err != nil {
		t.Fatal(err)
	}
	enc, _ = LookupEncoding("ANSI 1251")
	if s, err := DecodeText(cyr, enc); err != nil || s != "Москва" {
		t.Fatalf("cp1251 = %q, %v", s, err)
	}
	enc, _ = LookupEncoding("UTF-8")
	if s, _ := DecodeText("ab\x00c\xff", enc); s != "abc" {
		t.Fatalf("utf8 = %q", s)
	}
	if s, _ := DecodeText("plain", nil); s != "plain" {
		t.Fatalf("nil = %q", s)
	}
}
