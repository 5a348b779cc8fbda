package parser

import (
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestDetectAndDecodeEmptyDefaultsUTF8(t *testing.T) {
	_, enc, err := DetectAndDecode(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc != "utf-8" {
		t.Errorf("got %q, want utf-8", enc)
	}
}

func TestDetectAndDecodeBOM(t *testing.T) {
	data := append(bomUTF8, []byte("name,amount\nacme,100\n")...)
	decoded, enc, err := DetectAndDecode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc != "utf-8-bom" {
		t.Errorf("got %q, want utf-8-bom", enc)
	}
	if string(decoded) != "name,amount\nacme,100\n" {
		t.Errorf("BOM should be stripped, got %q", decoded)
	}
}

func TestDetectAndDecodePlainUTF8(t *testing.T) {
	_, enc, err := DetectAndDecode([]byte("héllo,wörld\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc != "utf-8" {
		t.Errorf("got %q, want utf-8", enc)
	}
}

func TestDetectAndDecodeGBK(t *testing.T) {
	gbkBytes, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("客户,金额\n张三,100\n"))
	if err != nil {
		t.Fatalf("failed to construct GBK fixture: %v", err)
	}
	decoded, enc, err := DetectAndDecode(gbkBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc != "gb18030" && enc != "gbk" {
		t.Errorf("got %q, want gb18030 or gbk", enc)
	}
	if string(decoded) != "客户,金额\n张三,100\n" {
		t.Errorf("got %q", decoded)
	}
}

func TestDetectAndDecodeLatin1Fallback(t *testing.T) {
	// 0xFF is not valid standalone UTF-8, and falls outside every GB
	// variant's valid lead-byte range (0x81-0xFE), so it falls through to
	// the guaranteed-success Latin-1 decode.
	data := []byte{'c', 0xFF, 'f', 'e'}
	decoded, enc, err := DetectAndDecode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc != "latin-1" {
		t.Errorf("got %q, want latin-1", enc)
	}
	if string(decoded) != "cÿfe" {
		t.Errorf("got %q, want cÿfe", decoded)
	}
}
