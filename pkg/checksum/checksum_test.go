package checksum

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChecksum(t *testing.T) {
	digest, err := Checksum(strings.NewReader("Hello World!"), DigestMD5)
	if err != nil {
		t.Fatal(err)
	}
	if digest != "ed076287532e86365e841e92bfc50d8c" {
		t.Errorf("unexpected md5 '%s'", digest)
	}

	if _, err := Checksum(strings.NewReader("x"), DigestAlgorithm("crc7")); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestChecksumWriter(t *testing.T) {
	var dst bytes.Buffer
	cw := NewChecksumWriter([]DigestAlgorithm{DigestSHA256, DigestMD5, DigestBlake2b256}, &dst)
	if _, err := cw.Write([]byte("Hello World!")); err != nil {
		t.Fatal(err)
	}
	if err := cw.Close(); err != nil {
		t.Fatal(err)
	}

	if dst.String() != "Hello World!" {
		t.Errorf("passthrough mismatch: '%s'", dst.String())
	}
	results := cw.GetChecksums()
	if len(results) != 3 {
		t.Fatalf("expected 3 digests, got %d", len(results))
	}
	if results[DigestSHA256] != "7f83b1657ff1fc53b92dc18148a1d65dfc2d4b1fa3d677284addd200126d9069" {
		t.Errorf("unexpected sha256 '%s'", results[DigestSHA256])
	}
	if results[DigestMD5] != "ed076287532e86365e841e92bfc50d8c" {
		t.Errorf("unexpected md5 '%s'", results[DigestMD5])
	}
}

func TestDigestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(path, []byte("Hello World!"), 0o600); err != nil {
		t.Fatal(err)
	}
	results, err := DigestFile(path, []DigestAlgorithm{DigestMD5, DigestSHA512})
	if err != nil {
		t.Fatal(err)
	}
	if results[DigestMD5] != "ed076287532e86365e841e92bfc50d8c" {
		t.Errorf("unexpected md5 '%s'", results[DigestMD5])
	}
	if len(results[DigestSHA512]) != 128 {
		t.Errorf("unexpected sha512 length %d", len(results[DigestSHA512]))
	}
}
