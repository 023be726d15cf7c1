package flash

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestFileDeviceCreatesErasedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")
	d, err := OpenFileDevice(path, 2, 64, 16)
	if err != nil {
		t.Fatalf("OpenFileDevice: %v", err)
	}
	defer d.Close()

	out := make([]byte, 64)
	if err := d.Read(0, out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !IsAllFF(out) {
		t.Fatalf("a freshly created image should be all-erased: %x", out)
	}
}

func TestFileDeviceWriteReadPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")
	d, err := OpenFileDevice(path, 2, 64, 16)
	if err != nil {
		t.Fatalf("OpenFileDevice: %v", err)
	}

	data := bytes.Repeat([]byte{0x5A}, 16)
	if err := d.Write(0, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	d2, err := OpenFileDevice(path, 2, 64, 16)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d2.Close()

	out := make([]byte, 16)
	if err := d2.Read(0, out); err != nil {
		t.Fatalf("read after reopen: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("got %x, want %x", out, data)
	}
}

func TestFileDeviceWriteRejectsUnerased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")
	d, err := OpenFileDevice(path, 1, 64, 16)
	if err != nil {
		t.Fatalf("OpenFileDevice: %v", err)
	}
	defer d.Close()

	data := bytes.Repeat([]byte{1}, 16)
	if err := d.Write(0, data); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := d.Write(0, data); err == nil {
		t.Fatal("writing over unerased bytes should fail")
	}
}

func TestFileDeviceEraseRestoresWritability(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")
	d, err := OpenFileDevice(path, 1, 64, 16)
	if err != nil {
		t.Fatalf("OpenFileDevice: %v", err)
	}
	defer d.Close()

	data := bytes.Repeat([]byte{1}, 16)
	if err := d.Write(0, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := d.Erase(0, 1); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if err := d.Write(0, data); err != nil {
		t.Fatalf("write after erase: %v", err)
	}
}

func TestOpenFileDeviceRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.img")
	d, err := OpenFileDevice(path, 1, 64, 16)
	if err != nil {
		t.Fatalf("OpenFileDevice: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := OpenFileDevice(path, 2, 64, 16); err == nil {
		t.Fatal("expected a sector-count mismatch against the existing image to fail")
	}
}
