package bmff

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

// tfxdUserType is the PIFF track fragment extended header (tfxd) box.
var tfxdUserType = uuid.MustParse("6d1d9b05-42d5-44e6-80e2-141daff757b2")

// testFragment returns styp + moof{mfhd, traf{tfhd, trun}}.
//
//	styp  0..16
//	moof 16..80  content 24
//	mfhd 24..40  content 32
//	traf 40..80  content 48
//	tfhd 48..64  content 56
//	trun 64..80  content 72
func testFragment() []byte {
	w := NewWriter(nil)
	w.WriteStyp([4]byte{'m', 's', 'd', 'h'}, 0, nil)
	w.StartBox(TypeMoof)
	w.WriteMfhd(1)
	w.StartBox(TypeTraf)
	w.WriteTfhd(TfhdDefaultBaseIsMoof, 1, TfhdFields{})
	w.WriteTrun(0, 0, nil)
	w.EndBox()
	w.EndBox()
	return w.Bytes()
}

func TestLocate_Nested(t *testing.T) {
	buf := testFragment()
	if len(buf) != 80 {
		t.Fatalf("fragment length = %d, want 80", len(buf))
	}
	b := NewBuffer(buf)

	tests := []struct {
		typ   BoxType
		start int
		want  int
	}{
		{TypeStyp, 0, 8},
		{TypeMoof, 0, 24},
		{TypeMfhd, 24, 32},
		{TypeTraf, 24, 48},
		{TypeTfhd, 48, 56},
		{TypeTrun, 48, 72},
	}
	for _, tt := range tests {
		got, err := b.Locate(tt.typ, tt.start)
		if err != nil {
			t.Errorf("Locate(%s, %d) error: %v", tt.typ, tt.start, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Locate(%s, %d) = %d, want %d", tt.typ, tt.start, got, tt.want)
		}
	}

	got, err := b.LocatePath(0, TypeMoof, TypeTraf, TypeTrun)
	if err != nil {
		t.Fatalf("LocatePath error: %v", err)
	}
	if got != 72 {
		t.Errorf("LocatePath = %d, want 72", got)
	}

	if got, err := Locate(buf, TypeMoof, 0); err != nil || got != 24 {
		t.Errorf("Locate(buf) = %d, %v; want 24, nil", got, err)
	}
}

func TestLocate_NotFound(t *testing.T) {
	buf := testFragment()

	_, err := Locate(buf, TypeMdat, 0)
	if !errors.Is(err, ErrBoxNotFound) {
		t.Errorf("absent box: got %v, want ErrBoxNotFound", err)
	}

	// tfhd sits inside traf; Locate does not descend.
	_, err = Locate(buf, TypeTfhd, 0)
	if !errors.Is(err, ErrBoxNotFound) {
		t.Errorf("box only nested deeper: got %v, want ErrBoxNotFound", err)
	}

	_, err = Locate(nil, TypeMoof, 0)
	if !errors.Is(err, ErrBoxNotFound) {
		t.Errorf("empty buffer: got %v, want ErrBoxNotFound", err)
	}
}

func TestLocate_ContentAtEnd(t *testing.T) {
	// A header-only box: the match would have its content at len(buf).
	w := NewWriter(nil)
	w.WriteFree(0)

	_, err := Locate(w.Bytes(), TypeFree, 0)
	if !errors.Is(err, ErrBoxNotFound) {
		t.Errorf("got %v, want ErrBoxNotFound", err)
	}
}

func TestLocate_SizePastEnd(t *testing.T) {
	buf := make([]byte, 20)
	be.PutUint32(buf[0:], 1000)
	copy(buf[4:], "free")

	_, err := Locate(buf, TypeMoof, 0)
	if !errors.Is(err, ErrBoxNotFound) {
		t.Errorf("got %v, want ErrBoxNotFound", err)
	}
}

func TestLocate_UUID(t *testing.T) {
	w := NewWriter(nil)
	w.WriteUUID(tfxdUserType, 1, 0, make([]byte, 16))
	w.WriteTfhd(0, 7, TfhdFields{})
	buf := w.Bytes()
	b := NewBuffer(buf)

	// header 8 + user type 16
	got, err := b.Locate(TypeUUID, 0)
	if err != nil {
		t.Fatalf("Locate(uuid) error: %v", err)
	}
	if got != 24 {
		t.Errorf("Locate(uuid) = %d, want 24", got)
	}

	h, err := b.Header(0)
	if err != nil {
		t.Fatalf("Header error: %v", err)
	}
	if h.UserType != tfxdUserType {
		t.Errorf("UserType = %s, want %s", h.UserType, tfxdUserType)
	}
	if h.End() != 44 {
		t.Errorf("End = %d, want 44", h.End())
	}

	// The uuid skip must not move the next sibling.
	got, err = b.Locate(TypeTfhd, 0)
	if err != nil {
		t.Fatalf("Locate(tfhd) error: %v", err)
	}
	if got != 52 {
		t.Errorf("Locate(tfhd) = %d, want 52", got)
	}
}

func TestLocate_Malformed(t *testing.T) {
	for _, size := range []uint32{0, 4, 7} {
		buf := make([]byte, 32)
		be.PutUint32(buf[0:], size)
		copy(buf[4:], "free")

		_, err := Locate(buf, TypeMoof, 0)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("size %d: got %v, want ErrMalformed", size, err)
		}
	}
}

func TestLocate_TruncatedUUID(t *testing.T) {
	buf := make([]byte, 12)
	be.PutUint32(buf[0:], 40)
	copy(buf[4:], "uuid")

	_, err := Locate(buf, TypeMoof, 0)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func TestBuffer_Bounds(t *testing.T) {
	b := NewBuffer([]byte{0, 0, 0, 42, 1})

	if v, err := b.Uint32At(0); err != nil || v != 42 {
		t.Errorf("Uint32At(0) = %d, %v; want 42, nil", v, err)
	}
	if _, err := b.Uint32At(2); !errors.Is(err, ErrTruncated) {
		t.Errorf("Uint32At(2): got %v, want ErrTruncated", err)
	}
	if _, err := b.Uint32At(-1); !errors.Is(err, ErrTruncated) {
		t.Errorf("Uint32At(-1): got %v, want ErrTruncated", err)
	}
	if p, err := b.Bytes(4, 1); err != nil || len(p) != 1 || p[0] != 1 {
		t.Errorf("Bytes(4, 1) = %v, %v", p, err)
	}
	if _, err := b.Bytes(4, 2); !errors.Is(err, ErrTruncated) {
		t.Errorf("Bytes(4, 2): got %v, want ErrTruncated", err)
	}
}

func TestBoxType_Code(t *testing.T) {
	if got := TypeMoof.Code(); got != 0x6d6f6f66 {
		t.Errorf("moof code = %#x, want 0x6d6f6f66", got)
	}
	if got := CodeOf(0x75756964); got != TypeUUID {
		t.Errorf("CodeOf(uuid) = %q, want %q", got, TypeUUID)
	}
	if got := TypeTrun.String(); got != "trun" {
		t.Errorf("String = %q, want trun", got)
	}
	if !IsFullBox(TypeTfhd) || IsFullBox(TypeTraf) {
		t.Error("IsFullBox misclassifies tfhd/traf")
	}
	if !IsContainerBox(TypeTraf) || IsContainerBox(TypeTrun) {
		t.Error("IsContainerBox misclassifies traf/trun")
	}
}
