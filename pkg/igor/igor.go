package igor

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"math"
	"os"
	"time"

	"emperror.dev/errors"
)

// Binary wave numeric type flags as defined in Igor Technical Note #3.
const (
	ntComplex  = 0x01
	ntFP32     = 0x02
	ntFP64     = 0x04
	ntI8       = 0x08
	ntI16      = 0x10
	ntI32      = 0x20
	ntUnsigned = 0x40
)

// igor stores dates as seconds since 1904-01-01
var igorEpoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	ErrUnsupportedVersion = errors.New("unsupported igor binary wave version")
	ErrComplexWave        = errors.New("complex waves are not supported")
	ErrNotOneDimensional  = errors.New("wave is not one-dimensional")
)

// Wave is a single 1-D trace read from an Igor Pro binary wave (.ibw) file.
type Wave struct {
	BinVersion   int16
	Name         string
	Note         string
	Npnts        int
	DX           float64
	X0           float64
	Data         []float64
	DataUnits    string
	XUnits       string
	CreationDate time.Time
}

// SamplingRate returns the rate derived from the x-scale delta.
func (w *Wave) SamplingRate() float64 {
	if w.DX == 0 {
		return 0
	}
	return 1 / w.DX
}

// ReadFile reads a binary wave from the local filesystem.
func ReadFile(path string) (*Wave, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open igor file '%s'", path)
	}
	defer fp.Close()
	w, err := Read(fp)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read igor file '%s'", path)
	}
	return w, nil
}

// ReadFS reads a binary wave from fsys, typically a tar archive filesystem.
func ReadFS(fsys fs.FS, name string) (*Wave, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read igor file '%s'", name)
	}
	w, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse igor file '%s'", name)
	}
	return w, nil
}

// Read parses a binary wave stream. Supported bin versions are 2, 3 and 5,
// the ones produced by the acquisition setups this validator deals with.
// Byte order is detected from the version word.
func Read(r io.Reader) (*Wave, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read wave data")
	}
	if len(data) < 2 {
		return nil, errors.New("truncated wave: missing version word")
	}

	order, version, err := detectOrder(data)
	if err != nil {
		return nil, err
	}

	d := &decoder{buf: data, order: order}
	switch version {
	case 2, 3:
		return d.readV2(version)
	case 5:
		return d.readV5()
	default:
		return nil, errors.WithStack(ErrUnsupportedVersion)
	}
}

func detectOrder(data []byte) (binary.ByteOrder, int16, error) {
	le := int16(binary.LittleEndian.Uint16(data[0:2]))
	if isKnownVersion(le) {
		return binary.LittleEndian, le, nil
	}
	be := int16(binary.BigEndian.Uint16(data[0:2]))
	if isKnownVersion(be) {
		return binary.BigEndian, be, nil
	}
	return nil, 0, errors.Wrapf(ErrUnsupportedVersion, "version word 0x%04x", uint16(le))
}

func isKnownVersion(v int16) bool {
	switch v {
	case 1, 2, 3, 5:
		return true
	}
	return false
}

// decoder is a cursor over the raw file content.
type decoder struct {
	buf   []byte
	order binary.ByteOrder
	pos   int
	err   error
}

func (d *decoder) need(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.pos+n > len(d.buf) {
		d.err = errors.Errorf("truncated wave: need %d bytes at offset %d, have %d", n, d.pos, len(d.buf)-d.pos)
		return nil
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b
}

func (d *decoder) skip(n int) { d.need(n) }

func (d *decoder) u8() uint8 {
	b := d.need(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *decoder) i16() int16 {
	return int16(d.u16())
}

func (d *decoder) u16() uint16 {
	b := d.need(2)
	if b == nil {
		return 0
	}
	return d.order.Uint16(b)
}

func (d *decoder) i32() int32 {
	return int32(d.u32())
}

func (d *decoder) u32() uint32 {
	b := d.need(4)
	if b == nil {
		return 0
	}
	return d.order.Uint32(b)
}

func (d *decoder) f64() float64 {
	b := d.need(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(d.order.Uint64(b))
}

func (d *decoder) cstring(n int) string {
	b := d.need(n)
	if b == nil {
		return ""
	}
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		b = b[:idx]
	}
	return string(b)
}

// readV2 handles version 2 and 3 waves. They share the wave header layout,
// version 3 adds a dependency formula size to the bin header.
func (d *decoder) readV2(version int16) (*Wave, error) {
	// BinHeader2 / BinHeader3
	d.pos = 2
	wfmSize := d.i32()
	noteSize := d.i32()
	formulaSize := int32(0)
	if version == 3 {
		formulaSize = d.i32()
	}
	d.i32() // pictSize
	d.i16() // checksum
	_ = wfmSize

	// WaveHeader2
	waveType := d.i16()
	d.skip(4) // next
	name := d.cstring(20)
	d.skip(2 + 2 + 4) // whVersion, srcFldr, fileName
	dataUnits := d.cstring(4)
	xUnits := d.cstring(4)
	npnts := d.i32()
	d.skip(2) // aModified
	hsA := d.f64()
	hsB := d.f64()
	d.skip(2 + 2 + 2) // wModified, swModified, fsValid
	d.skip(8 + 8)     // topFullScale, botFullScale
	d.skip(1 + 1)     // useBits, kindBits
	d.skip(4 + 4)     // formula, depID
	creation := d.u32()
	d.skip(2) // wUnused
	d.skip(4) // modDate
	d.skip(4) // waveNoteH

	values, err := d.readNumeric(waveType, int(npnts))
	if err != nil {
		return nil, err
	}

	// 16 bytes of padding sit between the data and the trailing note
	d.skip(16)
	if formulaSize > 0 {
		d.skip(int(formulaSize))
	}
	note := d.trailingText(int(noteSize))
	if d.err != nil {
		return nil, d.err
	}

	return &Wave{
		BinVersion:   version,
		Name:         name,
		Note:         note,
		Npnts:        int(npnts),
		DX:           hsA,
		X0:           hsB,
		Data:         values,
		DataUnits:    dataUnits,
		XUnits:       xUnits,
		CreationDate: igorEpoch.Add(time.Duration(creation) * time.Second),
	}, nil
}

func (d *decoder) readV5() (*Wave, error) {
	// BinHeader5
	d.pos = 2
	d.i16() // checksum
	d.i32() // wfmSize
	formulaSize := d.i32()
	noteSize := d.i32()
	d.i32() // dataEUnitsSize
	for i := 0; i < 4; i++ {
		d.i32() // dimEUnitsSize
	}
	for i := 0; i < 4; i++ {
		d.i32() // dimLabelsSize
	}
	d.i32() // sIndicesSize
	d.i32() // optionsSize1
	d.i32() // optionsSize2

	// WaveHeader5
	d.skip(4) // next
	creation := d.u32()
	d.skip(4) // modDate
	npnts := d.i32()
	waveType := d.i16()
	d.skip(2) // dLock
	d.skip(6) // whpad1
	d.skip(2) // whVersion
	name := d.cstring(32)
	d.skip(4 + 4) // whpad2, dFolder
	var nDim [4]int32
	for i := range nDim {
		nDim[i] = d.i32()
	}
	var sfA, sfB [4]float64
	for i := range sfA {
		sfA[i] = d.f64()
	}
	for i := range sfB {
		sfB[i] = d.f64()
	}
	dataUnits := d.cstring(4)
	xUnits := d.cstring(4)
	d.skip(4 * 3)     // dimUnits rows 2..4
	d.skip(2 + 2)     // fsValid, whpad3
	d.skip(8 + 8)     // topFullScale, botFullScale
	d.skip(4)         // dataEUnits handle
	d.skip(4 * 4)     // dimEUnits handles
	d.skip(4 * 4)     // dimLabels handles
	d.skip(4)         // waveNoteH
	d.skip(16 * 4)    // whUnused
	d.skip(2 + 2 + 2) // aModified, wModified, swModified
	d.skip(1 + 1)     // useBits, kindBits
	d.skip(4 + 4)     // formula, depID
	d.skip(2 + 2)     // whpad4, srcFldr
	d.skip(4)         // fileName
	d.skip(4)         // sIndices
	if d.err != nil {
		return nil, d.err
	}

	for i := 1; i < 4; i++ {
		if nDim[i] > 1 {
			return nil, errors.Wrapf(ErrNotOneDimensional, "wave '%s' dims %v", name, nDim)
		}
	}

	values, err := d.readNumeric(waveType, int(npnts))
	if err != nil {
		return nil, err
	}

	if formulaSize > 0 {
		d.skip(int(formulaSize))
	}
	note := d.trailingText(int(noteSize))
	if d.err != nil {
		return nil, d.err
	}

	return &Wave{
		BinVersion:   5,
		Name:         name,
		Note:         note,
		Npnts:        int(npnts),
		DX:           sfA[0],
		X0:           sfB[0],
		Data:         values,
		DataUnits:    dataUnits,
		XUnits:       xUnits,
		CreationDate: igorEpoch.Add(time.Duration(creation) * time.Second),
	}, nil
}

func (d *decoder) readNumeric(waveType int16, npnts int) ([]float64, error) {
	if waveType&ntComplex != 0 {
		return nil, errors.WithStack(ErrComplexWave)
	}
	if npnts < 0 {
		return nil, errors.Errorf("invalid point count %d", npnts)
	}
	values := make([]float64, 0, npnts)
	unsigned := waveType&ntUnsigned != 0
	for i := 0; i < npnts; i++ {
		var v float64
		switch {
		case waveType&ntFP32 != 0:
			v = float64(math.Float32frombits(d.u32()))
		case waveType&ntFP64 != 0:
			v = d.f64()
		case waveType&ntI8 != 0:
			if unsigned {
				v = float64(d.u8())
			} else {
				v = float64(int8(d.u8()))
			}
		case waveType&ntI16 != 0:
			if unsigned {
				v = float64(d.u16())
			} else {
				v = float64(d.i16())
			}
		case waveType&ntI32 != 0:
			if unsigned {
				v = float64(d.u32())
			} else {
				v = float64(d.i32())
			}
		default:
			return nil, errors.Errorf("unsupported wave type 0x%02x", waveType)
		}
		if d.err != nil {
			return nil, d.err
		}
		values = append(values, v)
	}
	return values, nil
}

// trailingText reads a length-prefixed text block at the current position.
// Notes in the wild are occasionally shorter than the header promises, so a
// short read is clamped instead of rejected.
func (d *decoder) trailingText(size int) string {
	if size <= 0 || d.err != nil {
		return ""
	}
	if d.pos+size > len(d.buf) {
		size = len(d.buf) - d.pos
		if size <= 0 {
			return ""
		}
	}
	b := d.buf[d.pos : d.pos+size]
	d.pos += size
	return string(bytes.TrimRight(b, "\x00"))
}
