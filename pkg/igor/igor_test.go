package igor

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ibwBuilder struct {
	buf   bytes.Buffer
	order binary.ByteOrder
}

func (b *ibwBuilder) put(vals ...any) {
	for _, v := range vals {
		if err := binary.Write(&b.buf, b.order, v); err != nil {
			panic(err)
		}
	}
}

func (b *ibwBuilder) putName(name string, size int) {
	raw := make([]byte, size)
	copy(raw, name)
	b.buf.Write(raw)
}

// buildV5 writes a minimal version 5 wave with float32 data and a note.
func buildV5(order binary.ByteOrder, name, note string, dx float64, data []float32) []byte {
	b := &ibwBuilder{order: order}
	// BinHeader5
	b.put(int16(5), int16(0))                                  // version, checksum
	b.put(int32(320 + 4*len(data)))                            // wfmSize
	b.put(int32(0), int32(len(note)), int32(0))                // formulaSize, noteSize, dataEUnitsSize
	b.put([4]int32{}, [4]int32{})                              // dimEUnitsSize, dimLabelsSize
	b.put(int32(0), int32(0), int32(0))                        // sIndicesSize, optionsSize1, optionsSize2
	// WaveHeader5
	b.put(int32(0), uint32(3600), uint32(0))                   // next, creationDate, modDate
	b.put(int32(len(data)), int16(ntFP32), int16(0))           // npnts, type, dLock
	b.buf.Write(make([]byte, 6))                               // whpad1
	b.put(int16(0))                                            // whVersion
	b.putName(name, 32)                                        // bname
	b.put(int32(0), int32(0))                                  // whpad2, dFolder
	b.put([4]int32{int32(len(data)), 0, 0, 0})                 // nDim
	b.put([4]float64{dx, 1, 1, 1})                             // sfA
	b.put([4]float64{0, 0, 0, 0})                              // sfB
	b.putName("V", 4)                                          // dataUnits
	b.putName("s", 4)                                          // dimUnits[0]
	b.buf.Write(make([]byte, 12))                              // dimUnits rows 2..4
	b.put(int16(1), int16(0))                                  // fsValid, whpad3
	b.put(float64(0), float64(0))                              // topFullScale, botFullScale
	b.put(int32(0))                                            // dataEUnits
	b.put([4]int32{}, [4]int32{})                              // dimEUnits, dimLabels
	b.put(int32(0))                                            // waveNoteH
	b.put([16]int32{})                                         // whUnused
	b.put(int16(0), int16(0), int16(0))                        // aModified, wModified, swModified
	b.put(uint8(0), uint8(0))                                  // useBits, kindBits
	b.put(int32(0), int32(0))                                  // formula, depID
	b.put(int16(0), int16(0))                                  // whpad4, srcFldr
	b.put(int32(0), int32(0))                                  // fileName, sIndices
	for _, v := range data {
		b.put(v)
	}
	b.buf.WriteString(note)
	return b.buf.Bytes()
}

// buildV2 writes a minimal version 2 wave with float64 data and a note.
func buildV2(order binary.ByteOrder, name, note string, dx float64, data []float64) []byte {
	b := &ibwBuilder{order: order}
	// BinHeader2
	b.put(int16(2))
	b.put(int32(110 + 8*len(data)))           // wfmSize
	b.put(int32(len(note)), int32(0))         // noteSize, pictSize
	b.put(int16(0))                           // checksum
	// WaveHeader2
	b.put(int16(ntFP64), int32(0))            // type, next
	b.putName(name, 20)                       // bname
	b.put(int16(0), int16(0), int32(0))       // whVersion, srcFldr, fileName
	b.putName("V", 4)                         // dataUnits
	b.putName("s", 4)                         // xUnits
	b.put(int32(len(data)), int16(0))         // npnts, aModified
	b.put(dx, float64(0))                     // hsA, hsB
	b.put(int16(0), int16(0), int16(1))       // wModified, swModified, fsValid
	b.put(float64(0), float64(0))             // topFullScale, botFullScale
	b.put(uint8(0), uint8(0))                 // useBits, kindBits
	b.put(int32(0), int32(0))                 // formula, depID
	b.put(uint32(0), [2]byte{})               // creationDate, wUnused
	b.put(uint32(0), int32(0))                // modDate, waveNoteH
	for _, v := range data {
		b.put(v)
	}
	b.buf.Write(make([]byte, 16)) // padding between data and note
	b.buf.WriteString(note)
	return b.buf.Bytes()
}

func TestReadV5(t *testing.T) {
	raw := buildV5(binary.LittleEndian, "ccs__IDdepol__42", "sweep 42 note", 0.0001, []float32{0.5, -1.25, 3})

	w, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, int16(5), w.BinVersion)
	assert.Equal(t, "ccs__IDdepol__42", w.Name)
	assert.Equal(t, "sweep 42 note", w.Note)
	assert.Equal(t, 3, w.Npnts)
	assert.InDelta(t, 0.0001, w.DX, 1e-12)
	assert.InDelta(t, 10000.0, w.SamplingRate(), 1e-6)
	assert.Equal(t, []float64{0.5, -1.25, 3}, w.Data)
	assert.Equal(t, "V", w.DataUnits)
	assert.Equal(t, "s", w.XUnits)
}

func TestReadV5BigEndian(t *testing.T) {
	raw := buildV5(binary.BigEndian, "stim__01", "", 0.00005, []float32{1, 2})

	w, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "stim__01", w.Name)
	assert.Equal(t, []float64{1, 2}, w.Data)
}

func TestReadV2(t *testing.T) {
	raw := buildV2(binary.LittleEndian, "oldwave", "converted by mies", 0.001, []float64{0.25, 0.75})

	w, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, int16(2), w.BinVersion)
	assert.Equal(t, "oldwave", w.Name)
	assert.Equal(t, "converted by mies", w.Note)
	assert.Equal(t, []float64{0.25, 0.75}, w.Data)
	assert.InDelta(t, 0.001, w.DX, 1e-12)
}

func TestReadNaNSurvives(t *testing.T) {
	raw := buildV2(binary.LittleEndian, "nanwave", "", 0.001, []float64{math.NaN()})

	w, err := Read(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, w.Data, 1)
	assert.True(t, math.IsNaN(w.Data[0]))
}

func TestReadRejectsComplex(t *testing.T) {
	raw := buildV5(binary.LittleEndian, "cplx", "", 0.001, nil)
	// type sits right after npnts in WaveHeader5 (offset 64+16)
	binary.LittleEndian.PutUint16(raw[64+16:], uint16(ntComplex|ntFP32))

	_, err := Read(bytes.NewReader(raw))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrComplexWave)
}

func TestReadUnknownVersion(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{0x2a, 0x2a, 0, 0}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	orig := &Wave{
		Name:      "ccs__IDrest__07",
		Note:      "acquisition note",
		DX:        0.00025,
		Data:      []float64{0.1, math.NaN(), -2.5},
		DataUnits: "V",
		XUnits:    "s",
	}
	if err := Write(&buf, orig); err != nil {
		t.Fatal(err)
	}

	w, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, orig.Name, w.Name)
	assert.Equal(t, orig.Note, w.Note)
	assert.InDelta(t, orig.DX, w.DX, 1e-15)
	assert.Equal(t, 3, w.Npnts)
	assert.Equal(t, orig.Data[0], w.Data[0])
	assert.True(t, math.IsNaN(w.Data[1]))
	assert.Equal(t, orig.Data[2], w.Data[2])
	assert.Equal(t, "V", w.DataUnits)
}

func TestReadTruncated(t *testing.T) {
	raw := buildV5(binary.LittleEndian, "cut", "", 0.001, []float32{1, 2, 3, 4})
	_, err := Read(bytes.NewReader(raw[:len(raw)-6]))
	require.Error(t, err)
}
