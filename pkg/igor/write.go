package igor

import (
	"encoding/binary"
	"io"
	"time"

	"emperror.dev/errors"
)

// Write emits the wave as a version 5 little-endian binary wave with
// float64 samples. Used to synthesize fixtures and by conversion tooling;
// acquisition metadata beyond name, note, units and x-scale is not
// preserved.
func Write(w io.Writer, wave *Wave) error {
	if len(wave.Name) > 31 {
		return errors.Errorf("wave name '%s' exceeds 31 bytes", wave.Name)
	}
	put := func(vals ...any) error {
		for _, v := range vals {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return errors.Wrap(err, "cannot write wave field")
			}
		}
		return nil
	}
	fixed := func(s string, size int) []byte {
		raw := make([]byte, size)
		copy(raw, s)
		return raw
	}

	creation := uint32(0)
	if !wave.CreationDate.IsZero() && wave.CreationDate.After(igorEpoch) {
		creation = uint32(wave.CreationDate.Sub(igorEpoch) / time.Second)
	}

	// BinHeader5
	if err := put(
		int16(5), int16(0),
		int32(320+8*len(wave.Data)),
		int32(0), int32(len(wave.Note)), int32(0),
		[4]int32{}, [4]int32{},
		int32(0), int32(0), int32(0),
	); err != nil {
		return err
	}
	// WaveHeader5
	if err := put(
		int32(0), creation, uint32(0),
		int32(len(wave.Data)), int16(ntFP64), int16(0),
	); err != nil {
		return err
	}
	if err := put(fixed("", 6), int16(0), fixed(wave.Name, 32), int32(0), int32(0)); err != nil {
		return err
	}
	dx := wave.DX
	if dx == 0 {
		dx = 1
	}
	if err := put(
		[4]int32{int32(len(wave.Data)), 0, 0, 0},
		[4]float64{dx, 1, 1, 1},
		[4]float64{wave.X0, 0, 0, 0},
		fixed(wave.DataUnits, 4), fixed(wave.XUnits, 4), fixed("", 12),
		int16(1), int16(0),
		float64(0), float64(0),
		int32(0), [4]int32{}, [4]int32{}, int32(0), [16]int32{},
		int16(0), int16(0), int16(0),
		uint8(0), uint8(0),
		int32(0), int32(0), int16(0), int16(0), int32(0), int32(0),
	); err != nil {
		return err
	}
	for _, v := range wave.Data {
		if err := put(v); err != nil {
			return err
		}
	}
	if wave.Note != "" {
		if _, err := w.Write([]byte(wave.Note)); err != nil {
			return errors.Wrap(err, "cannot write wave note")
		}
	}
	return nil
}
