package modbusaccess

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeReader struct {
	startAddr uint16
	registers []uint16
	err       error
}

func (f *fakeReader) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	bytes := make([]byte, 0, quantity*2)
	for i := uint16(0); i < quantity; i++ {
		bytes = binary.BigEndian.AppendUint16(bytes, f.registers[address-f.startAddr+i])
	}
	return bytes, nil
}

func floatRegisters(val float32) []uint16 {
	bits := math.Float32bits(val)
	return []uint16{uint16(bits >> 16), uint16(bits)}
}

func TestPollBlocks(t *testing.T) {

	registers := append(floatRegisters(1234.5), floatRegisters(-2)...)
	registers = append(registers, 7)
	reader := &fakeReader{startAddr: 100, registers: registers}

	double := func(s Scaler, val interface{}) interface{} {
		return val.(float64) * 2
	}

	blocks := []RegisterBlock{
		{
			Name:         "Floats",
			StartAddr:    100,
			NumRegisters: 4,
			Registers: map[string]Register{
				"A": {StartAddr: 100, DataType: FloatType},
				"B": {StartAddr: 102, DataType: FloatType, ScalingFunc: double},
			},
		},
		{
			Name:         "Ints",
			StartAddr:    104,
			NumRegisters: 1,
			Registers: map[string]Register{
				"C": {StartAddr: 104, DataType: Uint16Type},
			},
		},
	}

	metrics, err := PollBlocks(reader, nil, blocks)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 1234.5, metrics["A"])
	assert.Equal(t, -4.0, metrics["B"])
	assert.Equal(t, uint16(7), metrics["C"])
}

func TestPollBlockErrors(t *testing.T) {

	type subTest struct {
		name   string
		reader *fakeReader
		block  RegisterBlock
		errMsg string
	}

	subTests := []subTest{
		{
			name:   "Read failure",
			reader: &fakeReader{err: errors.New("timeout")},
			block:  RegisterBlock{Name: "X", StartAddr: 0, NumRegisters: 2},
			errMsg: "read block: timeout",
		},
		{
			name:   "Register before block",
			reader: &fakeReader{startAddr: 10, registers: floatRegisters(1)},
			block: RegisterBlock{Name: "X", StartAddr: 10, NumRegisters: 2, Registers: map[string]Register{
				"A": {StartAddr: 8, DataType: FloatType},
			}},
			errMsg: "preceeds block",
		},
		{
			name:   "Register after block",
			reader: &fakeReader{startAddr: 10, registers: floatRegisters(1)},
			block: RegisterBlock{Name: "X", StartAddr: 10, NumRegisters: 2, Registers: map[string]Register{
				"A": {StartAddr: 11, DataType: FloatType},
			}},
			errMsg: "exceeds block",
		},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			_, err := PollBlocks(subTest.reader, nil, []RegisterBlock{subTest.block})
			assert.ErrorContains(t, err, subTest.errMsg)
		})
	}
}
