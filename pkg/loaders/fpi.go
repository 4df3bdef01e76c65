package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/echo-render/echo/pkg/core"
	"github.com/echo-render/echo/pkg/renderer"
)

// fpiVersion is the only floating-point-image layout this codec speaks
const fpiVersion = 1

// WriteFPI serializes a render buffer's color layer in the lossless
// floating-point-image format: a version tag, the compact size, then each
// channel XOR-differenced against the previous pixel's and written as a
// variable-length quantity. Differencing makes slowly varying images
// nearly free to store.
func WriteFPI(w io.Writer, buffer *renderer.RenderBuffer) error {
	writer := bufio.NewWriter(w)

	if err := binary.Write(writer, binary.LittleEndian, uint32(fpiVersion)); err != nil {
		return err
	}

	size := buffer.Size()
	writeUvarint(writer, uint64(size.X))
	writeUvarint(writer, uint64(size.Y))

	var previous [4]uint32
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			color := buffer.GetColor(core.NewInt2(x, y))
			channels := [4]uint32{
				math.Float32bits(float32(color.X)),
				math.Float32bits(float32(color.Y)),
				math.Float32bits(float32(color.Z)),
				math.Float32bits(1),
			}

			for i, channel := range channels {
				writeUvarint(writer, uint64(channel^previous[i]))
				previous[i] = channel
			}
		}
	}

	return writer.Flush()
}

// ReadFPI deserializes a floating-point image into a fresh render buffer
func ReadFPI(r io.Reader) (*renderer.RenderBuffer, error) {
	reader := bufio.NewReader(r)

	var version uint32
	if err := binary.Read(reader, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != fpiVersion {
		return nil, fmt.Errorf("unsupported floating-point image version %d", version)
	}

	width, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, err
	}
	height, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, err
	}

	buffer := renderer.NewRenderBuffer(core.NewInt2(int(width), int(height)))

	var previous [4]uint32
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			var channels [4]uint32
			for i := range channels {
				difference, err := binary.ReadUvarint(reader)
				if err != nil {
					return nil, err
				}
				channels[i] = previous[i] ^ uint32(difference)
				previous[i] = channels[i]
			}

			color := core.NewVec3(
				float64(math.Float32frombits(channels[0])),
				float64(math.Float32frombits(channels[1])),
				float64(math.Float32frombits(channels[2])),
			)
			buffer.SetColor(core.NewInt2(x, y), color)
		}
	}

	return buffer, nil
}

// writeUvarint writes a variable-length quantity to the buffered writer
func writeUvarint(writer *bufio.Writer, value uint64) {
	var scratch [binary.MaxVarintLen64]byte
	length := binary.PutUvarint(scratch[:], value)
	writer.Write(scratch[:length])
}
