package audio

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync/atomic"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// ringBufferSize is the number of pending frames the device callback may
// produce ahead of the consumer before frames start being dropped. At 20ms
// per frame this is ~2.5s of slack, enough to absorb scheduling jitter
// without an unbounded queue if ReadFrame stalls.
const ringBufferSize = 128

// frameSlot is one pre-allocated ring buffer cell.
type frameSlot struct {
	samples [FrameSamples]int16
}

// ringBuffer is a lock-free single-producer single-consumer ring buffer of
// fixed-size frames: atomic head/tail counters, no mutex on the hot
// audio-callback path.
type ringBuffer struct {
	slots     [ringBufferSize]frameSlot
	head      atomic.Uint64
	tail      atomic.Uint64
	dropCount atomic.Uint64
}

func (rb *ringBuffer) push(frame []int16) bool {
	head := rb.head.Load()
	tail := rb.tail.Load()
	if head-tail >= ringBufferSize {
		count := rb.dropCount.Add(1)
		if count%100 == 0 {
			log.Printf("audio: ring buffer full, dropped %d frames", count)
		}
		return false
	}
	copy(rb.slots[head%ringBufferSize].samples[:], frame)
	rb.head.Add(1)
	return true
}

func (rb *ringBuffer) pop() (Frame, bool) {
	head := rb.head.Load()
	tail := rb.tail.Load()
	if head == tail {
		return nil, false
	}
	slot := &rb.slots[tail%ringBufferSize]
	frame := make(Frame, FrameSamples)
	copy(frame, slot.samples[:])
	rb.tail.Add(1)
	return frame, true
}

// MalgoSource captures 16kHz mono S16LE audio from the configured input
// device using malgo. malgo's Data callback runs on the audio thread and
// must never block, so it only copies bytes into the lock-free ring
// buffer; ReadFrame is the blocking consumer side the capture loop drives.
type MalgoSource struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	ring   *ringBuffer
	ready  chan struct{} // signaled whenever the ring buffer transitions empty->non-empty

	partial   []int16 // samples accumulated toward the next full frame, audio-thread only
	resampler *resampler
	closed    atomic.Bool
}

// NewMalgoSource opens the named capture device (or the system default if
// deviceName is empty) at the fixed sample rate in S16 mono mode.
func NewMalgoSource(deviceName string) (*MalgoSource, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: init context: %w", err)
	}

	s := &MalgoSource{
		ctx:   ctx,
		ring:  &ringBuffer{},
		ready: make(chan struct{}, 1),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = SampleRate
	deviceConfig.PeriodSizeInMilliseconds = FrameMs

	if deviceName != "" {
		id := deviceIDFromName(ctx, deviceName)
		deviceConfig.Capture.DeviceID = unsafe.Pointer(&id)
	}

	// Query actual device rate before committing to a device; some hardware
	// ignores the requested SampleRate entirely.
	probe, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("audio: probe capture device: %w", err)
	}
	actualRate := probe.SampleRate()
	probe.Uninit()

	if actualRate != SampleRate {
		log.Printf("audio: capture device runs at %dHz, resampling to %dHz", actualRate, SampleRate)
		s.resampler = newResampler(int(actualRate), SampleRate)
	}

	callbacks := malgo.DeviceCallbacks{
		Data: s.onSamples,
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("audio: init device: %w", err)
	}
	s.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("audio: start device: %w", err)
	}

	return s, nil
}

// onSamples runs on malgo's audio thread; it must never block. Bytes are
// decoded into int16 samples and accumulated until a full FrameSamples
// frame is ready, then pushed into the ring buffer.
func (s *MalgoSource) onSamples(_, input []byte, _ uint32) {
	n := len(input) / 2
	decoded := make([]int16, n)
	for i := 0; i < n; i++ {
		decoded[i] = int16(binary.LittleEndian.Uint16(input[i*2:]))
	}
	if s.resampler != nil {
		decoded = s.resampler.resample(decoded)
	}
	s.partial = append(s.partial, decoded...)

	for len(s.partial) >= FrameSamples {
		s.ring.push(s.partial[:FrameSamples])
		s.partial = s.partial[FrameSamples:]

		select {
		case s.ready <- struct{}{}:
		default:
		}
	}
}

// ReadFrame blocks until the next full frame is available.
func (s *MalgoSource) ReadFrame() (Frame, error) {
	for {
		if frame, ok := s.ring.pop(); ok {
			return frame, nil
		}
		if s.closed.Load() {
			return nil, fmt.Errorf("audio: capture device closed")
		}
		<-s.ready
	}
}

// Close stops the capture device and releases the audio context.
func (s *MalgoSource) Close() error {
	s.closed.Store(true)
	select {
	case s.ready <- struct{}{}:
	default:
	}
	if s.device != nil {
		s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}
	if s.ctx != nil {
		_ = s.ctx.Uninit()
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}

// deviceIDFromName resolves a human-readable capture device name to a
// malgo device ID, falling back to the system default if no match is
// found. Matching by exact name keeps the configured device string
// (e.g. "plughw:0,0") meaningful without parsing ALSA hints ourselves.
func deviceIDFromName(ctx *malgo.AllocatedContext, name string) malgo.DeviceID {
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return malgo.DeviceID{}
	}
	for _, info := range infos {
		if info.Name() == name {
			return info.ID
		}
	}
	return malgo.DeviceID{}
}
