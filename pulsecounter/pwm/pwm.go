// Package pwm computes the settings for the fixed-frequency test signal
// that is jumpered back into the counter input.
package pwm

import "errors"

const (
	// RP2040/RP2350 PWM uses a 16-bit counter + max ~256x divider, so
	// the slowest rate at 125 MHz is ~7.5 Hz.
	MinFrequencyHz = 8
	// The counter needs at least two ticks per period.
	MaxFrequencyHz = 62_500_000
)

var (
	errFrequencyRange  = errors.New("pwm: frequency out of range")
	errResolutionRange = errors.New("pwm: resolution must be 1-16 bits")
	errDutyRange       = errors.New("pwm: duty exceeds resolution")
)

// Slice is the part of a TinyGo PWM peripheral (machine.PWM0..PWM7) used
// once it is configured.
type Slice interface {
	Top() uint32
	Set(channel uint8, value uint32)
}

// Config describes the generated signal. Duty is expressed in
// 1/2^ResolutionBits steps, so Duty 100 at 9 bits is 100/512 high time.
type Config struct {
	FrequencyHz    uint64
	ResolutionBits uint8
	Duty           uint32
}

// DefaultConfig returns a 100 kHz signal at 100/512 duty.
func DefaultConfig() Config {
	return Config{
		FrequencyHz:    100_000,
		ResolutionBits: 9,
		Duty:           100,
	}
}

// Validate checks the configuration against the RP2 PWM limits.
func (c Config) Validate() error {
	if c.FrequencyHz < MinFrequencyHz || c.FrequencyHz > MaxFrequencyHz {
		return errFrequencyRange
	}
	if c.ResolutionBits < 1 || c.ResolutionBits > 16 {
		return errResolutionRange
	}
	if c.Duty > 1<<c.ResolutionBits {
		return errDutyRange
	}
	return nil
}

// Period returns the signal period in nanoseconds, as expected by
// machine.PWMConfig.
func (c Config) Period() uint64 {
	if c.FrequencyHz == 0 {
		return 0
	}
	return uint64(1e9) / c.FrequencyHz
}

// Level scales Duty to a peripheral whose counter wraps at top.
func (c Config) Level(top uint32) uint32 {
	return uint32(uint64(top) * uint64(c.Duty) >> c.ResolutionBits)
}

// Apply sets the duty level on channel ch of an already configured slice.
func (c Config) Apply(s Slice, ch uint8) {
	s.Set(ch, c.Level(s.Top()))
}
