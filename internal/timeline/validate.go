package timeline

import (
	"errors"
	"fmt"
	"math"
)

// The engine itself accepts any input. These checks are for callers that
// want to reject nonsensical edits before applying them.
var (
	ErrInvalidRange  = errors.New("end must not precede start")
	ErrNegativeStart = errors.New("start must not be negative")
	ErrSplitOutside  = errors.New("split time must lie inside the clip")
	ErrInvalidSpeed  = errors.New("speed must be positive")
	ErrInvalidEffect = errors.New("unknown effect type")
	ErrInvalidKind   = errors.New("unknown clip type")
	ErrNotFinite     = errors.New("value must be a finite number")
)

func finite(vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNotFinite
		}
	}
	return nil
}

func ValidateTrim(start, end float64) error {
	if err := finite(start, end); err != nil {
		return err
	}
	if start < 0 {
		return ErrNegativeStart
	}
	if end < start {
		return fmt.Errorf("%w: start=%g end=%g", ErrInvalidRange, start, end)
	}
	return nil
}

// ValidateSplit requires time to lie strictly inside the clip's span so both
// parts keep a positive length.
func ValidateSplit(c Clip, time float64) error {
	if err := finite(time); err != nil {
		return err
	}
	if time <= c.StartTime || time >= c.End() {
		return fmt.Errorf("%w: %g not in (%g, %g)", ErrSplitOutside, time, c.StartTime, c.End())
	}
	return nil
}

func ValidateSpeed(speed float64) error {
	if err := finite(speed); err != nil {
		return err
	}
	if speed <= 0 {
		return ErrInvalidSpeed
	}
	return nil
}

func ValidateEffect(fx Effect) error {
	if !ValidEffectKind(fx.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidEffect, fx.Type)
	}
	if err := finite(fx.Intensity, fx.StartTime, fx.EndTime); err != nil {
		return err
	}
	if fx.EndTime < fx.StartTime {
		return fmt.Errorf("%w: start=%g end=%g", ErrInvalidRange, fx.StartTime, fx.EndTime)
	}
	return nil
}

// ValidateClipSpeed rejects speeds that would stretch c beyond a finite
// length.
func ValidateClipSpeed(c Clip, speed float64) error {
	if err := ValidateSpeed(speed); err != nil {
		return err
	}
	if err := finite(c.Duration/speed, c.StartTime+c.Duration/speed); err != nil {
		return fmt.Errorf("%w: speed %g on a %gs clip", err, speed, c.Duration)
	}
	return nil
}

// ValidateMove rejects start times that would put the end of c out of range.
func ValidateMove(c Clip, start float64) error {
	if err := ValidateTrim(start, start); err != nil {
		return err
	}
	if err := finite(start + c.TrimmedDuration); err != nil {
		return fmt.Errorf("%w: clip would end past %g", err, start)
	}
	return nil
}

// ValidateClip checks a caller-built clip before it is placed.
func ValidateClip(c Clip) error {
	if !ValidClipKind(c.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidKind, c.Type)
	}
	if err := finite(c.Duration, c.TrimmedDuration); err != nil {
		return err
	}
	return ValidateTrim(c.StartTime, c.StartTime+c.TrimmedDuration)
}
