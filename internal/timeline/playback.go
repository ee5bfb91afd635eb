package timeline

// Play starts the render-and-advance loop. The first step is taken
// immediately; later steps run on scheduled frames.
func (e *Engine) Play() {
	e.cancelFrame()
	e.state.IsPlaying = true
	e.emitState()
	e.advance()
	e.emit(EventPlay, nil)
}

func (e *Engine) Pause() {
	e.state.IsPlaying = false
	e.emitState()
	e.cancelFrame()
	e.emit(EventPause, nil)
}

func (e *Engine) TogglePlay() {
	if e.state.IsPlaying {
		e.Pause()
	} else {
		e.Play()
	}
}

// Playing reports whether the playback loop is active.
func (e *Engine) Playing() bool {
	return e.state.IsPlaying
}

// advance moves the cursor one logical frame of 1/fps seconds scaled by the
// playback rate. Elapsed wall-clock time is ignored. Reaching the end pauses
// and rewinds to 0.
func (e *Engine) advance() {
	e.renderStill()
	if !e.state.IsPlaying {
		return
	}

	next := e.state.CurrentTime + (1/float64(e.fps))*e.state.PlaybackRate
	if next >= e.state.Duration {
		e.Pause()
		e.state.CurrentTime = 0
		e.emitState()
		return
	}

	e.state.CurrentTime = next
	e.emitState()
	e.scheduleFrame()
}

func (e *Engine) scheduleFrame() {
	var h FrameHandle
	h = e.scheduler.RequestFrame(func() {
		// A frame cancelled after its timer fired, or superseded by a newer
		// Play, must not advance the cursor.
		if h == 0 || e.frame != h {
			return
		}
		e.frame = 0
		e.advance()
	})
	e.frame = h
}

func (e *Engine) cancelFrame() {
	if e.frame != 0 {
		e.scheduler.CancelFrame(e.frame)
		e.frame = 0
	}
}
