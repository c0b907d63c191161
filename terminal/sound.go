package terminal

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/lguibr/arcade/game"
)

const sampleRate = beep.SampleRate(44100)

type tone struct {
	freq     float64
	duration time.Duration
}

// cueTones maps simulation cues to short sine blips. A cue with two tones
// plays them in sequence.
var cueTones = map[game.CueKind][]tone{
	game.CueHit:     {{880, 50 * time.Millisecond}},
	game.CueFiller:  {{660, 40 * time.Millisecond}},
	game.CueEscape:  {{220, 120 * time.Millisecond}},
	game.CueMiss:    {{330, 40 * time.Millisecond}},
	game.CueFire:    {{1320, 15 * time.Millisecond}},
	game.CueBomb:    {{110, 200 * time.Millisecond}},
	game.CueLock:    {{440, 30 * time.Millisecond}},
	game.CueClear:   {{523, 60 * time.Millisecond}, {784, 90 * time.Millisecond}},
	game.CueLevelUp: {{523, 60 * time.Millisecond}, {659, 60 * time.Millisecond}, {784, 120 * time.Millisecond}},
	game.CueQuiz:    {{600, 80 * time.Millisecond}},
	game.CueCorrect: {{784, 60 * time.Millisecond}, {1047, 100 * time.Millisecond}},
	game.CueWrong:   {{196, 150 * time.Millisecond}},
}

// Sound plays cue tones through the speaker. A Sound that failed to
// initialise stays silent.
type Sound struct {
	mu          sync.Mutex
	initialized bool
	volume      float64 // log2 gain, 0 is unchanged
	play        func(beep.Streamer)
}

func NewSound() *Sound {
	return &Sound{volume: -1, play: speaker.Play}
}

// Init opens the speaker with a 100ms buffer.
func (s *Sound) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

func (s *Sound) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	s.initialized = false
}

// Play queues the tones for every cue.
func (s *Sound) Play(cues []game.Cue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return
	}
	for _, c := range cues {
		if st := streamerFor(c.Kind, s.volume); st != nil {
			s.play(st)
		}
	}
}

// streamerFor builds the tone sequence for kind, or nil for silent cues.
func streamerFor(kind game.CueKind, volume float64) beep.Streamer {
	tones, ok := cueTones[kind]
	if !ok {
		return nil
	}
	parts := make([]beep.Streamer, 0, len(tones))
	for _, t := range tones {
		sine, err := generators.SineTone(sampleRate, t.freq)
		if err != nil {
			continue
		}
		parts = append(parts, beep.Take(sampleRate.N(t.duration), sine))
	}
	if len(parts) == 0 {
		return nil
	}
	return &effects.Volume{Streamer: beep.Seq(parts...), Base: 2, Volume: volume}
}
