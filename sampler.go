package pulseforge

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rfsynth/pulseforge/internal/crosstalk"
	"github.com/rfsynth/pulseforge/internal/envelope"
	"github.com/rfsynth/pulseforge/internal/pulselist"
	"github.com/rfsynth/pulseforge/internal/quantity"
	"github.com/rfsynth/pulseforge/internal/render"
)

// ChannelConfig holds the per-channel rendering parameters a Sampler needs
// to turn a pulse list into a fixed-length complex sample buffer.
type ChannelConfig struct {
	Length     int
	SampleRate quantity.Frequency
	Delay      quantity.Time
	AlignLevel int
}

// Sampler renders compiled pulse lists into waveforms, one output channel at
// a time, optionally mixing channels through a crosstalk matrix first.
// Rendering channels is embarrassingly parallel; the phase recurrence that
// makes scheduling sequential has already been resolved by Compile.
type Sampler struct {
	configs       map[ChannelID]ChannelConfig
	crosstalk     *crosstalk.Matrix
	cache         *envelope.Cache
	timeTolerance float64
}

// NewSampler creates a Sampler with its own envelope cache. timeTolerance is
// reused for coalescing crosstalk-mixed contributions; cacheCapacity <= 0
// uses envelope.DefaultCapacity.
func NewSampler(timeTolerance float64, cacheCapacity int) *Sampler {
	return &Sampler{
		configs:       make(map[ChannelID]ChannelConfig),
		cache:         envelope.NewCache(cacheCapacity),
		timeTolerance: timeTolerance,
	}
}

// AddChannel registers (or replaces) an output channel's rendering config.
func (s *Sampler) AddChannel(id ChannelID, cfg ChannelConfig) error {
	if cfg.Length < 0 {
		return fmt.Errorf("%w: negative length for channel %s", ErrInvalidQuantity, id)
	}
	if cfg.SampleRate.Value() <= 0 {
		return fmt.Errorf("%w: non-positive sample rate for channel %s", ErrInvalidQuantity, id)
	}
	if cfg.AlignLevel < 0 {
		return fmt.Errorf("%w: negative align level for channel %s", ErrInvalidQuantity, id)
	}
	s.configs[id] = cfg
	return nil
}

// SetCrosstalk installs (or clears, with nil) a crosstalk matrix. When set,
// Sample mixes every registered channel's list through it before rendering.
func (s *Sampler) SetCrosstalk(m *crosstalk.Matrix) { s.crosstalk = m }

type channelResult struct {
	id      ChannelID
	samples []complex128
}

// Sample renders every registered channel's waveform. lists is the output
// of Compile; channels with no entry in lists are treated as carrying no
// pulses at all. Channels render concurrently via errgroup; the first failure
// on any channel cancels the rest and is returned wrapped with that
// channel's name (errors.Is still matches the underlying sentinel).
func (s *Sampler) Sample(ctx context.Context, lists map[ChannelID]pulselist.PulseList) (map[ChannelID][]complex128, error) {
	ids := make([]ChannelID, 0, len(s.configs))
	for id := range s.configs {
		ids = append(ids, id)
	}

	var strLists map[string]pulselist.PulseList
	if s.crosstalk != nil {
		strLists = make(map[string]pulselist.PulseList, len(lists))
		for id, l := range lists {
			strLists[string(id)] = l
		}
	}

	results := make([]channelResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			cfg := s.configs[id]
			list := lists[id]
			if s.crosstalk != nil {
				list = s.crosstalk.MixChannel(string(id), strLists, s.timeTolerance)
			}
			samples, err := render.SamplePulseList(list, cfg.Length, cfg.SampleRate, cfg.Delay, cfg.AlignLevel, s.cache)
			if err != nil {
				return fmt.Errorf("channel %s: %w", id, err)
			}
			results[i] = channelResult{id: id, samples: samples}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[ChannelID][]complex128, len(results))
	for _, r := range results {
		out[r.id] = r.samples
	}
	return out, nil
}
