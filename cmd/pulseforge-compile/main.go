// Command pulseforge-compile reads a JSON schedule document, compiles it,
// samples every channel, and writes each channel's waveform as interleaved
// float32 I/Q to its own .iq file in the output directory.
package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/rfsynth/pulseforge"
	"github.com/rfsynth/pulseforge/internal/quantity"
	"github.com/rfsynth/pulseforge/internal/scheduleio"
)

func main() {
	var (
		inPath  = flag.String("file", "", "path to a JSON schedule document")
		outDir  = flag.String("out", ".", "output directory for per-channel .iq files")
		verbose = flag.Bool("v", false, "log per-channel pulse-list bin counts")
	)
	flag.Parse()

	if *inPath == "" {
		log.Fatal("missing -file")
	}

	data, err := os.ReadFile(*inPath)
	if err != nil {
		log.Fatal(err)
	}
	doc, err := scheduleio.Decode(data)
	if err != nil {
		log.Fatal(err)
	}

	baseFreq := make(map[pulseforge.ChannelID]quantity.Frequency, len(doc.Channels))
	for name, ch := range doc.Channels {
		f, err := quantity.NewFrequency(ch.BaseFreq)
		if err != nil {
			log.Fatalf("channel %s: %v", name, err)
		}
		baseFreq[pulseforge.ChannelID(name)] = f
	}

	opts := pulseforge.DefaultOptions()
	opts.AmpTolerance = doc.Options.AmpTolerance
	opts.TimeTolerance = doc.Options.TimeTolerance
	opts.AllowOversize = doc.Options.AllowOversize

	lists, err := pulseforge.Compile(doc.Root, baseFreq, opts)
	if err != nil {
		log.Fatal(err)
	}

	sampler := pulseforge.NewSampler(opts.TimeTolerance, opts.EnvelopeCacheCapacity)
	for name, ch := range doc.Channels {
		rate, err := quantity.NewFrequency(ch.SampleRate)
		if err != nil {
			log.Fatalf("channel %s: %v", name, err)
		}
		delay, err := quantity.NewTime(ch.Delay)
		if err != nil {
			log.Fatalf("channel %s: %v", name, err)
		}
		cfg := pulseforge.ChannelConfig{
			Length:     ch.Length,
			SampleRate: rate,
			Delay:      delay,
			AlignLevel: ch.AlignLevel,
		}
		if err := sampler.AddChannel(pulseforge.ChannelID(name), cfg); err != nil {
			log.Fatal(err)
		}
	}

	if *verbose {
		for name, list := range lists {
			fmt.Printf("channel %s: %d bins\n", name, len(list.Bins()))
		}
	}

	samples, err := sampler.Sample(context.Background(), lists)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatal(err)
	}
	for name, iq := range samples {
		path := filepath.Join(*outDir, string(name)+".iq")
		if err := writeIQ(path, iq); err != nil {
			log.Fatal(err)
		}
	}
}

func writeIQ(path string, samples []complex128) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	buf := make([]byte, 8)
	for _, s := range samples {
		binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(real(s))))
		binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(imag(s))))
		if _, err := f.Write(buf); err != nil {
			return err
		}
	}
	return nil
}
