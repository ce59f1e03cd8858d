// Copyright 2023+, Klaus Post, see LICENSE for details.

package main

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/ejfat/rsfec"
	"github.com/klauspost/cpuid/v2"
	"github.com/klauspost/reedsolomon"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const updateFreq = time.Second / 3

var spin = [...]byte{'|', '/', '-', '\\'}

const speedDivisor = float64(1 << 20)
const speedUnit = "MiB/s"
const sizeUint = "MiB"

type benchFlags struct {
	size     string
	duration time.Duration
	cpu      int
	cache    bool
	corrupt  int
	progress bool
	baseline bool
}

// shardCoder is the part of both codecs the benchmark drives.
type shardCoder struct {
	name        string
	parity      int
	encode      func(shards [][]byte) error
	reconstruct func(shards [][]byte) error
}

func newBenchCmd(rf *rootFlags) *cobra.Command {
	bf := &benchFlags{}
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure shard encode and reconstruct throughput",
		Long: `Measure shard encode and reconstruct throughput of the GF(16) code.
The same k and 2t are run through github.com/klauspost/reedsolomon as a
GF(2^8) baseline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.OutOrStdout(), rf, bf)
		},
	}
	cpus := cpuid.CPU.LogicalCores
	if cpus <= 0 {
		cpus = runtime.NumCPU()
	}
	cmd.Flags().StringVar(&bf.size, "size", "1MiB", "Size of each input block.")
	cmd.Flags().DurationVar(&bf.duration, "duration", 5*time.Second, "Minimum time to run each operation.")
	cmd.Flags().IntVar(&bf.cpu, "cpu", cpus, "Set maximum number of cores to use")
	cmd.Flags().BoolVar(&bf.cache, "cache", true, "Enable inversion cache")
	cmd.Flags().IntVar(&bf.corrupt, "corrupt", 0, "Corrupt 1 to n shards. 0 means up to 2t shards.")
	cmd.Flags().BoolVar(&bf.progress, "progress", true, "Display progress while running")
	cmd.Flags().BoolVar(&bf.baseline, "baseline", true, "Also run github.com/klauspost/reedsolomon")
	return cmd
}

func runBench(w io.Writer, rf *rootFlags, bf *benchFlags) error {
	sz, err := toSize(bf.size)
	if err != nil {
		return err
	}
	if sz == 0 || sz > math.MaxInt32 {
		return errors.Errorf("invalid block size %q", bf.size)
	}
	if bf.cpu <= 0 {
		return errors.Errorf("invalid cpu count %d", bf.cpu)
	}
	if bf.corrupt < 0 || bf.corrupt > 2*rf.t {
		return errors.Errorf("can corrupt at most %d shards, got %d", 2*rf.t, bf.corrupt)
	}
	runtime.GOMAXPROCS(bf.cpu)
	log := rf.logger()

	fmt.Fprintf(w, "CPU: %s, %d physical cores, %d logical cores, L1D %d bytes\n",
		cpuid.CPU.BrandName, cpuid.CPU.PhysicalCores, cpuid.CPU.LogicalCores, cpuid.CPU.Cache.L1D)

	each := (int(sz) + rf.k - 1) / rf.k
	enc, err := rsfec.New(rf.k, rf.t,
		rsfec.WithInversionCache(bf.cache),
		rsfec.WithMaxGoroutines(bf.cpu),
		rsfec.WithLogger(log))
	if err != nil {
		return err
	}
	coders := []shardCoder{{
		name:        "rsfec gf16",
		parity:      enc.ParitySymbols(),
		encode:      enc.EncodeShards,
		reconstruct: enc.ReconstructShards,
	}}

	if bf.baseline {
		base, err := reedsolomon.New(rf.k, 2*rf.t,
			reedsolomon.WithAutoGoroutines(each),
			reedsolomon.WithInversionCache(bf.cache))
		if err != nil {
			return errors.Wrap(err, "baseline encoder")
		}
		coders = append(coders, shardCoder{
			name:        "reedsolomon gf256",
			parity:      2 * rf.t,
			encode:      base.Encode,
			reconstruct: base.Reconstruct,
		})
	}

	fmt.Fprintf(w, "Benchmarking %d data and %d parity shards, each %d bytes using %d threads.\n\n",
		rf.k, 2*rf.t, each, bf.cpu)

	// Reduce GC overhead
	debug.SetGCPercent(25)
	for _, c := range coders {
		shards := reedsolomon.AllocAligned(rf.k+2*rf.t, each)
		for _, s := range shards[:rf.k] {
			fillRandom(s)
		}
		log.Debug("starting benchmark", zap.String("codec", c.name), zap.Int("shardSize", each))
		if err := benchmarkEncoding(w, c, shards, bf); err != nil {
			return err
		}
		if err := benchmarkDecoding(w, c, shards, bf); err != nil {
			return err
		}
	}
	return nil
}

func benchmarkEncoding(w io.Writer, c shardCoder, shards [][]byte, bf *benchFlags) error {
	start := time.Now()
	finished := int64(0)
	lastUpdate := start
	end := start.Add(bf.duration)
	spinIdx := 0
	for time.Now().Before(end) {
		if err := c.encode(shards); err != nil {
			return errors.Wrapf(err, "%s encode", c.name)
		}
		finished += int64(len(shards[0]) * len(shards))
		if bf.progress && time.Since(lastUpdate) > updateFreq {
			encMB := float64(finished) * (1 / speedDivisor)
			speed := encMB / (float64(time.Since(start)) / float64(time.Second))
			fmt.Fprintf(w, "\r %s Encoded: %.02f %s @%.02f %s.", string(spin[spinIdx]), encMB, sizeUint, speed, speedUnit)
			spinIdx = (spinIdx + 1) % len(spin)
			lastUpdate = time.Now()
		}
	}
	encMB := float64(finished) * (1 / speedDivisor)
	speed := encMB / (float64(time.Since(start)) / float64(time.Second))
	fmt.Fprintf(w, "\r * %s: encoded %.00f %s in %v. Speed: %.02f %s\n", c.name, encMB, sizeUint, time.Since(start).Round(time.Millisecond), speed, speedUnit)
	return nil
}

func benchmarkDecoding(w io.Writer, c shardCoder, shards [][]byte, bf *benchFlags) error {
	// Prepare
	if err := c.encode(shards); err != nil {
		return errors.Wrapf(err, "%s encode", c.name)
	}
	rng := rand.New(rand.NewSource(0))

	start := time.Now()
	finished := int64(0)
	lastUpdate := start
	end := start.Add(bf.duration)
	spinIdx := 0
	for time.Now().Before(end) {
		// Corrupt random number of shards up to what we can allow
		cor := bf.corrupt
		if cor == 0 {
			cor = 1 + rng.Intn(c.parity)
		}
		for cor > 0 {
			idx := rng.Intn(len(shards))
			if len(shards[idx]) > 0 {
				shards[idx] = shards[idx][:0]
				cor--
			}
		}
		if err := c.reconstruct(shards); err != nil {
			return errors.Wrapf(err, "%s reconstruct", c.name)
		}
		finished += int64(len(shards[0]) * len(shards))
		if bf.progress && time.Since(lastUpdate) > updateFreq {
			encMB := float64(finished) * (1 / speedDivisor)
			speed := encMB / (float64(time.Since(start)) / float64(time.Second))
			fmt.Fprintf(w, "\r %s Repaired: %.02f %s @%.02f %s.", string(spin[spinIdx]), encMB, sizeUint, speed, speedUnit)
			spinIdx = (spinIdx + 1) % len(spin)
			lastUpdate = time.Now()
		}
	}
	encMB := float64(finished) * (1 / speedDivisor)
	speed := encMB / (float64(time.Since(start)) / float64(time.Second))
	fmt.Fprintf(w, "\r * %s: repaired %.00f %s in %v. Speed: %.02f %s\n", c.name, encMB, sizeUint, time.Since(start).Round(time.Millisecond), speed, speedUnit)
	return nil
}

func fillRandom(p []byte) {
	for i := 0; i < len(p); i += 7 {
		val := rand.Int63()
		for j := 0; i+j < len(p) && j < 7; j++ {
			p[i+j] = byte(val)
			val >>= 8
		}
	}
}
