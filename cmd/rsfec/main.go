// Copyright 2024, The rsfec Authors, see LICENSE for details.

// Command rsfec encodes, decodes and benchmarks the GF(16) erasure code
// and exports its tables for other implementations.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/ejfat/rsfec"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootFlags struct {
	k       int
	t       int
	verbose bool

	log *zap.Logger
}

func main() {
	rf := &rootFlags{}
	err := newRootCmd(rf).Execute()
	rf.sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERR: %s\n", err.Error())
		os.Exit(1)
	}
}

func newRootCmd(rf *rootFlags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rsfec",
		Short: "Reed-Solomon erasure coding over GF(16)",
		Long: `rsfec encodes k data symbols into k+2t symbols and recovers the data
when up to 2t symbol positions are known to be lost.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().IntVar(&rf.k, "k", 8, "Data symbols")
	rootCmd.PersistentFlags().IntVar(&rf.t, "t", 3, "Erasure capacity is 2t")
	rootCmd.PersistentFlags().BoolVar(&rf.verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		newEncodeCmd(rf),
		newDecodeCmd(rf),
		newExportCmd(rf),
		newBenchCmd(rf),
	)
	return rootCmd
}

// logger returns the logger shared by all encoders of one command run.
func (rf *rootFlags) logger() *zap.Logger {
	if rf.log != nil {
		return rf.log
	}
	rf.log = zap.NewNop()
	if rf.verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			rf.log = l
		}
	}
	return rf.log
}

// sync flushes buffered log entries.
func (rf *rootFlags) sync() {
	if rf.log != nil {
		// Sync of a console sink fails with EINVAL on some platforms.
		_ = rf.log.Sync()
	}
}

func (rf *rootFlags) encoder(opts ...rsfec.Option) (rsfec.Encoder, error) {
	opts = append(opts, rsfec.WithLogger(rf.logger()))
	return rsfec.New(rf.k, rf.t, opts...)
}

// parseSymbols parses a comma separated list of field elements.
func parseSymbols(s string) ([]byte, error) {
	vals, err := parseInts(s)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v >= rsfec.FieldSize {
			return nil, errors.Wrapf(rsfec.ErrInvalidSymbol, "value %d at position %d", v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// parseInts parses a comma separated list of integers. Empty input is an
// empty list.
func parseInts(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, errors.Wrapf(err, "parse %q", f)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatSymbols(v []byte) string {
	s := make([]string, len(v))
	for i, x := range v {
		s[i] = strconv.Itoa(int(x))
	}
	return strings.Join(s, ",")
}

// toSize converts a size indication to bytes.
func toSize(size string) (uint64, error) {
	size = strings.ToUpper(strings.TrimSpace(size))
	firstLetter := strings.IndexFunc(size, unicode.IsLetter)
	if firstLetter == -1 {
		firstLetter = len(size)
	}

	bytesString, multiple := size[:firstLetter], size[firstLetter:]
	bytes, err := strconv.ParseUint(bytesString, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "unable to parse size")
	}

	switch multiple {
	case "G", "GIB":
		return bytes * 1 << 30, nil
	case "GB":
		return bytes * 1e9, nil
	case "M", "MIB":
		return bytes * 1 << 20, nil
	case "MB":
		return bytes * 1e6, nil
	case "K", "KIB":
		return bytes * 1 << 10, nil
	case "KB":
		return bytes * 1e3, nil
	case "B", "":
		return bytes, nil
	default:
		return 0, errors.Errorf("unknown size suffix: %v", multiple)
	}
}
