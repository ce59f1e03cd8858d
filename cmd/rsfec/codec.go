package main

import (
	"fmt"
	"os"

	"github.com/ejfat/rsfec"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newEncodeCmd(rf *rootFlags) *cobra.Command {
	var (
		data       string
		polynomial bool
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode k data symbols into a codeword",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := rf.encoder()
			if err != nil {
				return err
			}
			symbols, err := parseSymbols(data)
			if err != nil {
				return err
			}
			var cw []byte
			if polynomial {
				cw, err = enc.EncodePolynomial(symbols)
			} else {
				cw, err = enc.Encode(symbols)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatSymbols(cw))
			return nil
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Comma separated data symbols")
	cmd.Flags().BoolVar(&polynomial, "polynomial", false, "Encode by polynomial division instead of the generator matrix")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func newDecodeCmd(rf *rootFlags) *cobra.Command {
	var (
		codeword  string
		erasures  string
		strategy  string
		inversion string
	)
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Recover the data symbols of a codeword with known erasures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []rsfec.Option
			switch strategy {
			case "deletion":
				opts = append(opts, rsfec.WithDecodeStrategy(rsfec.DecodeDeletion))
			case "substitution":
				opts = append(opts, rsfec.WithDecodeStrategy(rsfec.DecodeSubstitution))
			default:
				return errors.Errorf("unknown strategy %q", strategy)
			}
			switch inversion {
			case "adjugate":
				opts = append(opts, rsfec.WithInversion(rsfec.InversionAdjugate))
			case "gauss", "gauss-jordan":
				opts = append(opts, rsfec.WithInversion(rsfec.InversionGaussJordan))
			default:
				return errors.Errorf("unknown inversion %q", inversion)
			}
			enc, err := rf.encoder(opts...)
			if err != nil {
				return err
			}

			// Erased positions still need a placeholder symbol, such as 0.
			received, err := parseSymbols(codeword)
			if err != nil {
				return err
			}
			erased, err := parseInts(erasures)
			if err != nil {
				return err
			}
			data, err := enc.Decode(received, erased)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatSymbols(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&codeword, "codeword", "", "Comma separated received symbols")
	cmd.Flags().StringVar(&erasures, "erasures", "", "Comma separated erased positions")
	cmd.Flags().StringVar(&strategy, "strategy", "deletion", "Recovery matrix: deletion or substitution")
	cmd.Flags().StringVar(&inversion, "inversion", "adjugate", "Matrix inversion: adjugate or gauss")
	_ = cmd.MarkFlagRequired("codeword")
	return cmd
}

func newExportCmd(rf *rootFlags) *cobra.Command {
	var (
		format string
		pkg    string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the field tables and generator matrix as C or Go source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			mf, err := rsfec.ParseModelFormat(format)
			if err != nil {
				return err
			}
			enc, err := rf.encoder()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" {
				var f *os.File
				f, err = os.Create(out)
				if err != nil {
					return errors.Wrap(err, "create output")
				}
				defer func() {
					if cerr := f.Close(); err == nil && cerr != nil {
						err = errors.Wrap(cerr, "close output")
					}
				}()
				w = f
			}
			if mf == rsfec.ModelGo {
				return rsfec.WriteGoModel(w, enc, pkg)
			}
			return rsfec.WriteModel(w, enc, mf)
		},
	}
	cmd.Flags().StringVar(&format, "format", "c", "Output format: c or go")
	cmd.Flags().StringVar(&pkg, "package", "rsmodel", "Package name for Go output")
	cmd.Flags().StringVar(&out, "out", "", "Output file, stdout if empty")
	return cmd
}
