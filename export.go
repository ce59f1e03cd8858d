// Copyright 2024, The rsfec Authors, see LICENSE for details.

package rsfec

import (
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// ModelFormat selects the output of WriteModel.
type ModelFormat int

const (
	// ModelC writes a C header with static const arrays.
	ModelC ModelFormat = iota
	// ModelGo writes Go source with package level arrays.
	ModelGo
)

// ErrInvalidFormat is returned by WriteModel for an unknown ModelFormat.
var ErrInvalidFormat = errors.New("unknown model format")

func (m ModelFormat) String() string {
	switch m {
	case ModelC:
		return "c"
	case ModelGo:
		return "go"
	}
	return "unknown"
}

// ParseModelFormat returns the format for "c" or "go".
func ParseModelFormat(s string) (ModelFormat, error) {
	switch strings.ToLower(s) {
	case "c", "h":
		return ModelC, nil
	case "go":
		return ModelGo, nil
	}
	return 0, errors.Wrapf(ErrInvalidFormat, "%q", s)
}

type modelData struct {
	Package       string
	Antilog       string
	Log           string
	DataSymbols   int
	ParitySymbols int
	TotalSymbols  int
	Rows          []string
}

var modelC = template.Must(template.New("c").Parse(
	` static const char _ejfat_rs_gf_log_seq[16] = { {{.Antilog}} };
 static const char _ejfat_rs_gf_exp_seq[16] = { {{.Log}} };


 static const int _ejfat_rs_n = {{.DataSymbols}}; // data words
 static const int _ejfat_rs_p = {{.ParitySymbols}}; // parity words
 static const int _ejfat_rs_k = {{.TotalSymbols}}; // message words = data+parity

 static const char _ejfat_rs_G[{{.DataSymbols}}][{{.TotalSymbols}}] = {
{{- range $i, $row := .Rows}}{{if $i}},{{end}}
    { {{- $row -}} }
{{- end}}
 };
`))

var modelGo = template.Must(template.New("go").Parse(
	`// Code generated by rsfec export. DO NOT EDIT.

package {{.Package}}

// GFAntilog[e] is alpha^e. The last entry terminates the sequence.
var GFAntilog = [16]byte{ {{- .Antilog -}} }

// GFLog[x] is the exponent of x. GFLog[0] is 15.
var GFLog = [16]byte{ {{- .Log -}} }

const (
	DataSymbols   = {{.DataSymbols}}
	ParitySymbols = {{.ParitySymbols}}
	TotalSymbols  = {{.TotalSymbols}}
)

// G is the systematic generator matrix.
var G = [{{.DataSymbols}}][{{.TotalSymbols}}]byte{
{{- range .Rows}}
	{ {{- .}}},
{{- end}}
}
`))

// WriteModel writes the field tables and the generator matrix of enc
// to w, so another implementation can be built from the same values.
func WriteModel(w io.Writer, enc Encoder, format ModelFormat) error {
	switch format {
	case ModelC:
		return writeModel(w, modelC, newModelData(enc, ""))
	case ModelGo:
		return WriteGoModel(w, enc, "rsmodel")
	}
	return errors.Wrapf(ErrInvalidFormat, "%d", int(format))
}

// WriteGoModel writes the model as Go source in package pkg.
func WriteGoModel(w io.Writer, enc Encoder, pkg string) error {
	if pkg == "" {
		pkg = "rsmodel"
	}
	return writeModel(w, modelGo, newModelData(enc, pkg))
}

func writeModel(w io.Writer, t *template.Template, d modelData) error {
	if err := t.Execute(w, d); err != nil {
		return errors.Wrapf(err, "write %s model", t.Name())
	}
	return nil
}

func newModelData(enc Encoder, pkg string) modelData {
	f := enc.Field()
	d := modelData{
		Package:       pkg,
		Antilog:       joinSymbols(f.seq[:]),
		Log:           joinSymbols(f.log[:]),
		DataSymbols:   enc.DataSymbols(),
		ParitySymbols: enc.ParitySymbols(),
		TotalSymbols:  enc.TotalSymbols(),
	}
	for _, row := range enc.GeneratorMatrix() {
		d.Rows = append(d.Rows, joinSymbols(row))
	}
	return d
}

func joinSymbols(v []byte) string {
	s := make([]string, len(v))
	for i, x := range v {
		s[i] = strconv.Itoa(int(x))
	}
	return strings.Join(s, ",")
}
