package launcher

import (
	"bytes"
	"os"
	"text/template"

	"github.com/wgpctl/wgpctl/internal/cuda"
)

// Script holds what run_wgp.sh needs to know.
type Script struct {
	Dir      string
	VenvDir  string
	Entry    string
	CUDAHome string
}

var scriptTemplate = template.Must(template.New("run_wgp.sh").Parse(`#!/usr/bin/env bash
# Launches WGP with the CUDA toolkit and its virtual environment.
{{- range .Exports}}
{{.Line}}
{{- end}}

cd {{printf "%q" .Dir}} || exit 1
source {{printf "%q" .Activate}}
exec python {{printf "%q" .Entry}} "$@"
`))

// Render returns the launcher script text.
func Render(s Script) ([]byte, error) {
	data := struct {
		Script
		Exports  []cuda.Export
		Activate string
	}{
		Script:   s,
		Exports:  cuda.Exports(s.CUDAHome),
		Activate: s.VenvDir + "/bin/activate",
	}
	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders s to path and marks it executable.
func Write(path string, s Script) error {
	data, err := Render(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o755); err != nil {
		return err
	}
	return os.Chmod(path, 0o755)
}
