package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/colmeia-ooh/colmeia/internal/model"
)

// writeOutput encodes v as indented JSON or as YAML. YAML keys match the
// JSON field names.
func writeOutput(out io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		raw, err := json.Marshal(v)
		if err != nil {
			return eris.Wrap(err, "encode output")
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return eris.Wrap(err, "encode output")
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unknown output format %q (json or yaml)", format)
	}
}

func semanaPtr(set bool, semana int) *int {
	if !set {
		return nil
	}
	return &semana
}

func hexagonQuery(descPK int64, semanaSet bool, semana int) model.HexagonQuery {
	return model.HexagonQuery{DescPK: descPK, Semana: semanaPtr(semanaSet, semana)}
}
