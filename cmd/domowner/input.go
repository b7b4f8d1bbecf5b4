// cmd/domowner/input.go
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"domowner/internal/core/domain"
)

// sampleRecord es el record de ejemplo de --sample.
const sampleRecord = `{"id":"org:github/azure","alias":"Azure","name":"azure",` +
	`"repoUrl":"https://github.com/azure/azure-cli.git","source":"github","type":"O",` +
	`"websiteUrl":"https://azure.com"}`

// readRecord lee el record de path ("" o "-" = stdin). Los archivos
// .yaml/.yml se decodifican como YAML; todo lo demás como JSON.
func readRecord(path string, stdin io.Reader, sample bool) (domain.Record, error) {
	if sample {
		return domain.ParseRecordJSON([]byte(sampleRecord))
	}

	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.Record{}, usageErr(fmt.Errorf("read record: %w", err))
	}

	var record domain.Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		record, err = domain.ParseRecordYAML(data)
	default:
		record, err = domain.ParseRecordJSON(data)
	}
	if err != nil {
		return domain.Record{}, err
	}
	if record.Len() == 0 {
		return domain.Record{}, domain.ErrEmptyRecord
	}
	return record, nil
}
