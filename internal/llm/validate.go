package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func chartSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := json.Marshal(BuildChartJSONSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("chart.json", bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("chart.json")
	})
	return compiledSchema, schemaErr
}

// ValidateExtraction checks a raw extraction document against the chart
// schema. The schema is compiled once and reused.
func ValidateExtraction(data []byte) error {
	schema, err := chartSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal extraction: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("extraction does not match schema: %w", err)
	}
	return nil
}
