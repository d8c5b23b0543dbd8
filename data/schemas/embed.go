package schemas

import "embed"

//go:embed *.json
var SchemaFS embed.FS

// QCResultSchema returns the JSON schema the persisted QC results are
// validated against on load.
func QCResultSchema() (string, error) {
	data, err := SchemaFS.ReadFile("qcresult.schema.json")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
