package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanFilename(t *testing.T) {
	tests := map[string]string{
		"budget_report.txt":         "budget report",
		"Quarterly__Results.PDF":    "Quarterly Results",
		"  spaced   name .txt":      "spaced name",
		"archive.tar.gz":            "archive.tar.gz",
		"notes.txt.txt":             "notes.txt",
		"DocumentUnknown.txt":       "DocumentUnknown",
		"report.pdf.backup":         "report.pdf.backup",
		"\tmixed_\t_separators.pdf": "mixed separators",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanFilename(in), "input %q", in)
	}
}
