package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// xlsxBytes is the minimal prefix that passes the signature check
var xlsxBytes = []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00}

func TestValidateTemplate(t *testing.T) {
	v := NewUploadValidator(nil, 1024)

	tests := []struct {
		name     string
		filename string
		content  []byte
		domain   string
		want     []string
	}{
		{
			name:     "valid upload",
			filename: "quarterly.xlsx",
			content:  xlsxBytes,
			domain:   "sales",
		},
		{
			name:    "missing file",
			domain:  "sales",
			content: xlsxBytes,
			want:    []string{"template file is required"},
		},
		{
			name:     "missing domain",
			filename: "quarterly.xlsx",
			content:  xlsxBytes,
			want:     []string{"report type is required"},
		},
		{
			name:     "domain with illegal characters",
			filename: "quarterly.xlsx",
			content:  xlsxBytes,
			domain:   "sales data!",
			want:     []string{"invalid report type format"},
		},
		{
			name:     "wrong extension",
			filename: "quarterly.docx",
			content:  xlsxBytes,
			domain:   "sales",
			want:     []string{"unsupported file type .docx, only .xlsx templates are accepted"},
		},
		{
			name:     "temp spreadsheet file",
			filename: "~$quarterly.xlsx",
			content:  xlsxBytes,
			domain:   "sales",
			want:     []string{"temporary spreadsheet files cannot be uploaded"},
		},
		{
			name:     "empty content",
			filename: "quarterly.xlsx",
			domain:   "sales",
			want:     []string{"template file is empty"},
		},
		{
			name:     "content is not a zip archive",
			filename: "quarterly.xlsx",
			content:  []byte("plain text pretending"),
			domain:   "sales",
			want:     []string{"file content does not match the .xlsx format"},
		},
		{
			name:     "oversized upload",
			filename: "quarterly.xlsx",
			content:  append(append([]byte{}, xlsxBytes...), make([]byte, 2048)...),
			domain:   "sales",
			want:     []string{"template exceeds the maximum size of 1024 bytes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.ValidateTemplate(tt.filename, tt.content, tt.domain)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateTemplateNoSizeCap(t *testing.T) {
	v := NewUploadValidator(nil, 0)

	big := append(append([]byte{}, xlsxBytes...), make([]byte, 1<<20)...)
	assert.Empty(t, v.ValidateTemplate("huge.xlsx", big, "sales"))
}

func TestSanitizeName(t *testing.T) {
	v := NewUploadValidator(nil, 0)

	assert.Equal(t, "monthly", v.SanitizeName("  monthly  "))
	assert.Equal(t, "a_b", v.SanitizeName("a/b"))
	assert.Equal(t, "a_b", v.SanitizeName(`a\b`))
	assert.Equal(t, "_secret", v.SanitizeName("..secret"))
}
