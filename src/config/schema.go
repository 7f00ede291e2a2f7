package config

import "strings"

// Canonical field names of the survey table.
const (
	FieldAge      = "Edad"
	FieldGender   = "Genero"
	FieldForeign  = "Foraneo"
	FieldStatus   = "Estatus"
	FieldOS       = "Sistema_Operativo"
	FieldTwitterX = "Twitter_X"
)

// DefaultFileName is the spreadsheet looked up when no path is configured.
const DefaultFileName = "CDE.xlsx"

// Schema holds the static tables that drive cleaning: header renames,
// category labels and the set of app-usage columns. It is read from
// dataconfig.json; empty fields fall back to DefaultSchema.
type Schema struct {
	FileName       string            `json:"file_name"`
	ProbePaths     []string          `json:"probe_paths"`
	UnnamedPattern string            `json:"unnamed_pattern"`
	IdentityFields []string          `json:"identity_fields"`
	Rename         map[string]string `json:"rename"`
	YesNoFields    []string          `json:"yes_no_fields"`
	YesNoLabels    map[string]string `json:"yes_no_labels"`
	GenderField    string            `json:"gender_field"`
	OSField        string            `json:"os_field"`
	OSLabels       map[string]string `json:"os_labels"`
	StatusField    string            `json:"status_field"`
	AgeField       string            `json:"age_field"`
	AppColumns     []string          `json:"app_columns"`
}

// DefaultSchema describes the CDE survey workbook.
func DefaultSchema() Schema {
	return Schema{
		FileName: DefaultFileName,
		ProbePaths: []string{
			"CDE.xlsx",
			"datasets/CDE.xlsx",
			"../CDE.xlsx",
			"../datasets/CDE.xlsx",
			"data/CDE.xlsx",
		},
		UnnamedPattern: "Unnamed",
		IdentityFields: []string{FieldAge, FieldGender, FieldStatus},
		Rename: map[string]string{
			"Genero (F/M/O)": FieldGender,
			"Foraneo(Si/No)": FieldForeign,
			"Regular(Si/No)": FieldStatus,
			"Sist. Operatvo": FieldOS,
			"X":              FieldTwitterX,
		},
		YesNoFields: []string{FieldForeign, FieldStatus},
		YesNoLabels: map[string]string{"SI": "Si", "NO": "No"},
		GenderField: FieldGender,
		OSField:     FieldOS,
		OSLabels:    map[string]string{"IOS": "iOS"},
		StatusField: FieldStatus,
		AgeField:    FieldAge,
		AppColumns: []string{
			"Facebook", "Instagram", "TikTok", "Youtube",
			FieldTwitterX, "Spotify", "WhatsApp",
		},
	}
}

// WithDefaults fills every empty field from DefaultSchema.
func (s Schema) WithDefaults() Schema {
	d := DefaultSchema()
	if s.FileName == "" {
		s.FileName = d.FileName
	}
	if len(s.ProbePaths) == 0 {
		s.ProbePaths = d.ProbePaths
	}
	if s.UnnamedPattern == "" {
		s.UnnamedPattern = d.UnnamedPattern
	}
	if len(s.IdentityFields) == 0 {
		s.IdentityFields = d.IdentityFields
	}
	if s.Rename == nil {
		s.Rename = d.Rename
	}
	if len(s.YesNoFields) == 0 {
		s.YesNoFields = d.YesNoFields
	}
	if s.YesNoLabels == nil {
		s.YesNoLabels = d.YesNoLabels
	}
	if s.GenderField == "" {
		s.GenderField = d.GenderField
	}
	if s.OSField == "" {
		s.OSField = d.OSField
	}
	if s.OSLabels == nil {
		s.OSLabels = d.OSLabels
	}
	if s.StatusField == "" {
		s.StatusField = d.StatusField
	}
	if s.AgeField == "" {
		s.AgeField = d.AgeField
	}
	if len(s.AppColumns) == 0 {
		s.AppColumns = d.AppColumns
	}
	return s
}

// Canonical maps a raw header to its canonical field name.
func (s Schema) Canonical(header string) string {
	if name, ok := s.Rename[header]; ok {
		return name
	}
	return header
}

// OSLabel returns the canonical spelling of an OS label. Keys of OSLabels
// match case-insensitively.
func (s Schema) OSLabel(v string) string {
	for raw, label := range s.OSLabels {
		if strings.EqualFold(raw, v) {
			return label
		}
	}
	return v
}
