package excel

// FileSourceConfig points at the three tables making up a cohort on disk
type FileSourceConfig struct {
	CountsFile   string `json:"counts_file"`
	GenesFile    string `json:"genes_file"`
	ClinicalFile string `json:"clinical_file"`
	// Sheet is read from xlsx workbooks; csv and tsv files ignore it.
	Sheet string `json:"sheet"`
}

// DefaultSheet is the worksheet read from xlsx inputs
const DefaultSheet = "Sheet1"
