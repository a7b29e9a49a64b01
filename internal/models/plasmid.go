package models

import "fmt"

// SequenceFormat is one of the sequence file formats Addgene serves.
type SequenceFormat string

const (
	FormatSnapGene SequenceFormat = "snapgene"
	FormatGenBank  SequenceFormat = "genbank"
	FormatFASTA    SequenceFormat = "fasta"
)

// Extension returns the file extension Addgene uses for the format.
func (f SequenceFormat) Extension() string {
	switch f {
	case FormatSnapGene:
		return "dna"
	case FormatGenBank:
		return "gb"
	case FormatFASTA:
		return "fasta"
	}
	return ""
}

func (f SequenceFormat) String() string {
	return string(f)
}

func ParseSequenceFormat(s string) (SequenceFormat, error) {
	switch SequenceFormat(s) {
	case FormatSnapGene, FormatGenBank, FormatFASTA:
		return SequenceFormat(s), nil
	}
	return "", fmt.Errorf("unknown sequence format %q (want snapgene, genbank or fasta)", s)
}

// PlasmidOverview is one search-result record from the Addgene catalog.
// ID and Name are mandatory; everything else depends on what the results
// page happens to show for that plasmid.
type PlasmidOverview struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Depositor   string   `json:"depositor"`
	Purpose     string   `json:"purpose,omitempty"`
	ArticleURL  string   `json:"article_url,omitempty"`
	Insert      string   `json:"insert,omitempty"`
	Tags        string   `json:"tags,omitempty"`
	Mutation    string   `json:"mutation,omitempty"`
	PlasmidType string   `json:"plasmid_type,omitempty"`
	VectorType  string   `json:"vector_type,omitempty"`
	Popularity  string   `json:"popularity,omitempty"`
	Expression  []string `json:"expression,omitempty"`
	Promoter    string   `json:"promoter,omitempty"`
	MapURL      string   `json:"map_url,omitempty"`
	Services    string   `json:"services,omitempty"`
	IsIndustry  bool     `json:"is_industry"`
}

// SearchResult is the envelope for one page of search results.
//
// Count is the total reported by the page-level results counter, not
// len(Plasmids); the two legitimately diverge on Addgene and the
// discrepancy is preserved so callers can detect it.
type SearchResult struct {
	Plasmids []PlasmidOverview `json:"plasmids"`
	Count    int               `json:"count"`
	Query    string            `json:"query"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// SequenceDownloadInfo describes whether a sequence file is downloadable
// for a plasmid and at what URL. Computed fresh per call, never cached.
type SequenceDownloadInfo struct {
	PlasmidID   int            `json:"plasmid_id"`
	DownloadURL string         `json:"download_url,omitempty"`
	Format      SequenceFormat `json:"format"`
	Available   bool           `json:"available"`
}

// DownloadResult records one download attempt. FilePath and FileSize are
// set only on success, ErrorMessage only on failure.
type DownloadResult struct {
	PlasmidID    int            `json:"plasmid_id"`
	Format       SequenceFormat `json:"format"`
	Success      bool           `json:"success"`
	FilePath     string         `json:"file_path,omitempty"`
	FileSize     int64          `json:"file_size,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}
