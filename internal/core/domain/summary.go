package domain

import "time"

// SaveSummary describes one completed Save.
type SaveSummary struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Path       string        `json:"path" yaml:"path"`
	BackupPath string        `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	Codec      string        `json:"codec" yaml:"codec"`
	Layers     int           `json:"layers" yaml:"layers"`
	Instances  int           `json:"instances" yaml:"instances"`
	Cells      int           `json:"cells" yaml:"cells"`
	Roots      int           `json:"roots" yaml:"roots"`
	Warnings   int           `json:"warnings" yaml:"warnings"`
	Bytes      int64         `json:"bytes" yaml:"bytes"`
	CreatedAt  time.Time     `json:"created_at" yaml:"created_at"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}
