package entities

// ArtifactSet lists the files produced by one write of audit output
type ArtifactSet struct {
	Dir        string   `json:"dir"`
	Files      []string `json:"files"`
	Checksums  []string `json:"checksums"`
	Signatures []string `json:"signatures,omitempty"`
}

// Signed reports whether every file has a detached signature
func (a *ArtifactSet) Signed() bool {
	return len(a.Files) > 0 && len(a.Signatures) == len(a.Files)
}
