package gateways

// ArtifactSigner writes a detached signature next to a report artifact
type ArtifactSigner interface {
	// SignFile signs path and returns the signature file path
	SignFile(path string) (string, error)
}

// SignatureVerifier checks a detached signature over a local file
type SignatureVerifier interface {
	VerifyFile(filePath, sigPath string) error
}
