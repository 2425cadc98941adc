package domain

// DocumentKind is the provider's classification of the submitted document.
// It is advisory metadata for display: the verdict never depends on it.
type DocumentKind string

const (
	DocumentKindPassport       DocumentKind = "passport"
	DocumentKindIDCard         DocumentKind = "id_card"
	DocumentKindDriversLicense DocumentKind = "drivers_license"
	DocumentKindUnknown        DocumentKind = "unknown"
)

// NormalizeDocumentKind maps free-form provider output onto the known kinds.
// Unrecognized values collapse to DocumentKindUnknown rather than erroring,
// because the field is informational only.
func NormalizeDocumentKind(s string) DocumentKind {
	switch DocumentKind(s) {
	case DocumentKindPassport, DocumentKindIDCard, DocumentKindDriversLicense:
		return DocumentKind(s)
	default:
		return DocumentKindUnknown
	}
}

func (k DocumentKind) String() string {
	return string(k)
}
