package document

// Canonical metadata field names used by the pipeline itself. Handlers
// and parsers add their own fields freely; these are the only names the
// engine reads or writes.
const (
	FieldReference       = "document.reference"
	FieldContentType     = "document.contentType"
	FieldContentEncoding = "document.contentEncoding"
	FieldTitle           = "document.title"
	FieldPageCount       = "document.pageCount"

	FieldEmbeddedIndex   = "document.embeddedIndex"
	FieldParentReference = "document.parentReference"
	FieldAncestorRefs    = "document.ancestorReferences"
)
