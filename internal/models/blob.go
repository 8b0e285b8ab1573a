package models

// AssetBlob is an immutable stored audio object. ID is the SHA-256 digest of
// the raw bytes, so identical uploads share one row.
type AssetBlob struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	DataURI  string `json:"dataUri"`
}

// AssetMetadata is the lightweight, derived descriptor of an AssetBlob.
// SizeBytes is the length of the encoded payload, not of the raw bytes.
type AssetMetadata struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// StorageInfo summarizes the metadata table.
type StorageInfo struct {
	FileCount      int   `json:"file_count"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

// MetadataFor derives the metadata row for one blob.
func MetadataFor(blob AssetBlob) AssetMetadata {
	return AssetMetadata{
		ID:        blob.ID,
		Name:      blob.Name,
		MimeType:  blob.MimeType,
		SizeBytes: int64(len(blob.DataURI)),
	}
}
