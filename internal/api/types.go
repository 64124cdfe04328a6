package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Delivery describes a journaled delivery in a transport-friendly format.
type Delivery struct {
	ID             int64  `json:"id"`
	CargoID        string `json:"cargoId"`
	FileName       string `json:"fileName"`
	Payload        string `json:"payload"`
	PayloadDigest  string `json:"payloadDigest"`
	ArtifactDigest string `json:"artifactDigest"`
	SizeBytes      int64  `json:"sizeBytes"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	DeliveredAt    string `json:"deliveredAt,omitempty"`
}

// HistoryResponse wraps journal entries, newest first.
type HistoryResponse struct {
	Deliveries []Delivery `json:"deliveries"`
}

// Rect is an axis-aligned pixel rectangle.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Layout mirrors the placement computed for an artifact.
type Layout struct {
	CodeSize  int  `json:"codeSize"`
	Code      Rect `json:"code"`
	Backing   Rect `json:"backing"`
	Scannable bool `json:"scannable"`
}

// Artifact describes a produced artifact.
type Artifact struct {
	Generation uint64 `json:"generation"`
	CargoID    string `json:"cargoId"`
	Payload    string `json:"payload"`
	FileName   string `json:"fileName"`
	MediaType  string `json:"mediaType"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SizeBytes  int    `json:"sizeBytes"`
	Digest     string `json:"digest"`
	Layout     Layout `json:"layout"`
	ProducedAt string `json:"producedAt,omitempty"`
	// Location is where the artifact was delivered, empty when it was only
	// returned to the caller.
	Location string `json:"location,omitempty"`
}

// PayloadResponse carries the serialized payload for a record.
type PayloadResponse struct {
	Payload string `json:"payload"`
	Bytes   int    `json:"bytes"`
}

// Status aggregates server runtime information.
type Status struct {
	Running           bool   `json:"running"`
	PID               int    `json:"pid"`
	StartedAt         string `json:"startedAt"`
	UptimeSeconds     int64  `json:"uptimeSeconds"`
	OutputDir         string `json:"outputDir"`
	JournalPath       string `json:"journalPath,omitempty"`
	CodeSize          int    `json:"codeSize"`
	ErrorCorrection   string `json:"errorCorrection"`
	LocationSource    string `json:"locationSource"`
	MaxUploadBytes    int64  `json:"maxUploadBytes"`
	ArtifactsProduced int64  `json:"artifactsProduced"`
	Deliveries        int64  `json:"deliveries"`
	LastError         string `json:"lastError,omitempty"`
}

// Error is the body of every failed request.
type Error struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
