package domain

import "time"

// Status values recorded on the processing log. These strings are read by
// downstream log consumers, so they are stable.
type Status string

const (
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
	StatusError      Status = "Error"
)

// EntityKind identifies one of the reference-data catalogs an archive's
// metadata is reconciled against.
type EntityKind string

const (
	KindCustomer    EntityKind = "customer"
	KindTester      EntityKind = "tester"
	KindTestProgram EntityKind = "test_program"
	KindFamily      EntityKind = "family"
	KindWafer       EntityKind = "wafer"
	KindLot         EntityKind = "lot"
)

// FileUploadInfo is the metadata decoded from an archive filename. It is
// created once at decode time and travels read-only through the pipeline.
type FileUploadInfo struct {
	CustomerCode      string    `json:"customerCode"`
	ProjectCode       string    `json:"projectCode"`
	Tester            string    `json:"tester"`
	Lot               string    `json:"lot"`
	Wafer             string    `json:"wafer"`
	TestProgram       string    `json:"testProgram"`
	Timestamp         string    `json:"timestamp"`
	OriginalFileName  string    `json:"originalFileName"`
	ProcessedFileName string    `json:"processedFileName"`
	FileSize          int64     `json:"fileSize"`
	UploadedAt        time.Time `json:"uploadedAt"`
}

// FileProcessingMessage is the queue envelope. One message maps to exactly
// one archive file.
type FileProcessingMessage struct {
	FileName    string         `json:"fileName"`
	FilePath    string         `json:"filePath"`
	FileInfo    FileUploadInfo `json:"fileInfo"`
	ProcessedAt time.Time      `json:"processedAt"`
}

// Delivery is a received message plus the opaque receipt the queue needs to
// acknowledge it. An unacknowledged delivery becomes eligible for redelivery.
type Delivery struct {
	Message FileProcessingMessage
	Receipt string
}

// LogEntry is one row of the append-only processing log.
type LogEntry struct {
	ObjectName   string
	StoreName    string
	Status       Status
	FileSize     *int64
	ErrorMessage string
	Timestamp    time.Time
}

// StoredArchive describes where an archive ended up after being saved.
type StoredArchive struct {
	Path        string
	StoreName   string
	SizeInBytes int64
}
