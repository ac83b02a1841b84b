// Package filename decodes archive filenames of the form
// {customerCode}_{projectCode}_{tester}_{lot}_{wafer}_{testProgram}_{timestamp}.zip
// into structured metadata. The customer code may itself contain underscores;
// the six trailing fields may not.
package filename

import (
	"fmt"
	"strings"

	"github.com/lotstream/lotstream/pkg/domain"
)

const Extension = ".zip"

// minSegments is the number of underscore-delimited segments a valid stem
// must have: six trailing fields plus at least one customer-code segment.
const minSegments = 7

// DecodeError reports a filename that does not follow the archive naming
// grammar. It rejects the artifact before it ever reaches the queue.
type DecodeError struct {
	FileName string
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode filename %q: %s", e.FileName, e.Reason)
}

// Decode extracts upload metadata from an archive filename. It is a pure
// function: no side effects, same output for the same input.
func Decode(fileName string) (domain.FileUploadInfo, error) {
	if !strings.EqualFold(ext(fileName), Extension) {
		return domain.FileUploadInfo{}, &DecodeError{
			FileName: fileName,
			Reason:   fmt.Sprintf("extension must be %s", Extension),
		}
	}

	stem := fileName[:len(fileName)-len(Extension)]
	segments := strings.Split(stem, "_")
	if len(segments) < minSegments {
		return domain.FileUploadInfo{}, &DecodeError{
			FileName: fileName,
			Reason: fmt.Sprintf("expected at least %d underscore-separated segments, got %d",
				minSegments, len(segments)),
		}
	}

	last := len(segments)
	return domain.FileUploadInfo{
		CustomerCode:     strings.Join(segments[:last-6], "_"),
		ProjectCode:      segments[last-6],
		Tester:           segments[last-5],
		Lot:              segments[last-4],
		Wafer:            segments[last-3],
		TestProgram:      segments[last-2],
		Timestamp:        segments[last-1],
		OriginalFileName: fileName,
	}, nil
}

func ext(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 {
		return ""
	}
	return fileName[idx:]
}
