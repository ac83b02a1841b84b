package worker

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/lotstream/lotstream/pkg/domain"
	"github.com/lotstream/lotstream/pkg/logger"
)

// ReferenceCatalog is the idempotent "ensure entity exists" side of the
// catalog plus the lot attribute rows tied to a lot code.
type ReferenceCatalog interface {
	EnsureExists(ctx context.Context, kind domain.EntityKind, code string, name string) error
	SaveLotAttribute(ctx context.Context, lotCode string, attributeName string, attributeValue string, dataType string) error
}

// ProcessingLog is the append-only status audit trail.
type ProcessingLog interface {
	RecordLog(ctx context.Context, entry domain.LogEntry) error
}

// ArchiveMover is the completion marker's storage primitive.
type ArchiveMover interface {
	Move(ctx context.Context, fromPath string, toPath string) error
}

// Reconciler drives one message through
// Received -> Reconciling -> {Completed | Failed | Error}.
type Reconciler struct {
	l         *slog.Logger
	catalog   ReferenceCatalog
	statusLog ProcessingLog
	store     ArchiveMover
	storeName string
}

func NewReconciler(
	l *slog.Logger, catalog ReferenceCatalog, statusLog ProcessingLog,
	store ArchiveMover, storeName string,
) *Reconciler {
	return &Reconciler{
		l:         l.With(logger.ComponentKey, "reconciler"),
		catalog:   catalog,
		statusLog: statusLog,
		store:     store,
		storeName: storeName,
	}
}

// Process reconciles a single message and returns its terminal status. All
// upserts are attempted once per delivery; retries come from queue
// redelivery, never from looping here. A panic escaping any step is recorded
// as an Error status so the worker keeps running.
func (r *Reconciler) Process(ctx context.Context, msg *domain.FileProcessingMessage) (terminal domain.Status) {
	incWorkInFlight()
	defer decWorkInFlight()

	// Status writes are issued on a context detached from the poll loop's
	// stop signal. A shutdown arriving mid-reconciliation still cancels the
	// reconciliation itself, but must never leave a Processing entry without
	// its terminal pair.
	logCtx := context.WithoutCancel(ctx)

	defer func() {
		if rvr := recover(); rvr != nil {
			r.l.Error("panic while reconciling", "file_name", msg.FileName, "panic", rvr)
			r.record(logCtx, msg, domain.StatusError, fmt.Sprintf("%v", rvr))
			terminal = domain.StatusError
		}
	}()

	if !r.record(logCtx, msg, domain.StatusProcessing, "") {
		r.record(logCtx, msg, domain.StatusFailed, "could not record processing status")
		return domain.StatusFailed
	}

	err := r.reconcile(ctx, msg.FileInfo)
	if err != nil {
		r.l.Error("reconciliation failed", "file_name", msg.FileName, "error", err)
		r.record(logCtx, msg, domain.StatusFailed, err.Error())
		return domain.StatusFailed
	}

	processedPath := completionPath(msg.FilePath)
	err = r.store.Move(ctx, msg.FilePath, processedPath)
	if err != nil {
		r.l.Error("failed to mark archive complete", "file_name", msg.FileName, "error", err)
		r.record(logCtx, msg, domain.StatusFailed, fmt.Sprintf("marking complete failed: %s", err.Error()))
		return domain.StatusFailed
	}

	r.record(logCtx, msg, domain.StatusCompleted, "")
	r.l.Info("archive reconciled", "file_name", msg.FileName, "processed_path", processedPath)
	return domain.StatusCompleted
}

func (r *Reconciler) reconcile(ctx context.Context, info domain.FileUploadInfo) error {
	steps := []struct {
		kind domain.EntityKind
		code string
		name string
	}{
		{domain.KindCustomer, info.CustomerCode, "Customer_" + info.CustomerCode},
		{domain.KindTester, info.Tester, "Tester_" + info.Tester},
		{domain.KindTestProgram, info.TestProgram, "TestProgram_" + info.TestProgram},
		{domain.KindFamily, info.ProjectCode, "Family_" + info.ProjectCode},
		{domain.KindWafer, info.Wafer, "Wafer_" + info.Wafer},
		{domain.KindLot, info.Lot, "Lot_" + info.Lot},
	}

	for _, step := range steps {
		err := r.catalog.EnsureExists(ctx, step.kind, step.code, step.name)
		if err != nil {
			return fmt.Errorf("ensuring %s %q exists: %w", step.kind, step.code, err)
		}
	}

	attributes := []struct {
		name     string
		value    string
		dataType string
	}{
		{"Timestamp", info.Timestamp, "DateTime"},
		{"CustomerCode", info.CustomerCode, "String"},
		{"ProjectCode", info.ProjectCode, "String"},
	}

	for _, attr := range attributes {
		err := r.catalog.SaveLotAttribute(ctx, info.Lot, attr.name, attr.value, attr.dataType)
		if err != nil {
			return fmt.Errorf("saving lot attribute %s: %w", attr.name, err)
		}
	}

	return nil
}

func (r *Reconciler) record(ctx context.Context, msg *domain.FileProcessingMessage, status domain.Status, errorMessage string) bool {
	size := msg.FileInfo.FileSize

	err := r.statusLog.RecordLog(ctx, domain.LogEntry{
		ObjectName:   msg.FileName,
		StoreName:    r.storeName,
		Status:       status,
		FileSize:     &size,
		ErrorMessage: errorMessage,
	})
	if err != nil {
		r.l.Error("failed to record processing status",
			"file_name", msg.FileName, "status", string(status), "error", err)
		return false
	}
	return true
}

// completionPath prepends the completion marker to the base name, preserving
// the directory or key prefix. Downstream consumers watch for the marker.
func completionPath(filePath string) string {
	dir, base := path.Split(filePath)
	return dir + "_" + base
}
