package jobs

import (
	"field-verify/internal/calculator"
	"field-verify/internal/excel"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusRunning JobStatus = "running"
	StatusDone    JobStatus = "done"
	StatusError   JobStatus = "error"
)

type JobResult struct {
	Rows     int    `json:"rows"`
	Open     int    `json:"open"`
	Sheet    string `json:"sheet"`
	Output   string `json:"-"`
	Filename string `json:"filename"`
}

type Job struct {
	ID        string
	Status    JobStatus
	Logs      []string
	Progress  int // 0-100
	Result    *JobResult
	Error     string
	CreatedAt time.Time

	mu sync.RWMutex
}

// Snapshot is a copy of a job's state that is safe to hand out.
type Snapshot struct {
	ID        string     `json:"id"`
	Status    JobStatus  `json:"status"`
	Logs      []string   `json:"logs,omitempty"`
	Progress  int        `json:"progress"`
	Result    *JobResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewJob() *Job {
	return &Job{
		ID:        uuid.New().String(),
		Status:    StatusRunning,
		Logs:      []string{},
		CreatedAt: time.Now(),
	}
}

func (j *Job) Log(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.appendLog(msg)
}

func (j *Job) appendLog(msg string) {
	ts := time.Now().Format("15:04:05")
	j.Logs = append(j.Logs, fmt.Sprintf("[%s] %s", ts, msg))
}

func (j *Job) SetProgress(current, total int, msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	// chunks report concurrently, so keep the highest value seen
	if total > 0 {
		if p := int(float64(current) / float64(total) * 100); p > j.Progress {
			j.Progress = p
		}
	}
	if msg != "" {
		j.appendLog(msg)
	}
}

func (j *Job) Fail(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusError
	j.Error = msg
	j.Logs = append(j.Logs, "[ERROR] "+msg)
}

func (j *Job) finish(res *JobResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusDone
	j.appendLog("Audit finished successfully.")
	j.Result = res
	j.Progress = 100
}

func (j *Job) Snapshot(withLogs bool) Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	s := Snapshot{
		ID:        j.ID,
		Status:    j.Status,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
	}
	if j.Result != nil {
		r := *j.Result
		s.Result = &r
	}
	if withLogs {
		s.Logs = make([]string, len(j.Logs))
		copy(s.Logs, j.Logs)
	}
	return s
}

// Store is the in-memory registry of audit jobs.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

func (s *Store) Add(j *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

func (s *Store) Get(id string) *Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jobs[id]
}

// RunAudit evaluates every visit in the workbook at inputPath and writes an
// audit workbook into outputDir. It blocks; callers run it in a goroutine.
func RunAudit(job *Job, inputPath, outputDir string, assessor calculator.Assessor) {
	defer func() {
		if r := recover(); r != nil {
			job.Fail(fmt.Sprintf("Panic: %v", r))
		}
	}()

	job.Log(fmt.Sprintf("Processing file: %s", filepath.Base(inputPath)))

	f, err := excel.OpenFile(inputPath)
	if err != nil {
		job.Fail(fmt.Sprintf("Could not open workbook: %v", err))
		return
	}
	defer f.Close()

	job.Log(fmt.Sprintf("Reading %s sheet...", excel.VisitsSheet))
	visits, err := excel.ReadVisits(f, excel.VisitsSheet)
	if err != nil {
		job.Fail(fmt.Sprintf("Visits read error: %v", err))
		return
	}
	job.Log(fmt.Sprintf("%d visits read.", len(visits)))

	start := time.Now()
	rows, err := calculator.ComputeAudit(visits, assessor, job.SetProgress, job.Log)
	if err != nil {
		job.Fail(fmt.Sprintf("Audit error: %v", err))
		return
	}
	job.Log(fmt.Sprintf("Evaluation took %s", time.Since(start)))

	open := 0
	for _, r := range rows {
		if r.GateOpen {
			open++
		}
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, base+"_audit.xlsx")

	job.Log("Writing result workbook...")
	if err := excel.WriteAudit(outputPath, rows, excel.AuditSheet); err != nil {
		job.Fail(fmt.Sprintf("Write error: %v", err))
		return
	}

	job.finish(&JobResult{
		Rows:     len(rows),
		Open:     open,
		Sheet:    excel.AuditSheet,
		Output:   outputPath,
		Filename: filepath.Base(outputPath),
	})
	slog.Info("Audit job finished", "job_id", job.ID, "rows", len(rows), "open", open)
}
