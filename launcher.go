package cutoutsched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// ErrLaunchFailed is returned when the act of launching a job fails: the
// submission command cannot be started or exits non-zero. The scheduler
// treats it as fatal for the whole run. The job's own outcome is never part
// of this error; jobs report through the status store.
var ErrLaunchFailed = errors.New("job launch failed")

// Launcher starts a cutout job. Launch is fire-and-forget with respect to
// the job's outcome: a nil return means the job was handed off, not that it
// succeeded.
type Launcher interface {
	Launch(ctx context.Context, job Job) error
}

// ScriptLauncher launches jobs by running a per-job script directly:
//
//	<script> <job id> <sbid>
//
// The script is expected to put the real work in the background and return
// promptly; its exit code covers only the hand-off.
type ScriptLauncher struct {
	Script string       // Path to the start script, e.g. "./start_job.sh"
	SBID   int          // Scheduling block id passed to every job
	Logger *slog.Logger // Optional; slog.Default() when nil
}

// Launch runs the start script for the job.
func (l *ScriptLauncher) Launch(ctx context.Context, job Job) error {
	cmd := exec.CommandContext(ctx, l.Script, strconv.Itoa(job.ID), strconv.Itoa(l.SBID))
	return runLaunchCommand(cmd, job, l.logger())
}

func (l *ScriptLauncher) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// QsubLauncher launches jobs by submitting them to a PBS queue with qsub.
// The job id and sbid travel as environment variables and stdout/stderr go
// to per-job log files under LogDir.
type QsubLauncher struct {
	Script   string       // Path to the start script submitted to PBS
	SBID     int          // Scheduling block id passed to every job
	LogDir   string       // Folder for the per-job stdout/stderr logs
	QsubPath string       // qsub binary; defaults to "qsub"
	Logger   *slog.Logger // Optional; slog.Default() when nil
}

// Args returns the argument vector passed to qsub for the job.
func (l *QsubLauncher) Args(job Job) []string {
	return []string{
		"-v", fmt.Sprintf("COMP_INDEX=%d", job.ID),
		"-v", fmt.Sprintf("SBID=%d", l.SBID),
		"-N", fmt.Sprintf("ASKAP_abs%d", job.ID),
		"-o", filepath.Join(l.LogDir, fmt.Sprintf("askap_abs_%d_o.log", job.ID)),
		"-e", filepath.Join(l.LogDir, fmt.Sprintf("askap_abs_%d_e.log", job.ID)),
		l.Script,
	}
}

// Launch submits the job to PBS. Only the submission's exit code matters;
// the queued job reports its outcome through the status store.
func (l *QsubLauncher) Launch(ctx context.Context, job Job) error {
	qsub := l.QsubPath
	if qsub == "" {
		qsub = "qsub"
	}
	cmd := exec.CommandContext(ctx, qsub, l.Args(job)...)
	return runLaunchCommand(cmd, job, l.logger())
}

func (l *QsubLauncher) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// runLaunchCommand runs a submission command, passing its output through to
// the daemon's own streams, and maps any failure to ErrLaunchFailed.
func runLaunchCommand(cmd *exec.Cmd, job Job, logger *slog.Logger) error {
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	logger.Info("launching job", "component", job.Component, "job_id", job.ID, "command", cmd.String())
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s (#%d): %v", ErrLaunchFailed, job.Component, job.ID, err)
	}
	return nil
}
