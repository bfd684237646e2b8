package launcher

import (
	"fmt"

	"github.com/prometheus/procfs"
	"go.uber.org/zap"
)

// Info is what /proc tells about a process.
type Info struct {
	PID        int
	Comm       string
	Executable string
	CmdLine    []string
}

// Fields returns the info as log fields.
func (i Info) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("pid", i.PID),
		zap.String("comm", i.Comm),
		zap.String("executable", i.Executable),
		zap.Strings("cmdline", i.CmdLine),
	}
}

// Describe reads /proc/<pid>. Fields that cannot be read are left empty;
// only a missing process is an error.
func Describe(pid int) (Info, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return Info{}, fmt.Errorf("open procfs: %w", err)
	}
	proc, err := fs.Proc(pid)
	if err != nil {
		return Info{}, fmt.Errorf("read process %d: %w", pid, err)
	}

	info := Info{PID: pid}
	info.Comm, _ = proc.Comm()
	info.Executable, _ = proc.Executable()
	info.CmdLine, _ = proc.CmdLine()
	return info, nil
}
